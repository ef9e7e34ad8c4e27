// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"

	"github.com/buildgraph/buildgraph/internal/loader"
	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
)

const (
	DescriptionsNotFoundId Id = iota + 1
	DescriptionParseErrorId
	DuplicateDefinitionId
	AmbiguousProvidesId
	UnsatisfiedRequirementId
	DependencyCycleId
	DisabledDependencyId
	InvalidPatternId
	ConfigLoadFailedId
	PackageNotFoundId
)

type (
	// Id identifies an issue card.
	Id int

	// MarkdownMsg is the Markdown body of a card.
	MarkdownMsg string

	// HttpLink is a documentation URL listed under a card.
	HttpLink string

	// Issue is a Markdown card explaining a class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		// match reports whether an error belongs to this card.
		match func(error) bool
	}
)

// Id returns the card id.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the card body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render formats the card for the terminal. stylePath is a glamour style
// name such as "dark" or "notty", or a path to a style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	descriptionsNotFoundIssue = &Issue{
		id:    DescriptionsNotFoundId,
		match: is(loader.ErrNoDescriptions),
		mdMsg: `
# No build descriptions found!

No file matched the description patterns below the given directories.

## Things you can try:
- Run the command from the root of your project, or pass the directory:
~~~
$ buildgraph order ./src
~~~
- Check the ` + "`patterns`" + ` and ` + "`exclude`" + ` keys of your configuration:
~~~
$ buildgraph config show
~~~

## Example BUILD.cue:
~~~cue
packages: [
	{name: "app", type: "program", requires: [{name: "core"}]},
	{name: "core"},
]
~~~`,
	}

	descriptionParseErrorIssue = &Issue{
		id: DescriptionParseErrorId,
		match: func(err error) bool {
			return errors.Is(err, loader.ErrInvalidDescription) || errors.Is(err, cueutil.ErrInvalidDocument)
		},
		mdMsg: `
# A build description could not be read!

The file above has a syntax error or does not match the description schema.

## Things you can try:
- Check the reported path, e.g. ` + "`packages[2].requires[0].name`" + `
- Package types are one of program, test, library, objects, syntax or rules
- Requirement flags are ` + "`link`, `syntax` and `optional`" + `; options map strings to strings`,
	}

	duplicateDefinitionIssue = &Issue{
		id:    DuplicateDefinitionId,
		match: is(buildgraph.ErrDuplicateDefinition),
		mdMsg: `
# A package is defined twice!

Two declarations in the same directory use the same package name.

## Things you can try:
- Rename one of the packages and give it a distinct ` + "`provides`" + ` name
- Remove the stale copy of the declaration
- Allow duplicates when they are intentional:
~~~cue
duplicates: "allow"
~~~`,
	}

	ambiguousProvidesIssue = &Issue{
		id:    AmbiguousProvidesId,
		match: is(buildgraph.ErrAmbiguousProvides),
		mdMsg: `
# A requirement matches several packages!

More than one enabled package provides the required name, so the build order
cannot be decided.

## Things you can try:
- Disable all candidates but one:
~~~cue
{name: "json-legacy", provides: "json", enabled: false}
~~~
- Give the candidates distinct ` + "`provides`" + ` names and require the one you mean`,
	}

	unsatisfiedRequirementIssue = &Issue{
		id:    UnsatisfiedRequirementId,
		match: is(buildgraph.ErrUnsatisfiedRequirement),
		mdMsg: `
# A requirement has no provider!

No package provides the required name, so the requiring package is disabled.

## Things you can try:
- Add the missing package to a build description
- Check the spelling against the provider's ` + "`provides`" + ` name
- Mark the requirement optional if the package builds without it:
~~~cue
requires: [{name: "zlib", optional: true}]
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id:    DependencyCycleId,
		match: is(buildgraph.ErrDependencyCycle),
		mdMsg: `
# Dependency cycle detected!

The packages above require each other, so none of them can be built first.
Every member of the cycle is disabled.

## Things you can try:
- Move the shared code into a new package both can require
- Turn one edge into an optional requirement if it is not needed to build`,
	}

	disabledDependencyIssue = &Issue{
		id:    DisabledDependencyId,
		match: is(buildgraph.ErrDisabledDependency),
		mdMsg: `
# A dependency is disabled!

The package requires a package that cannot be built, so it is disabled too.

## Things you can try:
- Follow the chain down to the root cause:
~~~
$ buildgraph explain <package>
~~~
- Fix or re-enable the package at the end of the chain`,
	}

	invalidPatternIssue = &Issue{
		id:    InvalidPatternId,
		match: is(loader.ErrInvalidPattern),
		mdMsg: `
# Invalid glob pattern!

A discovery pattern is not a valid glob. Patterns use doublestar syntax:
` + "`**`" + ` matches any number of directories.

## Example:
~~~cue
patterns: ["**/BUILD.cue", "tools/*/BUILD.hcl"]
exclude:  ["**/testdata/**"]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded!

## Things you can try:
- Print the effective configuration:
~~~
$ buildgraph config show
~~~
- Check the keys: log_level, patterns, exclude, hash_files, duplicates, output
- Remove the file to fall back to the defaults`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found!

No package with that name was declared in the loaded descriptions.

## Things you can try:
- List the buildable packages:
~~~
$ buildgraph order
~~~
- List the disabled ones:
~~~
$ buildgraph check
~~~`,
	}

	issues = []*Issue{
		descriptionsNotFoundIssue,
		descriptionParseErrorIssue,
		duplicateDefinitionIssue,
		ambiguousProvidesIssue,
		unsatisfiedRequirementIssue,
		dependencyCycleIssue,
		disabledDependencyIssue,
		invalidPatternIssue,
		configLoadFailedIssue,
		packageNotFoundIssue,
	}
)

// Values returns every card in id order.
func Values() []*Issue {
	return slices.Clone(issues)
}

// Get returns the card with the given id, or nil.
func Get(id Id) *Issue {
	for _, i := range issues {
		if i.id == id {
			return i
		}
	}
	return nil
}

// Classify returns the first card matching err, or nil.
func Classify(err error) *Issue {
	if err == nil {
		return nil
	}
	for _, i := range issues {
		if i.match != nil && i.match(err) {
			return i
		}
	}
	return nil
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}
