// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/pkg/buildgraph"
)

type (
	// projectView is the serialized form of a project.
	projectView struct {
		Sorted   []packageView `json:"sorted" toml:"sorted"`
		Disabled []packageView `json:"disabled" toml:"disabled"`
	}

	// packageView is the serialized form of one package. Edges refer to
	// their targets by label so the view has no cycles.
	packageView struct {
		ID         int                       `json:"id" toml:"id"`
		Name       string                    `json:"name" toml:"name"`
		Provides   string                    `json:"provides" toml:"provides"`
		Type       buildgraph.PackageType    `json:"type" toml:"type"`
		Dirname    string                    `json:"dirname,omitempty" toml:"dirname,omitempty"`
		SourceKind string                    `json:"source_kind,omitempty" toml:"source_kind,omitempty"`
		Location   string                    `json:"location,omitempty" toml:"location,omitempty"`
		Reason     string                    `json:"reason,omitempty" toml:"reason,omitempty"`
		Requires   []edgeView                `json:"requires,omitempty" toml:"requires,omitempty"`
		Files      []buildgraph.DefiningFile `json:"files,omitempty" toml:"files,omitempty"`
	}

	edgeView struct {
		Target  string            `json:"target" toml:"target"`
		Kind    string            `json:"kind" toml:"kind"`
		Options map[string]string `json:"options,omitempty" toml:"options,omitempty"`
	}
)

func newProjectView(proj *buildgraph.Project, withDisabled bool) projectView {
	v := projectView{
		Sorted:   make([]packageView, 0, len(proj.Sorted)),
		Disabled: make([]packageView, 0, len(proj.Disabled)),
	}
	for _, p := range proj.Sorted {
		v.Sorted = append(v.Sorted, newPackageView(p))
	}
	if withDisabled {
		for _, p := range proj.Disabled {
			v.Disabled = append(v.Disabled, newPackageView(p))
		}
	}
	return v
}

func newPackageView(p *buildgraph.Package) packageView {
	v := packageView{
		ID:         int(p.ID),
		Name:       p.Name,
		Provides:   p.Provides,
		Type:       p.Type,
		Dirname:    p.Dirname,
		SourceKind: p.SourceKind,
		Files:      p.Files,
	}
	if p.Location.File != "" {
		v.Location = p.Location.String()
	}
	if p.Reason != nil {
		v.Reason = p.Reason.Error()
	}
	for _, d := range p.Requires {
		v.Requires = append(v.Requires, edgeView{Target: d.Target.Label(), Kind: d.Kind(), Options: d.Options})
	}
	return v
}

// writeStructured encodes v as JSON or TOML. It reports false for the text
// format, which every command renders on its own.
func writeStructured(w io.Writer, format config.OutputFormat, v any) (bool, error) {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case config.OutputTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return true, enc.Encode(v)
	default:
		return false, nil
	}
}

// renderOrder writes one line per buildable package: final id, type, label.
func renderOrder(w io.Writer, proj *buildgraph.Project) {
	for _, p := range proj.Sorted {
		fmt.Fprintf(w, "%s  %s %s\n",
			idColumnStyle.Render(fmt.Sprint(p.ID)),
			typeColumnStyle.Render(p.Type.String()),
			NameStyle.Render(p.Label()))
	}
}

// renderDisabled writes each disabled package with its reason.
func renderDisabled(w io.Writer, proj *buildgraph.Project) {
	for _, p := range proj.Disabled {
		fmt.Fprintf(w, "%s %s: %s\n",
			ErrorStyle.Render(errorIcon),
			NameStyle.Render(p.Label()),
			WarningStyle.Render(p.Reason.Error()))
	}
}

// explainMarkdown describes one package and, when it is disabled, the chain
// of reasons down to the root cause.
func explainMarkdown(proj *buildgraph.Project, p *buildgraph.Package) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", p.Label())
	fmt.Fprintf(&md, "- **type:** %s\n", p.Type)
	fmt.Fprintf(&md, "- **provides:** `%s`\n", p.Provides)
	if p.Location.File != "" {
		fmt.Fprintf(&md, "- **declared at:** `%s`\n", p.Location)
	}
	if p.Disabled {
		md.WriteString("- **status:** disabled\n")
	} else {
		fmt.Fprintf(&md, "- **status:** buildable, position %d of %d\n", p.ID, len(proj.Sorted))
	}

	md.WriteString("\n## Requires\n\n")
	if len(p.Requires) == 0 {
		md.WriteString("Nothing.\n")
	}
	for _, d := range p.Requires {
		state := "buildable"
		if d.Target.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(&md, "- `%s` (%s, %s)\n", d.Target.Label(), d.Kind(), state)
	}

	var dependents []string
	for _, list := range [][]*buildgraph.Package{proj.Sorted, proj.Disabled} {
		for _, other := range list {
			if other.DependsOn(p) {
				dependents = append(dependents, "`"+other.Label()+"`")
			}
		}
	}
	if len(dependents) > 0 {
		fmt.Fprintf(&md, "\n## Required by\n\n%s\n", strings.Join(dependents, ", "))
	}

	if chain := proj.Explain(p); len(chain) > 0 {
		md.WriteString("\n## Why it is disabled\n\n")
		for i, reason := range chain {
			fmt.Fprintf(&md, "%d. %s\n", i+1, reason)
		}
	}

	if len(p.Files) > 0 {
		md.WriteString("\n## Defining files\n\n")
		for _, f := range p.Files {
			if f.Hashed() {
				fmt.Fprintf(&md, "- `%s` %s\n", f.Path, f.Digest)
			} else {
				fmt.Fprintf(&md, "- `%s`\n", f.Path)
			}
		}
	}
	return md.String()
}
