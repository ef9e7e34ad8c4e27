// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/types"
)

// explainView is the serialized form of an explanation.
type explainView struct {
	Package packageView `json:"package" toml:"package"`
	// Chain lists the reasons from the package down to the root cause.
	Chain []string `json:"chain,omitempty" toml:"chain,omitempty"`
}

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <package> [dir...]",
		Short: "Explain why a package is or is not buildable",
		Long: `Describe one package: its requirements, the packages requiring it and,
when it is disabled, the chain of reasons down to the root cause.

The command exits with status 1 when the package is disabled.`,
		Example: `  buildgraph explain app
  buildgraph explain zlib ./third_party`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, app, args[0], args[1:])
		},
	}
}

func runExplain(cmd *cobra.Command, app *App, name string, dirs []string) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	proj, err := s.resolve(cmd.Context(), dirs)
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}

	pkg, found := proj.Lookup(name)
	if !found {
		return app.fail(cmd, types.ExitFatal, issue.NewErrorContext().
			WithOperation("explain package").
			WithResource(name).
			WithIssue(issue.PackageNotFoundId).
			Wrap(fmt.Errorf("no package named %q among %d package(s)", name, proj.Len())).
			BuildError())
	}

	view := explainView{Package: newPackageView(pkg)}
	for _, reason := range proj.Explain(pkg) {
		view.Chain = append(view.Chain, reason.Error())
	}

	stdout := cmd.OutOrStdout()
	ok, err := writeStructured(stdout, s.output, view)
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	if !ok {
		out, err := glamour.Render(explainMarkdown(proj, pkg), app.markdownStyle)
		if err != nil {
			return app.fail(cmd, types.ExitFatal, err)
		}
		fmt.Fprint(stdout, out)
	}

	if pkg.Disabled {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitDisabled}
	}
	return nil
}
