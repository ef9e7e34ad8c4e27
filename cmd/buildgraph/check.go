// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/pkg/types"
)

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir...]",
		Short: "List the packages that cannot be built",
		Long: `List the packages that cannot be built, with the reason for each.

A package is disabled when its description switches it off, when a
required package is missing or disabled, or when it is part of a
dependency cycle. The command exits with status 1 when any package is
disabled and 0 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, app, args)
		},
	}
}

func runCheck(cmd *cobra.Command, app *App, dirs []string) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	proj, err := s.resolve(cmd.Context(), dirs)
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}

	stdout := cmd.OutOrStdout()
	ok, err := writeStructured(stdout, s.output, newProjectView(proj, true))
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	if !ok {
		if len(proj.Disabled) == 0 {
			fmt.Fprintf(stdout, "%s all %d package(s) are buildable\n", SuccessStyle.Render(successIcon), len(proj.Sorted))
		} else {
			renderDisabled(stdout, proj)
			fmt.Fprintf(stdout, "\n%d of %d package(s) disabled", len(proj.Disabled), proj.Len())
			if n := len(proj.Cycles()); n > 0 {
				fmt.Fprintf(stdout, ", %d dependency cycle(s)", n)
			}
			fmt.Fprintln(stdout)
		}
	}

	if len(proj.Disabled) > 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitDisabled}
	}
	return nil
}
