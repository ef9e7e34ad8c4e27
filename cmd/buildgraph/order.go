// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/pkg/types"
)

func newOrderCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "order [dir...]",
		Short: "Print the buildable packages in build order",
		Long: `Print the buildable packages in build order.

Each package is listed after every package it requires. The first column
is the package's final id, its position in the order. Disabled packages
are left out; use 'buildgraph check' to list them.`,
		Example: `  buildgraph order
  buildgraph order ./src ./vendor
  buildgraph order -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, app, args)
		},
	}
}

func runOrder(cmd *cobra.Command, app *App, dirs []string) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	proj, err := s.resolve(cmd.Context(), dirs)
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}

	stdout := cmd.OutOrStdout()
	ok, err := writeStructured(stdout, s.output, newProjectView(proj, false))
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	if !ok {
		renderOrder(stdout, proj)
	}

	if n := len(proj.Disabled); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d package(s) disabled, run 'buildgraph check' for details\n",
			WarningStyle.Render(warningIcon), n)
	}
	return nil
}
