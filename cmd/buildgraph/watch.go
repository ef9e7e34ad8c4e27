// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/internal/watch"
	"github.com/buildgraph/buildgraph/pkg/types"
)

func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Print the build order again whenever a description changes",
		Long: `Print the build order, then watch the directory and print it again each
time a build description is created, changed or removed. Resolution errors
are reported without stopping the watch. Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runWatch(cmd, app, dir)
		},
	}
}

func runWatch(cmd *cobra.Command, app *App, dir string) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}

	stdout := cmd.OutOrStdout()
	printOrder := func(ctx context.Context) {
		proj, err := s.resolve(ctx, []string{dir})
		if err != nil {
			app.renderError(cmd.ErrOrStderr(), err)
			return
		}
		if ok, err := writeStructured(stdout, s.output, newProjectView(proj, true)); err != nil {
			app.renderError(cmd.ErrOrStderr(), err)
		} else if !ok {
			renderOrder(stdout, proj)
			if len(proj.Disabled) > 0 {
				renderDisabled(stdout, proj)
			}
		}
	}

	w, err := watch.New(watch.Config{
		Root:     dir,
		Patterns: s.cfg.Patterns,
		Exclude:  s.cfg.Exclude,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			printSeparator(stdout, changed)
			printOrder(ctx)
			return nil
		},
	})
	if err != nil {
		return app.fail(cmd, types.ExitFatal, loadError(err, []string{dir}))
	}

	printOrder(cmd.Context())
	if err := w.Run(cmd.Context()); err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	return nil
}

func printSeparator(w io.Writer, changed []string) {
	fmt.Fprintf(w, "\n%s %s\n", TitleStyle.Render("changed:"), SubtitleStyle.Render(strings.Join(changed, ", ")))
}
