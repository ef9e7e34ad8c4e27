// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "buildgraph",
		Short: "Order the packages of a multi-package build",
		Long: TitleStyle.Render("buildgraph") + SubtitleStyle.Render(" - package dependency graph and build order") + `

buildgraph reads BUILD.cue and BUILD.hcl descriptions, resolves the
requirements between the packages they declare and prints an order in
which every package comes after the packages it depends on. Packages that
cannot be built, because a requirement is missing, a dependency is disabled
or they are part of a cycle, are reported with the reason.

` + SubtitleStyle.Render("Examples:") + `
  buildgraph order              Print the build order of the current directory
  buildgraph order ./src ./lib  Load descriptions below several directories
  buildgraph check              List disabled packages and exit 1 if any
  buildgraph explain app        Explain why 'app' is or is not buildable
  buildgraph watch              Print the order again on every description change
  buildgraph config show        Show the effective configuration`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/buildgraph/config.cue)")
	pf.StringVar(&app.flags.envFile, "env-file", "", "dotenv file with BUILDGRAPH_* overrides (default is ./.env)")
	pf.StringVarP(&app.flags.output, "output", "o", "", "output format: text, json or toml (overrides the config)")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging and full error chains")

	root.AddCommand(
		newOrderCommand(app),
		newCheckCommand(app),
		newExplainCommand(app),
		newConfigCommand(app),
		newWatchCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits with the code of the first failure.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(types.ExitFatal))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFatal))
	}
}

// handleError prints errors that no command reported itself.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
