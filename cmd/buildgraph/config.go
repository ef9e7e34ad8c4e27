// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/pkg/types"
)

// newConfigCommand creates the `buildgraph config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage buildgraph configuration",
		Long: `Manage buildgraph configuration.

Configuration is read from the --config file, else from the user config
file, else from ./buildgraph.config.cue:
  - Linux: ~/.config/buildgraph/config.cue
  - macOS: ~/Library/Application Support/buildgraph/config.cue
  - Windows: %APPDATA%\buildgraph\config.cue

BUILDGRAPH_* variables from ./.env and the environment override the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, app)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd.Context())
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	cfg := *s.cfg
	cfg.Output = s.output

	stdout := cmd.OutOrStdout()
	if s.output == config.OutputText {
		source := SubtitleStyle.Render("(using defaults)")
		if cfg.Source != "" {
			source = cfg.Source
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", TitleStyle.Render("Config file"), source)
		fmt.Fprint(stdout, config.GenerateCUE(&cfg))
		return nil
	}
	if _, err := writeStructured(stdout, s.output, cfg); err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	return nil
}

func initConfig(cmd *cobra.Command, app *App) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	path, err := config.CreateDefaultConfig(dir)
	if err != nil {
		return app.fail(cmd, types.ExitFatal, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration at %s\n", SuccessStyle.Render(successIcon), path)
	return nil
}
