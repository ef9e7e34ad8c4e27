// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/buildgraph/buildgraph/internal/config"
	"github.com/buildgraph/buildgraph/internal/digest"
	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/internal/loader"
	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/types"
)

// DefaultMarkdownStyle lets glamour pick a style from the terminal.
const DefaultMarkdownStyle = "auto"

type (
	// App wires CLI services and shared dependencies. Cobra handlers receive
	// an App and delegate configuration and resolution to it.
	App struct {
		Config        ConfigProvider
		markdownStyle string
		stdout        io.Writer
		stderr        io.Writer
		flags         globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// MarkdownStyle is the glamour style for issue cards and explain
		// reports, e.g. "dark" or "notty".
		MarkdownStyle string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// globalFlags are the persistent flags shared by every command.
	globalFlags struct {
		configPath string
		envFile    string
		output     string
		verbose    bool
	}

	// session is the per-invocation state derived from config and flags.
	session struct {
		cfg    *config.Config
		logger *log.Logger
		output config.OutputFormat
		// hasher is shared by every resolve of the session, nil unless
		// hash_files is set.
		hasher *digest.Hasher
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.MarkdownStyle == "" {
		deps.MarkdownStyle = DefaultMarkdownStyle
	}

	return &App{
		Config:        deps.Config,
		markdownStyle: deps.MarkdownStyle,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
	}, nil
}

// loadOptions converts the global flags into config load options.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: types.FilesystemPath(a.flags.configPath),
		EnvFile:        types.FilesystemPath(a.flags.envFile),
	}
}

// newSession loads the configuration and applies the global flags on top.
func (a *App) newSession(ctx context.Context) (*session, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if a.flags.output != "" {
		output = config.OutputFormat(a.flags.output)
		probe := *cfg
		probe.Output = output
		if err := probe.Validate(); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("parse --output").
				WithSuggestion("Use one of text, json or toml").
				Wrap(err).
				BuildError()
		}
	}

	level := cfg.LogLevel.Level()
	if a.flags.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	if cfg.Source != "" {
		logger.Debug("configuration loaded", "file", cfg.Source)
	}

	s := &session{cfg: cfg, logger: logger, output: output}
	if cfg.HashFiles {
		if s.hasher, err = digest.New(digest.DefaultCacheSize); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// resolve loads every description below dirs and sorts the packages. An
// empty dirs means the working directory.
func (s *session) resolve(ctx context.Context, dirs []string) (*buildgraph.Project, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	opts := []loader.Option{loader.WithLogger(s.logger)}
	if s.hasher != nil {
		opts = append(opts, loader.WithHasher(s.hasher))
		defer func() {
			st := s.hasher.Stats()
			s.logger.Debug("hashed defining files", "hits", st.Hits, "misses", st.Misses, "cached", st.Len)
		}()
	}

	decls, err := loader.New(opts...).LoadDirs(ctx, dirs, s.cfg.Patterns, s.cfg.Exclude)
	if err != nil {
		return nil, loadError(err, dirs)
	}

	proj, err := buildgraph.Resolve(decls,
		buildgraph.WithLogger(s.logger),
		buildgraph.WithDuplicates(s.cfg.Duplicates.Policy()),
	)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve build descriptions").
			Wrap(err).
			BuildError()
	}
	return proj, nil
}

// loadError adds the user-facing context to a loader failure.
func loadError(err error, dirs []string) error {
	ctx := issue.NewErrorContext().WithOperation("load build descriptions").Wrap(err)

	var de *loader.DescriptionError
	switch {
	case errors.As(err, &de):
		ctx.WithResource(de.File)
	case errors.Is(err, loader.ErrNoDescriptions):
		ctx.WithResource(fmt.Sprint(dirs)).
			WithSuggestion("Pass the directory that contains your BUILD files")
	case errors.Is(err, loader.ErrInvalidPattern):
		ctx.WithSuggestion("Check the patterns and exclude keys with 'buildgraph config show'")
	}
	return ctx.BuildError()
}
