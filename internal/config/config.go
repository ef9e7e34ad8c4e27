// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "buildgraph"
	// EnvPrefix prefixes environment overrides, e.g. BUILDGRAPH_OUTPUT.
	EnvPrefix = "BUILDGRAPH"
	// ConfigFileName is the name of the user config file.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is the name of the per-project config file.
	LocalConfigFileName = "buildgraph.config.cue"
	// DotEnvFileName is the dotenv file read from the base directory.
	DotEnvFileName = ".env"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the buildgraph configuration directory using
// platform-specific conventions: %APPDATA% on Windows, ~/Library/Application
// Support on macOS and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, AppName), nil
}

// loadWithOptions layers defaults, the config file, the dotenv file and the
// environment into a validated Config.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("log_level", string(defaults.LogLevel))
	v.SetDefault("patterns", defaults.Patterns)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("hash_files", defaults.HashFiles)
	v.SetDefault("duplicates", string(defaults.Duplicates))
	v.SetDefault("output", string(defaults.Output))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the configuration schema").
				Wrap(err).
				BuildError()
		}
	}

	if err := loadDotEnv(v, opts); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load environment file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables as well as the config file").
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// resolveConfigFile picks the config file to read. It returns "" when none
// exists and no file was requested explicitly.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'buildgraph config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		return path, nil
	}

	dir := string(opts.ConfigDirPath)
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	for _, candidate := range []string{
		filepath.Join(dir, ConfigFileName),
		filepath.Join(string(opts.BaseDir), LocalConfigFileName),
	} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates a CUE config file against #Config and merges it
// into v, below environment overrides.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// loadDotEnv applies BUILDGRAPH_* entries of the dotenv file that the process
// environment does not already set.
func loadDotEnv(v *viper.Viper, opts LoadOptions) error {
	path := string(opts.EnvFile)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(string(opts.BaseDir), DotEnvFileName)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	prefix := EnvPrefix + "_"
	for name, value := range env {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(strings.ToLower(strings.TrimPrefix(name, prefix)), value)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to dir/config.cue
// unless the file already exists, and returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if fileExists(path) {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// buildgraph configuration\n\n")
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)
	fmt.Fprintf(&sb, "patterns: %s\n", cueList(cfg.Patterns))
	fmt.Fprintf(&sb, "exclude: %s\n", cueList(cfg.Exclude))
	fmt.Fprintf(&sb, "hash_files: %v\n", cfg.HashFiles)
	fmt.Fprintf(&sb, "duplicates: %q\n", cfg.Duplicates)
	fmt.Fprintf(&sb, "output: %q\n", cfg.Output)
	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
