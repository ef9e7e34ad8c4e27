// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
	"github.com/buildgraph/buildgraph/pkg/types"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// DuplicatesForbid rejects two packages with the same name in one directory.
	DuplicatesForbid Duplicates = "forbid"
	// DuplicatesAllow accepts them and leaves the choice to provides resolution.
	DuplicatesAllow Duplicates = "allow"

	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputTOML OutputFormat = "toml"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
	ErrInvalidLoadOptions = errors.New("invalid load options")
)

type (
	// LogLevel is the minimum level of log messages written to stderr.
	LogLevel string

	// Duplicates is the configuration spelling of buildgraph.DuplicatePolicy.
	Duplicates string

	// OutputFormat selects how commands print projects.
	OutputFormat string

	// Config is the effective configuration.
	Config struct {
		LogLevel LogLevel `json:"log_level" toml:"log_level" mapstructure:"log_level"`
		// Patterns are the doublestar globs selecting description files.
		Patterns []string `json:"patterns" toml:"patterns" mapstructure:"patterns"`
		// Exclude lists globs of paths discovery skips.
		Exclude []string `json:"exclude" toml:"exclude" mapstructure:"exclude"`
		// HashFiles fills in the digest of every defining file.
		HashFiles  bool         `json:"hash_files" toml:"hash_files" mapstructure:"hash_files"`
		Duplicates Duplicates   `json:"duplicates" toml:"duplicates" mapstructure:"duplicates"`
		Output     OutputFormat `json:"output" toml:"output" mapstructure:"output"`
		// Source is the config file the values were read from, empty when
		// none was found.
		Source string `json:"-" toml:"-" mapstructure:"-"`
	}

	// InvalidConfigError reports a configuration value outside its domain.
	InvalidConfigError struct {
		Field string
		Value string
		Allow []string
	}

	// InvalidLoadOptionsError reports unusable LoadOptions.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}
)

var (
	logLevels   = []string{string(LogLevelDebug), string(LogLevelInfo), string(LogLevelWarn), string(LogLevelError)}
	duplicates  = []string{string(DuplicatesForbid), string(DuplicatesAllow)}
	outputKinds = []string{string(OutputText), string(OutputJSON), string(OutputTOML)}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   LogLevelWarn,
		Patterns:   []string{"**/BUILD.cue", "**/BUILD.hcl"},
		Exclude:    []string{"**/.git/**", "**/node_modules/**"},
		HashFiles:  false,
		Duplicates: DuplicatesForbid,
		Output:     OutputText,
	}
}

// Validate returns the first value outside its domain.
func (c *Config) Validate() error {
	switch {
	case !slices.Contains(logLevels, string(c.LogLevel)):
		return &InvalidConfigError{Field: "log_level", Value: string(c.LogLevel), Allow: logLevels}
	case !slices.Contains(duplicates, string(c.Duplicates)):
		return &InvalidConfigError{Field: "duplicates", Value: string(c.Duplicates), Allow: duplicates}
	case !slices.Contains(outputKinds, string(c.Output)):
		return &InvalidConfigError{Field: "output", Value: string(c.Output), Allow: outputKinds}
	}
	return nil
}

// Level converts the log level for charmbracelet/log. Unknown levels map to
// warn.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// Policy converts the setting into a buildgraph.DuplicatePolicy.
func (d Duplicates) Policy() buildgraph.DuplicatePolicy {
	if d == DuplicatesAllow {
		return buildgraph.AllowDuplicates
	}
	return buildgraph.ForbidDuplicates
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q (must be one of %v)", e.Field, e.Value, e.Allow)
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidLoadOptionsError) Error() string {
	return fmt.Sprintf("invalid load options: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidLoadOptions followed by the field errors.
func (e *InvalidLoadOptionsError) Unwrap() []error {
	return append([]error{ErrInvalidLoadOptions}, e.FieldErrors...)
}

// Validate checks every path that is set.
func (o LoadOptions) Validate() error {
	var errs []error
	for _, p := range []types.FilesystemPath{o.ConfigFilePath, o.ConfigDirPath, o.BaseDir, o.EnvFile} {
		if !p.IsSet() {
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: errs}
	}
	return nil
}
