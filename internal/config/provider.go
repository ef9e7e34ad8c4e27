// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/buildgraph/buildgraph/pkg/types"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath types.FilesystemPath
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath types.FilesystemPath
	// BaseDir is where the local config file and .env are looked up. It
	// defaults to the working directory.
	BaseDir types.FilesystemPath
	// EnvFile names a dotenv file to read instead of BaseDir/.env.
	EnvFile types.FilesystemPath
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider reading files and the
// environment.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested sources.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, opts)
}
