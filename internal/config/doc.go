// SPDX-License-Identifier: MPL-2.0

// Package config handles buildgraph configuration using Viper with CUE as the
// file format.
//
// Values are layered, later sources winning: built-in defaults, the CUE
// config file, a .env file, and BUILDGRAPH_* environment variables. The file
// is ~/.config/buildgraph/config.cue (or the platform equivalent), falling
// back to buildgraph.config.cue in the working directory. Files are validated
// against the embedded config_schema.cue.
package config
