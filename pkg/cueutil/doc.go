// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Build descriptions and the configuration file go through the same three
// steps:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode into a Go struct
//
// # Usage
//
//	//go:embed description_schema.cue
//	var schema []byte
//
//	result, err := cueutil.ParseAndDecode[description](
//	    schema,
//	    data,
//	    "#Description",
//	    cueutil.WithFilename("BUILD.cue"),
//	)
//	if err != nil {
//	    return nil, err // *cueutil.DecodeError with CUE paths
//	}
//
// Decoding failures are reported as a [DecodeError] listing every problem
// with its JSON-style path, e.g. packages[2].requires[0].name.
package cueutil
