// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

type (
	// ParseResult contains the result of a successful parse.
	ParseResult[T any] struct {
		// Value is the decoded Go struct.
		Value *T
		// Unified is the user data unified with the schema definition.
		Unified cue.Value
		// Data is the user data alone. Its positions point into the parsed
		// file rather than the schema.
		Data cue.Value
	}

	// Position is a line and column in a parsed file.
	Position struct {
		File   string
		Line   int
		Column int
	}
)

// ParseAndDecode compiles schema, unifies data with the definition at
// schemaPath and decodes the result into a T.
//
// Errors in data come back as *DecodeError; errors in the schema itself are
// reported as internal errors.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if err := CheckFileSize(data, o.maxFileSize, filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	unified := schemaRoot.Unify(userValue)
	var validateOpts []cue.Option
	if o.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, filename)
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified, Data: userValue}, nil
}

// PositionOf returns where v is written in its source file. The zero
// Position means v has no source position.
func PositionOf(v cue.Value) Position {
	pos := v.Pos()
	if !pos.IsValid() {
		return Position{}
	}
	return Position{File: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}
