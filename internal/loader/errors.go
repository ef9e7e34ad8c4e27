// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescription is the sentinel error wrapped by DescriptionError.
	ErrInvalidDescription = errors.New("invalid build description")
	// ErrUnsupportedDialect is returned for files no dialect understands.
	ErrUnsupportedDialect = errors.New("unsupported description dialect")
	// ErrInvalidPattern is returned for malformed discovery globs.
	ErrInvalidPattern = errors.New("invalid glob pattern")
	// ErrNoDescriptions is returned when discovery finds nothing to load.
	ErrNoDescriptions = errors.New("no build descriptions found")
)

// DescriptionError reports a description file that could not be decoded.
// Package is set when the problem is local to one package declaration.
type DescriptionError struct {
	File    string
	Package string
	Err     error
}

// Error implements the error interface.
func (e *DescriptionError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: package %q: %v", e.File, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Is reports ErrInvalidDescription as a match for errors.Is().
func (e *DescriptionError) Is(target error) bool { return target == ErrInvalidDescription }

// Unwrap returns the underlying decoding error.
func (e *DescriptionError) Unwrap() error { return e.Err }
