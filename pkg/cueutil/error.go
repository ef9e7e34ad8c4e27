// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrInvalidDocument is the sentinel error wrapped by DecodeError.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrFileTooLarge is returned by CheckFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// Problem is one error found in a document.
	Problem struct {
		// Path is the JSON-style path to the offending value, e.g.
		// "packages[0].requires[1].name". Empty for syntax errors.
		Path    string
		Message string
		Line    int
	}

	// DecodeError lists every problem CUE reported for one file.
	DecodeError struct {
		File     string
		Problems []Problem
		cause    error
	}
)

// Error implements the error interface.
func (e *DecodeError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.File, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// Is reports ErrInvalidDocument as a match for errors.Is().
func (e *DecodeError) Is(target error) bool { return target == ErrInvalidDocument }

// Unwrap returns the underlying CUE error.
func (e *DecodeError) Unwrap() error { return e.cause }

// String formats the problem as "path: message".
func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// FormatError converts a CUE error into a *DecodeError for filePath. Errors
// that do not come from CUE are wrapped with the file path only.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	de := &DecodeError{File: filePath, cause: err}
	for _, e := range cueErrs {
		path := formatPath(cueerrors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		p := Problem{Path: path, Message: msg}
		if pos := e.Position(); pos.IsValid() {
			p.Line = pos.Line()
		}
		de.Problems = append(de.Problems, p)
	}
	return de
}

// formatPath converts a CUE error path such as ["packages", "0", "name"] to
// "packages[0].name".
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[" + part + "]")
		case i > 0:
			b.WriteString("." + part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error wrapping ErrFileTooLarge when data exceeds
// maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes: %w",
			filename, len(data), maxSize, ErrFileTooLarge)
	}
	return nil
}
