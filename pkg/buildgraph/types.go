// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Program produces an executable.
	Program PackageType = iota
	// Test produces an executable that is run as a test.
	Test
	// Library produces a linkable library.
	Library
	// Objects produces compiled objects without packaging them.
	Objects
	// Syntax produces a syntax extension used while preprocessing dependents.
	Syntax
	// Rules produces nothing by itself and only carries build rules.
	Rules
)

// ErrInvalidPackageType is the sentinel error wrapped by InvalidPackageTypeError.
var ErrInvalidPackageType = errors.New("invalid package type")

type (
	// PackageID identifies a package within one registry.
	PackageID int

	// PackageType tags the kind of artifact a package produces. The core only
	// carries the tag; build drivers interpret it.
	PackageType int

	// InvalidPackageTypeError is returned when a package type is not recognized.
	// It wraps ErrInvalidPackageType for errors.Is() compatibility.
	InvalidPackageTypeError struct {
		Value string
	}

	// Location points at the declaration of a package for diagnostics.
	Location struct {
		File   string `json:"file,omitempty" toml:"file,omitempty"`
		Line   int    `json:"line,omitempty" toml:"line,omitempty"`
		Column int    `json:"column,omitempty" toml:"column,omitempty"`
	}

	// Digest is an opaque content digest. The empty digest means the file
	// has not been hashed.
	Digest string

	// DefiningFile is one file whose change invalidates a package definition.
	DefiningFile struct {
		Path   string `json:"path" toml:"path"`
		Digest Digest `json:"digest,omitempty" toml:"digest,omitempty"`
	}

	// DigestSet is the ordered set of files defining a package.
	DigestSet []DefiningFile
)

var packageTypeNames = [...]string{
	Program: "program",
	Test:    "test",
	Library: "library",
	Objects: "objects",
	Syntax:  "syntax",
	Rules:   "rules",
}

// ParsePackageType converts a lower-case type name into a PackageType.
func ParsePackageType(s string) (PackageType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range packageTypeNames {
		if n == name {
			return PackageType(i), nil
		}
	}
	return 0, &InvalidPackageTypeError{Value: s}
}

// String returns the lower-case name of the type.
func (t PackageType) String() string {
	if t.Validate() != nil {
		return "PackageType(" + strconv.Itoa(int(t)) + ")"
	}
	return packageTypeNames[t]
}

// Validate returns an error if t is not one of the declared types.
func (t PackageType) Validate() error {
	if t < Program || t > Rules {
		return &InvalidPackageTypeError{Value: strconv.Itoa(int(t))}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t PackageType) MarshalText() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PackageType) UnmarshalText(b []byte) error {
	v, err := ParsePackageType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Error implements the error interface.
func (e *InvalidPackageTypeError) Error() string {
	return fmt.Sprintf("invalid package type %q (must be one of %s)", e.Value, strings.Join(packageTypeNames[:], ", "))
}

// Unwrap returns ErrInvalidPackageType for errors.Is() compatibility.
func (e *InvalidPackageTypeError) Unwrap() error { return ErrInvalidPackageType }

// String formats the location as file:line:column, omitting unknown parts.
func (l Location) String() string {
	switch {
	case l.File == "":
		return "<unknown>"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// IsZero reports whether the digest is absent.
func (d Digest) IsZero() bool { return d == "" }

// Hashed reports whether the file carries a digest.
func (f DefiningFile) Hashed() bool { return !f.Digest.IsZero() }

// Equal reports whether both sets list the same files with the same digests
// in the same order.
func (s DigestSet) Equal(other DigestSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Paths returns the file paths in order.
func (s DigestSet) Paths() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Path
	}
	return out
}
