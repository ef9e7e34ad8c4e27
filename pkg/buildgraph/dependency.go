// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"maps"
	"strings"
)

type (
	// Options is a configuration bag threaded through a single edge to the
	// build driver. Recognized keys are defined by the description dialect.
	Options map[string]string

	// Dependency is one edge from a package to its Target. T is string while
	// the edge is a declared requirement and a package pointer once resolved.
	Dependency[T any] struct {
		Target T
		// Link means the target's artifact is linked into the dependent's,
		// rather than merely built before it.
		Link bool
		// Syntax marks a preprocessing-time requirement.
		Syntax bool
		// Optional edges are dropped instead of disabling the dependent when
		// the target is missing or disabled.
		Optional bool
		Options  Options
	}

	// Requirement is a declared dependency naming the provides of its target.
	Requirement = Dependency[string]

	// RequirementOption adjusts a requirement built with Require.
	RequirementOption func(*Requirement)
)

// Require declares a linked, non-optional requirement on the package that
// provides name.
func Require(name string, opts ...RequirementOption) Requirement {
	r := Requirement{Target: name, Link: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Optional makes the requirement optional.
func Optional() RequirementOption {
	return func(r *Requirement) { r.Optional = true }
}

// NoLink declares an order-only requirement.
func NoLink() RequirementOption {
	return func(r *Requirement) { r.Link = false }
}

// AsSyntax marks the requirement as a syntax extension.
func AsSyntax() RequirementOption {
	return func(r *Requirement) { r.Syntax = true }
}

// WithOptions attaches an options bag to the requirement. The map is copied.
func WithOptions(opts Options) RequirementOption {
	return func(r *Requirement) { r.Options = maps.Clone(opts) }
}

// Kind summarizes the edge flags, e.g. "link,optional" or "order".
func (d Dependency[T]) Kind() string {
	var parts []string
	if d.Link {
		parts = append(parts, "link")
	}
	if d.Syntax {
		parts = append(parts, "syntax")
	}
	if len(parts) == 0 {
		parts = append(parts, "order")
	}
	if d.Optional {
		parts = append(parts, "optional")
	}
	return strings.Join(parts, ",")
}

// retarget copies the edge flags onto a new target.
func retarget[T, U any](d Dependency[T], target U) Dependency[U] {
	return Dependency[U]{
		Target:   target,
		Link:     d.Link,
		Syntax:   d.Syntax,
		Optional: d.Optional,
		Options:  maps.Clone(d.Options),
	}
}
