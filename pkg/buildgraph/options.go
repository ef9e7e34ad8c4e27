// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"io"

	"github.com/charmbracelet/log"
)

const (
	// ForbidDuplicates rejects a second package with the same name and dirname.
	ForbidDuplicates DuplicatePolicy = iota
	// AllowDuplicates accepts repeated (name, dirname) pairs; provides
	// resolution decides between them.
	AllowDuplicates
)

type (
	// DuplicatePolicy decides whether a (name, dirname) pair may be
	// registered more than once.
	DuplicatePolicy int

	// Option configures Link, Sort and Resolve.
	Option func(*options)

	options struct {
		logger     *log.Logger
		duplicates DuplicatePolicy
	}
)

// String returns the configuration spelling of the policy.
func (p DuplicatePolicy) String() string {
	if p == AllowDuplicates {
		return "allow"
	}
	return "forbid"
}

// WithLogger routes pipeline diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDuplicates sets the duplicate policy of the registry Resolve creates.
func WithDuplicates(p DuplicatePolicy) Option {
	return func(o *options) { o.duplicates = p }
}

func newOptions(opts []Option) options {
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
