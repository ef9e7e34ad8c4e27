// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"fmt"
	"strings"
	"sync/atomic"
)

type (
	// Registry owns the declared packages of one project and assigns their ids.
	Registry struct {
		packages   []*PrePackage
		provides   map[string][]PackageID
		defined    map[definitionKey]PackageID
		duplicates DuplicatePolicy
		busy       atomic.Bool
	}

	// RegistryOption configures a Registry.
	RegistryOption func(*Registry)

	definitionKey struct {
		name    string
		dirname string
	}
)

// WithDuplicatePolicy sets how repeated (name, dirname) pairs are handled.
// The default is ForbidDuplicates.
func WithDuplicatePolicy(p DuplicatePolicy) RegistryOption {
	return func(r *Registry) { r.duplicates = p }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		provides: make(map[string][]PackageID),
		defined:  make(map[definitionKey]PackageID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a pre-phase package and returns its id. Ids start at zero
// and increase by one per registration. Provides defaults to the name.
func (r *Registry) Register(meta Metadata) (PackageID, error) {
	if strings.TrimSpace(meta.Name) == "" {
		return 0, &InvalidRegistrationError{Reason: "empty package name"}
	}
	if err := meta.Type.Validate(); err != nil {
		return 0, &InvalidRegistrationError{Name: meta.Name, Reason: err.Error()}
	}
	if meta.Provides == "" {
		meta.Provides = meta.Name
	}

	key := definitionKey{name: meta.Name, dirname: meta.Dirname}
	if first, ok := r.defined[key]; ok && r.duplicates == ForbidDuplicates {
		return 0, &DuplicateDefinitionError{
			Name:    meta.Name,
			Dirname: meta.Dirname,
			First:   r.packages[first].Location,
			Second:  meta.Location,
		}
	}

	id := PackageID(len(r.packages))
	r.packages = append(r.packages, &PrePackage{Metadata: meta, ID: id, node: int(id)})
	r.provides[meta.Provides] = append(r.provides[meta.Provides], id)
	if _, ok := r.defined[key]; !ok {
		r.defined[key] = id
	}
	return id, nil
}

// Require appends declared requirements to a package, keeping their order.
func (r *Registry) Require(id PackageID, reqs ...Requirement) error {
	p, ok := r.Package(id)
	if !ok {
		return fmt.Errorf("require on package %d: %w", id, ErrUnknownPackage)
	}
	p.Requirements = append(p.Requirements, reqs...)
	return nil
}

// Disable switches a package off before linking, recording reason. A nil
// reason records ErrDisabledByDeclaration.
func (r *Registry) Disable(id PackageID, reason error) error {
	p, ok := r.Package(id)
	if !ok {
		return fmt.Errorf("disable package %d: %w", id, ErrUnknownPackage)
	}
	if reason == nil {
		reason = ErrDisabledByDeclaration
	}
	p.disable(reason)
	return nil
}

// LookupByProvides returns the ids of every package exporting name, in
// registration order. Disabled packages are included.
func (r *Registry) LookupByProvides(name string) []PackageID {
	return append([]PackageID(nil), r.provides[name]...)
}

// Package returns the package registered under id.
func (r *Registry) Package(id PackageID) (*PrePackage, bool) {
	if id < 0 || int(id) >= len(r.packages) {
		return nil, false
	}
	return r.packages[id], true
}

// Packages returns every package in registration order.
func (r *Registry) Packages() []*PrePackage {
	return append([]*PrePackage(nil), r.packages...)
}

// Len returns the number of registered packages.
func (r *Registry) Len() int { return len(r.packages) }

// acquire marks the start of a link or sort pass.
func (r *Registry) acquire() error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrRegistryBusy
	}
	return nil
}

func (r *Registry) release() { r.busy.Store(false) }
