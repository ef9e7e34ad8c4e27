// SPDX-License-Identifier: MPL-2.0

package buildgraph

import "slices"

type (
	// Metadata holds the fields a package carries through both phases.
	Metadata struct {
		// Name is the declared name. It need not be unique; see Provides.
		Name string
		// Dirname locates the package's defining files. Not interpreted.
		Dirname string
		// SourceKind names the description dialect that produced the package.
		SourceKind string
		// Provides is the logical name the package exports for resolution.
		// Registration defaults it to Name.
		Provides string
		Type     PackageType
		Location Location
		// Files lists the files whose change invalidates the definition.
		Files DigestSet
		// Plugin is build-driver state. The core only forwards it.
		Plugin any
	}

	// Declaration is what a description loader hands to Resolve: a package and
	// its requirements in declaration order.
	Declaration struct {
		Metadata
		Requirements []Requirement
		// Disabled declares the package switched off in its description.
		Disabled bool
	}

	// PrePackage is a package whose requirements are still being resolved.
	// Only the registry, Link and Sort mutate it.
	PrePackage struct {
		Metadata
		// ID is the registration id, unique within the registry.
		ID       PackageID
		Disabled bool
		// Reason explains why the package is disabled.
		Reason error
		// Requirements are the declared requirements, by name.
		Requirements []Requirement
		// Requires holds the resolved edges in declaration order.
		Requires []Dependency[*PrePackage]

		node int
	}

	// Package is a package after sorting. Its requirement list is closed: for a
	// buildable package it contains only buildable targets.
	Package struct {
		Metadata
		// ID is the position in Project.Sorted for buildable packages and the
		// registration id for disabled ones.
		ID PackageID
		// RegistrationID is the id assigned by the registry.
		RegistrationID PackageID
		Disabled       bool
		Reason         error
		// Requires holds the effective edges. Optional edges to disabled
		// targets are absent.
		Requires []Dependency[*Package]
	}
)

// Label returns a short identifier for diagnostics: the name, qualified by the
// directory when one is known.
func (m Metadata) Label() string {
	if m.Dirname == "" || m.Dirname == "." {
		return m.Name
	}
	return m.Name + " (" + m.Dirname + ")"
}

// disable records the first reason a package is disabled.
func (p *PrePackage) disable(reason error) {
	if p.Disabled {
		return
	}
	p.Disabled = true
	p.Reason = reason
}

// DependencyNames returns the provides of the package's effective targets.
func (p *Package) DependencyNames() []string {
	out := make([]string, 0, len(p.Requires))
	for _, d := range p.Requires {
		out = append(out, d.Target.Provides)
	}
	return out
}

// DependsOn reports whether p has an effective edge to other.
func (p *Package) DependsOn(other *Package) bool {
	return slices.ContainsFunc(p.Requires, func(d Dependency[*Package]) bool {
		return d.Target == other
	})
}
