// SPDX-License-Identifier: MPL-2.0

package buildgraph

import "errors"

// Project is the result of a sort: the buildable packages in build order and
// the packages that cannot be built. The project owns both slices.
type Project struct {
	// Sorted lists buildable packages, each after all of its dependencies.
	Sorted []*Package
	// Disabled lists excluded packages in registration order.
	Disabled []*Package
}

// Resolve registers decls in order, links their requirements and sorts them.
// It fails only on contradictions in the declarations themselves: a
// forbidden duplicate, an invalid registration or an ambiguous provides.
func Resolve(decls []Declaration, opts ...Option) (*Project, error) {
	o := newOptions(opts)
	reg := NewRegistry(WithDuplicatePolicy(o.duplicates))
	for _, d := range decls {
		id, err := reg.Register(d.Metadata)
		if err != nil {
			return nil, err
		}
		if err := reg.Require(id, d.Requirements...); err != nil {
			return nil, err
		}
		if d.Disabled {
			if err := reg.Disable(id, nil); err != nil {
				return nil, err
			}
		}
	}
	if _, err := Link(reg, opts...); err != nil {
		return nil, err
	}
	return Sort(reg, opts...)
}

// Len returns the total number of packages in the project.
func (p *Project) Len() int { return len(p.Sorted) + len(p.Disabled) }

// Lookup returns the first package named name, searching buildable packages
// before disabled ones.
func (p *Project) Lookup(name string) (*Package, bool) {
	for _, list := range [][]*Package{p.Sorted, p.Disabled} {
		for _, pkg := range list {
			if pkg.Name == name {
				return pkg, true
			}
		}
	}
	return nil, false
}

// Names returns the names of the buildable packages in build order.
func (p *Project) Names() []string {
	out := make([]string, len(p.Sorted))
	for i, pkg := range p.Sorted {
		out[i] = pkg.Name
	}
	return out
}

// Cycles returns each dependency cycle once, in the order of the first
// disabled member.
func (p *Project) Cycles() []*DependencyCycleError {
	var out []*DependencyCycleError
	seen := make(map[*DependencyCycleError]bool)
	for _, pkg := range p.Disabled {
		var ce *DependencyCycleError
		if errors.As(pkg.Reason, &ce) && !seen[ce] {
			seen[ce] = true
			out = append(out, ce)
		}
	}
	return out
}

// Explain follows the reasons of a disabled package down to the root cause.
// The first element is pkg's own reason; each following one belongs to the
// disabled dependency that caused the previous. It returns nil for a
// buildable package.
func (p *Project) Explain(pkg *Package) []error {
	var chain []error
	seen := make(map[*Package]bool)
	for cur := pkg; cur != nil && cur.Disabled && !seen[cur]; {
		seen[cur] = true
		chain = append(chain, cur.Reason)

		var dd *DisabledDependencyError
		if !errors.As(cur.Reason, &dd) {
			break
		}
		next := cur
		cur = nil
		for _, d := range next.Requires {
			if d.Target.Disabled && !d.Optional && d.Target.RegistrationID == dd.DependencyID {
				cur = d.Target
				break
			}
		}
	}
	return chain
}
