// SPDX-License-Identifier: MPL-2.0

package buildgraph

// LinkResult reports the requirements Link could not turn into edges.
type LinkResult struct {
	// Misses lists the non-optional requirements without any provider. Each
	// one disabled its requiring package.
	Misses []*UnsatisfiedRequirementError
	// Dropped lists optional requirements without any provider, by package.
	Dropped map[PackageID][]string
}

// Link resolves every declared requirement of reg into a Dependency edge.
//
// A requirement without provider disables its package when it is not
// optional and is dropped otherwise. A requirement with several providers
// resolves to the single enabled one; with more than one enabled provider Link
// fails with an AmbiguousProvidesError. Which providers are enabled is decided
// before any edge is attached, so the outcome does not depend on the order in
// which packages were declared.
func Link(reg *Registry, opts ...Option) (*LinkResult, error) {
	o := newOptions(opts)
	if err := reg.acquire(); err != nil {
		return nil, err
	}
	defer reg.release()

	res := &LinkResult{Dropped: make(map[PackageID][]string)}

	for _, p := range reg.packages {
		p.Requires = nil
		for _, req := range p.Requirements {
			if req.Optional || len(reg.provides[req.Target]) > 0 {
				continue
			}
			miss := &UnsatisfiedRequirementError{Package: p.Label(), Missing: req.Target}
			res.Misses = append(res.Misses, miss)
			p.disable(miss)
			o.logger.Debug("requirement has no provider", "package", p.Label(), "requires", req.Target)
		}
	}

	for _, p := range reg.packages {
		for _, req := range p.Requirements {
			target, err := reg.resolve(p, req.Target)
			if err != nil {
				return res, err
			}
			if target == nil {
				if req.Optional {
					res.Dropped[p.ID] = append(res.Dropped[p.ID], req.Target)
					o.logger.Debug("optional requirement dropped", "package", p.Label(), "requires", req.Target)
				}
				continue
			}
			p.Requires = append(p.Requires, retarget(req, target))
		}
	}

	o.logger.Debug("link finished", "packages", len(reg.packages), "misses", len(res.Misses))
	return res, nil
}

// resolve picks the provider of name for p. It returns nil when nothing
// provides name.
func (r *Registry) resolve(p *PrePackage, name string) (*PrePackage, error) {
	ids := r.provides[name]
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return r.packages[ids[0]], nil
	}

	var enabled []*PrePackage
	for _, id := range ids {
		if c := r.packages[id]; !c.Disabled {
			enabled = append(enabled, c)
		}
	}
	switch len(enabled) {
	case 0:
		// Every provider is disabled; the first one stands in so the sorter
		// can propagate or drop the edge like any other disabled target.
		return r.packages[ids[0]], nil
	case 1:
		return enabled[0], nil
	}

	candidates := make([]string, len(enabled))
	for i, c := range enabled {
		candidates[i] = c.Label()
	}
	return nil, &AmbiguousProvidesError{Provides: name, RequiredBy: p.Label(), Candidates: candidates}
}
