// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"errors"
	"slices"

	"github.com/buildgraph/buildgraph/internal/dag"
)

// Sort orders the linked packages of reg and partitions them into a Project.
//
// Which packages end up disabled depends only on the graph, not on the
// registration order: every member of a cycle is disabled, disabling
// propagates through non-optional edges and optional edges to disabled
// packages are dropped. Buildable packages are then visited in registration
// order and their edges in declaration order, so identical input always
// yields the same order. Buildable packages receive
// final ids equal to their position in Project.Sorted.
//
// Sort never fails because of the graph's shape. It only returns
// ErrRegistryBusy when another pass holds the registry.
func Sort(reg *Registry, opts ...Option) (*Project, error) {
	o := newOptions(opts)
	if err := reg.acquire(); err != nil {
		return nil, err
	}
	defer reg.release()

	byNode := make([]*PrePackage, len(reg.packages))
	g := dag.New(len(reg.packages))
	for _, p := range reg.packages {
		if p.Disabled && sortedOut(p.Reason) {
			// Left over from an earlier sort of the same registry.
			p.Disabled, p.Reason = false, nil
		}
		byNode[p.node] = p
	}
	for _, p := range reg.packages {
		if p.Disabled {
			if err := g.Seed(p.node); err != nil {
				return nil, err
			}
		}
		for _, d := range p.Requires {
			if err := g.AddEdge(p.node, d.Target.node, d.Optional); err != nil {
				return nil, err
			}
		}
	}

	res := g.Sort()

	cycles := make(map[*dag.Cycle]*DependencyCycleError, len(res.Cycles))
	for _, c := range res.Cycles {
		labels := make([]string, len(c.Members))
		for i, n := range c.Members {
			labels[i] = byNode[n].Label()
		}
		cycles[c] = &DependencyCycleError{Members: labels, Ring: c.Ring}
		o.logger.Warn("dependency cycle", "members", labels)
	}
	for _, n := range res.Disabled {
		p := byNode[n]
		switch c := g.Cause(n); c.Kind {
		case dag.CauseCycle:
			p.disable(cycles[c.Cycle])
		case dag.CauseDependency:
			via := byNode[c.Via]
			p.disable(&DisabledDependencyError{Package: p.Label(), Dependency: via.Label(), DependencyID: via.ID})
		}
	}

	proj := freeze(g, res, byNode)
	o.logger.Debug("sort finished", "sorted", len(proj.Sorted), "disabled", len(proj.Disabled), "cycles", len(res.Cycles))
	return proj, nil
}

// sortedOut reports whether a reason was recorded by Sort rather than by the
// registry or Link.
func sortedOut(reason error) bool {
	return errors.Is(reason, ErrDependencyCycle) || errors.Is(reason, ErrDisabledDependency)
}

// freeze converts the pre-phase packages into final packages.
func freeze(g *dag.Graph, res *dag.Result, byNode []*PrePackage) *Project {
	final := make([]*Package, len(byNode))
	for n, p := range byNode {
		meta := p.Metadata
		meta.Files = slices.Clone(p.Files)
		final[n] = &Package{
			Metadata:       meta,
			ID:             p.ID,
			RegistrationID: p.ID,
			Disabled:       p.Disabled,
			Reason:         p.Reason,
		}
	}

	for n, p := range byNode {
		fp := final[n]
		for i, d := range p.Requires {
			if g.Dropped(n, i) {
				continue
			}
			fp.Requires = append(fp.Requires, retarget(d, final[d.Target.node]))
		}
	}

	proj := &Project{
		Sorted:   make([]*Package, 0, len(res.Order)),
		Disabled: make([]*Package, 0, len(res.Disabled)),
	}
	for i, n := range res.Order {
		final[n].ID = PackageID(i)
		proj.Sorted = append(proj.Sorted, final[n])
	}
	for _, n := range res.Disabled {
		proj.Disabled = append(proj.Disabled, final[n])
	}
	return proj
}
