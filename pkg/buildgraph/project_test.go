// SPDX-License-Identifier: MPL-2.0

package buildgraph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
)

func decl(name string, reqs ...buildgraph.Requirement) buildgraph.Declaration {
	return buildgraph.Declaration{
		Metadata:     buildgraph.Metadata{Name: name, Type: buildgraph.Library},
		Requirements: reqs,
	}
}

func resolve(t *testing.T, decls ...buildgraph.Declaration) *buildgraph.Project {
	t.Helper()
	proj, err := buildgraph.Resolve(decls)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return proj
}

func names(pkgs []*buildgraph.Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func TestResolve_Orders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		decls        []buildgraph.Declaration
		wantSorted   []string
		wantDisabled []string
	}{
		{
			name:       "empty project",
			decls:      nil,
			wantSorted: []string{},
		},
		{
			name: "dependency first and optional miss dropped",
			decls: []buildgraph.Declaration{
				decl("A", buildgraph.Require("B")),
				decl("B"),
				decl("C", buildgraph.Require("D", buildgraph.Optional())),
			},
			wantSorted: []string{"B", "A", "C"},
		},
		{
			name: "diamond",
			decls: []buildgraph.Declaration{
				decl("app", buildgraph.Require("left"), buildgraph.Require("right")),
				decl("left", buildgraph.Require("base")),
				decl("right", buildgraph.Require("base")),
				decl("base"),
			},
			wantSorted: []string{"base", "left", "right", "app"},
		},
		{
			name: "order-only edges still order",
			decls: []buildgraph.Declaration{
				decl("gen", buildgraph.Require("tool", buildgraph.NoLink())),
				decl("tool"),
			},
			wantSorted: []string{"tool", "gen"},
		},
		{
			name: "cycle disables members and hard dependents",
			decls: []buildgraph.Declaration{
				decl("A", buildgraph.Require("B")),
				decl("B", buildgraph.Require("A")),
				decl("C", buildgraph.Require("A")),
				decl("D"),
			},
			wantSorted:   []string{"D"},
			wantDisabled: []string{"A", "B", "C"},
		},
		{
			name: "optional edge to cycle member dropped",
			decls: []buildgraph.Declaration{
				decl("A", buildgraph.Require("B")),
				decl("B", buildgraph.Require("A")),
				decl("E", buildgraph.Require("A", buildgraph.Optional())),
			},
			wantSorted:   []string{"E"},
			wantDisabled: []string{"A", "B"},
		},
		{
			name: "missing requirement propagates transitively",
			decls: []buildgraph.Declaration{
				decl("top", buildgraph.Require("mid")),
				decl("mid", buildgraph.Require("leaf")),
				decl("leaf", buildgraph.Require("ghost")),
				decl("solo"),
			},
			wantSorted:   []string{"solo"},
			wantDisabled: []string{"top", "mid", "leaf"},
		},
		{
			name: "self requirement is a cycle",
			decls: []buildgraph.Declaration{
				decl("loop", buildgraph.Require("loop")),
			},
			wantSorted:   []string{},
			wantDisabled: []string{"loop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			proj := resolve(t, tt.decls...)
			if got := names(proj.Sorted); !slices.Equal(got, tt.wantSorted) {
				t.Errorf("Sorted = %v, want %v", got, tt.wantSorted)
			}
			if got := names(proj.Disabled); !slices.Equal(got, tt.wantDisabled) {
				t.Errorf("Disabled = %v, want %v", got, tt.wantDisabled)
			}
			if proj.Len() != len(tt.decls) {
				t.Errorf("Len() = %d, want %d", proj.Len(), len(tt.decls))
			}
		})
	}
}

func TestResolve_FinalIDsAreContinuous(t *testing.T) {
	t.Parallel()
	proj := resolve(t,
		decl("broken", buildgraph.Require("ghost")),
		decl("app", buildgraph.Require("lib")),
		decl("lib"),
		decl("tool"),
	)
	for i, p := range proj.Sorted {
		if p.ID != buildgraph.PackageID(i) {
			t.Errorf("%s: ID = %d, want %d", p.Name, p.ID, i)
		}
	}
	broken, _ := proj.Lookup("broken")
	if broken.ID != broken.RegistrationID || broken.RegistrationID != 0 {
		t.Errorf("disabled package keeps its registration id, got ID=%d RegistrationID=%d", broken.ID, broken.RegistrationID)
	}
	app, _ := proj.Lookup("app")
	if app.RegistrationID != 1 {
		t.Errorf("app RegistrationID = %d, want 1", app.RegistrationID)
	}
}

func TestResolve_DependenciesPrecedeDependents(t *testing.T) {
	t.Parallel()
	proj := resolve(t,
		decl("d", buildgraph.Require("b"), buildgraph.Require("c")),
		decl("c", buildgraph.Require("a")),
		decl("b", buildgraph.Require("a"), buildgraph.Require("x", buildgraph.Optional())),
		decl("a"),
		decl("e", buildgraph.Require("d")),
	)
	pos := make(map[*buildgraph.Package]int, len(proj.Sorted))
	for i, p := range proj.Sorted {
		pos[p] = i
	}
	for _, p := range proj.Sorted {
		for _, d := range p.Requires {
			if d.Target.Disabled {
				t.Errorf("%s has an edge to disabled %s", p.Name, d.Target.Name)
			}
			if pos[d.Target] >= pos[p] {
				t.Errorf("%s sorted before its dependency %s", p.Name, d.Target.Name)
			}
		}
	}
}

func declNames(decls []buildgraph.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name
	}
	return out
}

func disabledDecl(d buildgraph.Declaration) buildgraph.Declaration {
	d.Disabled = true
	return d
}

// orderings returns every permutation of decls.
func orderings(decls []buildgraph.Declaration) [][]buildgraph.Declaration {
	if len(decls) <= 1 {
		return [][]buildgraph.Declaration{slices.Clone(decls)}
	}
	var out [][]buildgraph.Declaration
	for _, rest := range orderings(decls[1:]) {
		for i := 0; i <= len(rest); i++ {
			out = append(out, slices.Insert(slices.Clone(rest), i, decls[0]))
		}
	}
	return out
}

func TestResolve_IndependentOfRegistrationOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		decls        []buildgraph.Declaration
		wantDisabled []string
	}{
		{
			name: "optional edge back to a declared-disabled package",
			decls: []buildgraph.Declaration{
				disabledDecl(decl("a", buildgraph.Require("b"))),
				decl("b", buildgraph.Require("a", buildgraph.Optional())),
			},
			wantDisabled: []string{"a"},
		},
		{
			name: "optional edge back to a package with a missing requirement",
			decls: []buildgraph.Declaration{
				decl("a", buildgraph.Require("b"), buildgraph.Require("ghost")),
				decl("b", buildgraph.Require("a", buildgraph.Optional())),
			},
			wantDisabled: []string{"a"},
		},
		{
			name: "optional edge into a cycle",
			decls: []buildgraph.Declaration{
				decl("z", buildgraph.Require("y"), buildgraph.Require("x")),
				decl("y", buildgraph.Require("w", buildgraph.Optional())),
				decl("x", buildgraph.Require("y")),
				decl("w", buildgraph.Require("v")),
				decl("v", buildgraph.Require("w")),
			},
			wantDisabled: []string{"v", "w"},
		},
		{
			name: "hard and optional dependents of a cycle",
			decls: []buildgraph.Declaration{
				decl("A", buildgraph.Require("B")),
				decl("B", buildgraph.Require("A")),
				decl("C", buildgraph.Require("A")),
				decl("E", buildgraph.Require("A", buildgraph.Optional())),
			},
			wantDisabled: []string{"A", "B", "C"},
		},
		{
			name: "optional edge closing a loop of enabled packages",
			decls: []buildgraph.Declaration{
				decl("p", buildgraph.Require("q")),
				decl("q", buildgraph.Require("p", buildgraph.Optional())),
				decl("r"),
			},
			wantDisabled: []string{"p", "q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, decls := range orderings(tt.decls) {
				proj := resolve(t, decls...)
				order := declNames(decls)

				if got := slices.Sorted(slices.Values(names(proj.Disabled))); !slices.Equal(got, tt.wantDisabled) {
					t.Errorf("registration %v: disabled = %v, want %v", order, got, tt.wantDisabled)
				}
				pos := make(map[string]int, len(proj.Sorted))
				for i, p := range proj.Sorted {
					pos[p.Name] = i
				}
				for _, p := range proj.Sorted {
					for _, d := range p.Requires {
						if at, ok := pos[d.Target.Name]; !ok || at >= pos[p.Name] {
							t.Errorf("registration %v: %s sorted before its dependency %s", order, p.Name, d.Target.Name)
						}
					}
				}
			}
		})
	}
}

func TestResolve_RepeatedRunsAgree(t *testing.T) {
	t.Parallel()
	decls := []buildgraph.Declaration{
		decl("z", buildgraph.Require("y"), buildgraph.Require("x")),
		decl("y", buildgraph.Require("w", buildgraph.Optional())),
		decl("x", buildgraph.Require("y")),
		decl("w", buildgraph.Require("v")),
		decl("v", buildgraph.Require("w")),
	}
	first := resolve(t, decls...)
	if got := names(first.Sorted); !slices.Equal(got, []string{"y", "x", "z"}) {
		t.Fatalf("Sorted = %v, want [y x z]", got)
	}
	for range 5 {
		again := resolve(t, decls...)
		if !slices.Equal(names(again.Sorted), names(first.Sorted)) {
			t.Fatalf("order changed: %v vs %v", names(again.Sorted), names(first.Sorted))
		}
		if !slices.Equal(names(again.Disabled), names(first.Disabled)) {
			t.Fatalf("disabled set changed: %v vs %v", names(again.Disabled), names(first.Disabled))
		}
	}
}

func TestResolve_DisabledReasons(t *testing.T) {
	t.Parallel()
	off := decl("legacy")
	off.Disabled = true

	proj := resolve(t,
		decl("A", buildgraph.Require("B")),
		decl("B", buildgraph.Require("A")),
		decl("C", buildgraph.Require("A")),
		decl("app", buildgraph.Require("legacy")),
		off,
		decl("tool", buildgraph.Require("ghost")),
	)

	tests := []struct {
		name string
		want error
	}{
		{"A", buildgraph.ErrDependencyCycle},
		{"B", buildgraph.ErrDependencyCycle},
		{"C", buildgraph.ErrDisabledDependency},
		{"app", buildgraph.ErrDisabledDependency},
		{"legacy", buildgraph.ErrDisabledByDeclaration},
		{"tool", buildgraph.ErrUnsatisfiedRequirement},
	}
	for _, tt := range tests {
		p, ok := proj.Lookup(tt.name)
		if !ok {
			t.Fatalf("%s not in project", tt.name)
		}
		if !p.Disabled {
			t.Errorf("%s should be disabled", tt.name)
			continue
		}
		if !errors.Is(p.Reason, tt.want) {
			t.Errorf("%s: reason = %v, want %v", tt.name, p.Reason, tt.want)
		}
	}

	cycles := proj.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle, got %d", len(cycles))
	}
	if got, want := cycles[0].Error(), "dependency cycle: A -> B -> A"; got != want {
		t.Errorf("cycle error = %q, want %q", got, want)
	}
}

func TestResolve_OverlappingCyclesAreOneGroup(t *testing.T) {
	t.Parallel()
	proj := resolve(t,
		decl("A", buildgraph.Require("B")),
		decl("B", buildgraph.Require("A"), buildgraph.Require("C")),
		decl("C", buildgraph.Require("B")),
	)
	cycles := proj.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle group, got %d", len(cycles))
	}
	if got, want := cycles[0].Error(), "dependency cycle among A, B, C"; got != want {
		t.Errorf("cycle error = %q, want %q", got, want)
	}
}

func TestResolve_AmbiguousProvidesIsFatal(t *testing.T) {
	t.Parallel()
	a := decl("foo-a")
	a.Provides = "foo"
	b := decl("foo-b")
	b.Provides = "foo"

	_, err := buildgraph.Resolve([]buildgraph.Declaration{a, b, decl("c", buildgraph.Require("foo"))})
	if !errors.Is(err, buildgraph.ErrAmbiguousProvides) {
		t.Fatalf("expected ErrAmbiguousProvides, got %v", err)
	}
}

func TestResolve_DuplicatePolicy(t *testing.T) {
	t.Parallel()
	decls := []buildgraph.Declaration{decl("util"), decl("util")}

	if _, err := buildgraph.Resolve(decls); !errors.Is(err, buildgraph.ErrDuplicateDefinition) {
		t.Errorf("forbid: expected ErrDuplicateDefinition, got %v", err)
	}
	proj, err := buildgraph.Resolve(decls, buildgraph.WithDuplicates(buildgraph.AllowDuplicates))
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if len(proj.Sorted) != 2 {
		t.Errorf("allow: expected both packages sorted, got %v", proj.Names())
	}
}

func TestProject_Explain(t *testing.T) {
	t.Parallel()
	proj := resolve(t,
		decl("app", buildgraph.Require("net")),
		decl("net", buildgraph.Require("tls")),
		decl("tls", buildgraph.Require("crypto")),
		decl("lib"),
	)

	app, _ := proj.Lookup("app")
	chain := proj.Explain(app)
	if len(chain) != 3 {
		t.Fatalf("expected 3 reasons, got %d: %v", len(chain), chain)
	}
	if !errors.Is(chain[0], buildgraph.ErrDisabledDependency) || !errors.Is(chain[1], buildgraph.ErrDisabledDependency) {
		t.Errorf("expected two dependency links, got %v", chain[:2])
	}
	var miss *buildgraph.UnsatisfiedRequirementError
	if !errors.As(chain[2], &miss) || miss.Missing != "crypto" {
		t.Errorf("root cause = %v, want missing crypto", chain[2])
	}

	lib, _ := proj.Lookup("lib")
	if got := proj.Explain(lib); got != nil {
		t.Errorf("buildable package should have no explanation, got %v", got)
	}
}

func TestProject_ExplainFollowsDuplicateByID(t *testing.T) {
	t.Parallel()
	off := decl("lib")
	off.Provides = "x"
	off.Disabled = true
	broken := decl("lib", buildgraph.Require("ghost"))
	broken.Provides = "y"

	proj, err := buildgraph.Resolve([]buildgraph.Declaration{
		decl("app", buildgraph.Require("y"), buildgraph.Require("x")),
		off,
		broken,
	}, buildgraph.WithDuplicates(buildgraph.AllowDuplicates))
	if err != nil {
		t.Fatal(err)
	}

	app, _ := proj.Lookup("app")
	var dd *buildgraph.DisabledDependencyError
	if !errors.As(app.Reason, &dd) {
		t.Fatalf("app reason = %v, want a disabled dependency", app.Reason)
	}
	chain := proj.Explain(app)
	if len(chain) != 2 {
		t.Fatalf("expected 2 reasons, got %d: %v", len(chain), chain)
	}
	if dd.DependencyID != 1 {
		t.Errorf("DependencyID = %d, want 1 (the declared-disabled lib)", dd.DependencyID)
	}
	if !errors.Is(chain[1], buildgraph.ErrDisabledByDeclaration) {
		t.Errorf("root cause = %v, want disabled by declaration", chain[1])
	}
}

func TestPackage_Edges(t *testing.T) {
	t.Parallel()
	proj := resolve(t,
		decl("app",
			buildgraph.Require("lib"),
			buildgraph.Require("gone", buildgraph.Optional()),
			buildgraph.Require("macros", buildgraph.AsSyntax(), buildgraph.NoLink()),
		),
		decl("lib"),
		decl("macros"),
		decl("gone", buildgraph.Require("ghost")),
	)
	app, _ := proj.Lookup("app")
	lib, _ := proj.Lookup("lib")
	gone, _ := proj.Lookup("gone")

	if got := app.DependencyNames(); !slices.Equal(got, []string{"lib", "macros"}) {
		t.Errorf("DependencyNames = %v, want [lib macros]", got)
	}
	if !app.DependsOn(lib) || app.DependsOn(gone) {
		t.Error("DependsOn does not reflect the effective edges")
	}
	if got := app.Requires[1].Kind(); got != "syntax" {
		t.Errorf("Kind = %q, want %q", got, "syntax")
	}
}

func TestSort_RepeatableOnSameRegistry(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	for _, d := range []buildgraph.Declaration{
		decl("A", buildgraph.Require("B")),
		decl("B", buildgraph.Require("A")),
		decl("C", buildgraph.Require("A", buildgraph.Optional())),
	} {
		id, err := reg.Register(d.Metadata)
		if err != nil {
			t.Fatal(err)
		}
		if err := reg.Require(id, d.Requirements...); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := buildgraph.Link(reg); err != nil {
		t.Fatal(err)
	}

	first, err := buildgraph.Sort(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := buildgraph.Sort(reg)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first.Names(), second.Names()) || !slices.Equal(names(first.Disabled), names(second.Disabled)) {
		t.Errorf("second sort differs: %v/%v vs %v/%v",
			first.Names(), names(first.Disabled), second.Names(), names(second.Disabled))
	}
	a, _ := second.Lookup("A")
	if !errors.Is(a.Reason, buildgraph.ErrDependencyCycle) {
		t.Errorf("A reason after resort = %v, want cycle", a.Reason)
	}
}

func TestResolve_FilesAreCopied(t *testing.T) {
	t.Parallel()
	d := decl("lib")
	d.Files = buildgraph.DigestSet{{Path: "lib/BUILD.cue", Digest: "abc"}}
	proj := resolve(t, d)

	d.Files[0].Digest = "changed"
	lib, _ := proj.Lookup("lib")
	if lib.Files[0].Digest != "abc" {
		t.Errorf("project shares Files with the declaration: %v", lib.Files)
	}
}
