// SPDX-License-Identifier: MPL-2.0

package buildgraph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/buildgraph/buildgraph/pkg/buildgraph"
)

func TestRegister_AssignsIncreasingIDs(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	for want, name := range []string{"a", "b", "c"} {
		id, err := reg.Register(buildgraph.Metadata{Name: name, Type: buildgraph.Library})
		if err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
		if id != buildgraph.PackageID(want) {
			t.Errorf("Register(%q) = %d, want %d", name, id, want)
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestRegister_ProvidesDefaultsToName(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	id, err := reg.Register(buildgraph.Metadata{Name: "stdlib"})
	if err != nil {
		t.Fatal(err)
	}
	p, ok := reg.Package(id)
	if !ok {
		t.Fatal("registered package not found")
	}
	if p.Provides != "stdlib" {
		t.Errorf("Provides = %q, want %q", p.Provides, "stdlib")
	}
	if got := reg.LookupByProvides("stdlib"); !slices.Equal(got, []buildgraph.PackageID{id}) {
		t.Errorf("LookupByProvides = %v, want [%d]", got, id)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  buildgraph.DuplicatePolicy
		dirname string
		wantErr bool
	}{
		{name: "same dir forbidden", policy: buildgraph.ForbidDuplicates, dirname: "src", wantErr: true},
		{name: "other dir accepted", policy: buildgraph.ForbidDuplicates, dirname: "vendor", wantErr: false},
		{name: "same dir allowed", policy: buildgraph.AllowDuplicates, dirname: "src", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg := buildgraph.NewRegistry(buildgraph.WithDuplicatePolicy(tt.policy))
			first := buildgraph.Metadata{Name: "util", Dirname: "src", Location: buildgraph.Location{File: "src/a.cue", Line: 3}}
			if _, err := reg.Register(first); err != nil {
				t.Fatal(err)
			}
			_, err := reg.Register(buildgraph.Metadata{Name: "util", Dirname: tt.dirname})
			if (err != nil) != tt.wantErr {
				t.Fatalf("second Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var dup *buildgraph.DuplicateDefinitionError
			if !errors.As(err, &dup) {
				t.Fatalf("expected *DuplicateDefinitionError, got %T", err)
			}
			if !errors.Is(err, buildgraph.ErrDuplicateDefinition) {
				t.Error("error does not wrap ErrDuplicateDefinition")
			}
			if dup.First.Line != 3 {
				t.Errorf("First = %v, want line 3", dup.First)
			}
		})
	}
}

func TestRegister_Invalid(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()

	if _, err := reg.Register(buildgraph.Metadata{Name: "  "}); !errors.Is(err, buildgraph.ErrInvalidRegistration) {
		t.Errorf("blank name: expected ErrInvalidRegistration, got %v", err)
	}
	if _, err := reg.Register(buildgraph.Metadata{Name: "x", Type: buildgraph.PackageType(42)}); !errors.Is(err, buildgraph.ErrInvalidRegistration) {
		t.Errorf("bad type: expected ErrInvalidRegistration, got %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("invalid registrations must not create packages, Len() = %d", reg.Len())
	}
}

func TestRegistry_RequireAndDisableUnknown(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	if err := reg.Require(7, buildgraph.Require("x")); !errors.Is(err, buildgraph.ErrUnknownPackage) {
		t.Errorf("Require: expected ErrUnknownPackage, got %v", err)
	}
	if err := reg.Disable(-1, nil); !errors.Is(err, buildgraph.ErrUnknownPackage) {
		t.Errorf("Disable: expected ErrUnknownPackage, got %v", err)
	}
}

func TestRegistry_DisableRecordsDeclarationReason(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	id, _ := reg.Register(buildgraph.Metadata{Name: "old"})
	if err := reg.Disable(id, nil); err != nil {
		t.Fatal(err)
	}
	p, _ := reg.Package(id)
	if !p.Disabled || !errors.Is(p.Reason, buildgraph.ErrDisabledByDeclaration) {
		t.Errorf("expected disabled by declaration, got disabled=%v reason=%v", p.Disabled, p.Reason)
	}
}

func TestLookupByProvides_RegistrationOrder(t *testing.T) {
	t.Parallel()
	reg := buildgraph.NewRegistry()
	a, _ := reg.Register(buildgraph.Metadata{Name: "json-a", Provides: "json"})
	_, _ = reg.Register(buildgraph.Metadata{Name: "other"})
	b, _ := reg.Register(buildgraph.Metadata{Name: "json-b", Provides: "json"})

	got := reg.LookupByProvides("json")
	if !slices.Equal(got, []buildgraph.PackageID{a, b}) {
		t.Errorf("LookupByProvides = %v, want [%d %d]", got, a, b)
	}
	if got := reg.LookupByProvides("missing"); len(got) != 0 {
		t.Errorf("expected no providers, got %v", got)
	}
}
