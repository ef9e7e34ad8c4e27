// SPDX-License-Identifier: MPL-2.0

package buildgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateDefinition is the sentinel error wrapped by DuplicateDefinitionError.
	ErrDuplicateDefinition = errors.New("duplicate package definition")
	// ErrInvalidRegistration is the sentinel error wrapped by InvalidRegistrationError.
	ErrInvalidRegistration = errors.New("invalid package registration")
	// ErrAmbiguousProvides is the sentinel error wrapped by AmbiguousProvidesError.
	ErrAmbiguousProvides = errors.New("ambiguous provides")
	// ErrUnsatisfiedRequirement is the sentinel error wrapped by UnsatisfiedRequirementError.
	ErrUnsatisfiedRequirement = errors.New("unsatisfied requirement")
	// ErrDependencyCycle is the sentinel error wrapped by DependencyCycleError.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrDisabledDependency is the sentinel error wrapped by DisabledDependencyError.
	ErrDisabledDependency = errors.New("disabled dependency")
	// ErrDisabledByDeclaration is the reason recorded for packages their
	// description switches off.
	ErrDisabledByDeclaration = errors.New("disabled in description")
	// ErrUnknownPackage is returned when a package id is not registered.
	ErrUnknownPackage = errors.New("unknown package")
	// ErrRegistryBusy is returned when a second pass starts on a registry
	// while another one is running.
	ErrRegistryBusy = errors.New("registry has a pass in flight")
)

type (
	// DuplicateDefinitionError is returned when the same (name, dirname) pair
	// is registered twice and the duplicate policy forbids it.
	DuplicateDefinitionError struct {
		Name    string
		Dirname string
		First   Location
		Second  Location
	}

	// InvalidRegistrationError is returned for metadata that cannot be
	// registered at all.
	InvalidRegistrationError struct {
		Name   string
		Reason string
	}

	// AmbiguousProvidesError is returned when a requirement matches several
	// enabled packages.
	AmbiguousProvidesError struct {
		Provides   string
		RequiredBy string
		Candidates []string
	}

	// UnsatisfiedRequirementError records a non-optional requirement that no
	// enabled package provides. It disables the requiring package.
	UnsatisfiedRequirementError struct {
		Package string
		Missing string
	}

	// DependencyCycleError records the members of a group of packages that
	// depend on each other. Every member is disabled. When Ring is set the
	// group is a single loop and Members follows it.
	DependencyCycleError struct {
		Members []string
		Ring    bool
	}

	// DisabledDependencyError records that a package hard-depends on a
	// disabled package.
	DisabledDependencyError struct {
		Package    string
		Dependency string
		// DependencyID is the registration id of the disabled dependency.
		DependencyID PackageID
	}
)

// Error implements the error interface.
func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("package %q in %q defined twice (%s and %s)", e.Name, e.Dirname, e.First, e.Second)
}

// Unwrap returns ErrDuplicateDefinition for errors.Is() compatibility.
func (e *DuplicateDefinitionError) Unwrap() error { return ErrDuplicateDefinition }

// Error implements the error interface.
func (e *InvalidRegistrationError) Error() string {
	if e.Name == "" {
		return "invalid package registration: " + e.Reason
	}
	return fmt.Sprintf("invalid registration of package %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidRegistration for errors.Is() compatibility.
func (e *InvalidRegistrationError) Unwrap() error { return ErrInvalidRegistration }

// Error implements the error interface.
func (e *AmbiguousProvidesError) Error() string {
	return fmt.Sprintf("package %q requires %q, which is provided by %d enabled packages: %s",
		e.RequiredBy, e.Provides, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Unwrap returns ErrAmbiguousProvides for errors.Is() compatibility.
func (e *AmbiguousProvidesError) Unwrap() error { return ErrAmbiguousProvides }

// Error implements the error interface.
func (e *UnsatisfiedRequirementError) Error() string {
	return fmt.Sprintf("package %q requires %q, which no enabled package provides", e.Package, e.Missing)
}

// Unwrap returns ErrUnsatisfiedRequirement for errors.Is() compatibility.
func (e *UnsatisfiedRequirementError) Unwrap() error { return ErrUnsatisfiedRequirement }

// Error implements the error interface.
func (e *DependencyCycleError) Error() string {
	if len(e.Members) == 0 {
		return "dependency cycle"
	}
	if !e.Ring {
		return "dependency cycle among " + strings.Join(e.Members, ", ")
	}
	return "dependency cycle: " + strings.Join(append(e.Members[:len(e.Members):len(e.Members)], e.Members[0]), " -> ")
}

// Unwrap returns ErrDependencyCycle for errors.Is() compatibility.
func (e *DependencyCycleError) Unwrap() error { return ErrDependencyCycle }

// Error implements the error interface.
func (e *DisabledDependencyError) Error() string {
	return fmt.Sprintf("package %q requires disabled package %q", e.Package, e.Dependency)
}

// Unwrap returns ErrDisabledDependency for errors.Is() compatibility.
func (e *DisabledDependencyError) Unwrap() error { return ErrDisabledDependency }
