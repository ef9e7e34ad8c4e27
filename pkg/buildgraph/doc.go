// SPDX-License-Identifier: MPL-2.0

// Package buildgraph models the packages of a build description and turns them
// into a deterministic, dependency-respecting build order.
//
// # Pipeline
//
// Packages flow through three stages, each owning the mutable state it touches:
//
//  1. [Registry]: declared packages are registered and receive monotonically
//     increasing ids. Requirements are attached by name.
//  2. [Link]: requirement names are resolved through the provides index into
//     [Dependency] edges. Missing non-optional requirements disable the
//     requirer; ambiguous provides abort the pass.
//  3. [Sort]: a depth-first traversal orders the packages dependency-first,
//     disables cycle members and everything that hard-depends on a disabled
//     package, and converts the survivors into final [Package] values with
//     continuous ids.
//
// [Resolve] runs the three stages for a slice of [Declaration] values.
//
// # Phases
//
// A [PrePackage] carries requirements under construction and is mutated by the
// pipeline. A [Package] is the frozen result placed into a [Project]. Both embed
// [Metadata]; the conversion happens once, at the end of [Sort].
//
// # Errors
//
// Contradictions the pipeline cannot resolve on its own are returned as errors:
// [ErrDuplicateDefinition], [ErrInvalidRegistration] and [ErrAmbiguousProvides].
// Everything that only means "this package cannot be built" is recorded on the
// package instead ([Package.Reason]): [ErrUnsatisfiedRequirement],
// [ErrDependencyCycle], [ErrDisabledDependency] and [ErrDisabledByDeclaration].
//
// The package performs no I/O and is not safe for concurrent use; build
// independent projects with independent registries.
package buildgraph
