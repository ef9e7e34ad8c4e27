// SPDX-License-Identifier: MPL-2.0

// Package loader finds build descriptions on disk and turns them into
// buildgraph declarations.
//
// Two description dialects are understood, selected by file extension:
//
//	// BUILD.cue
//	packages: [
//		{name: "app", type: "program", requires: [{name: "core"}]},
//		{name: "core"},
//	]
//
//	# BUILD.hcl
//	package "app" {
//	  type = "program"
//	  requires "core" {}
//	}
//	package "core" {}
//
// Declarations are returned in discovery order, and within a file in the
// order they are written, so loading an unchanged tree twice yields the same
// slice.
package loader
