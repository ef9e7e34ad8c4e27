// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the buildgraph command line.
//
// Every command loads the configuration, discovers build descriptions below
// the given directories and resolves them into a project before printing
// one view of it: the build order, the disabled packages or the explanation
// of a single package.
package cmd
