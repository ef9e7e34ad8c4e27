// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers that fail the test on error, so test
// setup reads as a list of steps.
//
// Common helpers write description trees (WriteTree, MustWriteFile) and
// create directories (MustMkdirAll).
package testutil
