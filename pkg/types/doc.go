// SPDX-License-Identifier: MPL-2.0

// Package types holds small validated value types shared by the command line
// and the configuration layer.
package types
