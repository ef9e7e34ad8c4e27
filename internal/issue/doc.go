// SPDX-License-Identifier: MPL-2.0

// Package issue turns pipeline failures into user-facing guidance.
//
// An [ActionableError] says what failed, on which resource, and what to try
// next. An [Issue] is a longer Markdown card for the failure classes users
// hit most often; [Classify] picks the card for an error and Render formats
// it for the terminal with glamour.
package issue
