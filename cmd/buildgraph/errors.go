// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/buildgraph/buildgraph/internal/issue"
	"github.com/buildgraph/buildgraph/pkg/types"
)

// fail reports err on stderr and returns the ExitError for code. Usage and
// cobra's own error line are suppressed since the report replaces them.
func (a *App) fail(cmd *cobra.Command, code types.ExitCode, err error) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	a.renderError(a.stderr, err)
	return &ExitError{Code: code}
}

// renderError writes the issue card linked to err, if any, followed by the
// error itself.
func (a *App) renderError(w io.Writer, err error) {
	if card := issueFor(err); card != nil {
		if rendered, rerr := card.Render(a.markdownStyle); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}
	fmt.Fprintln(w, ErrorStyle.Render(errorIcon+" ")+formatErrorForDisplay(err, a.flags.verbose))
}

// issueFor returns the card an ActionableError links to, falling back to
// classifying the error chain.
func issueFor(err error) *issue.Issue {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return issue.Get(ae.Issue)
	}
	return issue.Classify(err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
