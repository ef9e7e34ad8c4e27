// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple, used for titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, used for buildable packages.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red, used for fatal errors and disabled packages.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber, used for reasons and warnings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, used for package names.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// NameStyle is for package names.
	NameStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// idColumnStyle right-aligns final ids in the order table.
	idColumnStyle = lipgloss.NewStyle().
			Width(5).
			Align(lipgloss.Right).
			Foreground(ColorMuted)

	// typeColumnStyle pads package types in the order table.
	typeColumnStyle = lipgloss.NewStyle().
			Width(9).
			Foreground(ColorMuted)
)

const (
	successIcon = "✓"
	errorIcon   = "✗"
	warningIcon = "!"
)
