// Package output provides styled terminal rendering helpers for repohealth.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette.
var (
	ColorPrimary  = lipgloss.Color("#64b5f6")
	ColorHealthy  = lipgloss.Color("#66bb6a")
	ColorDegraded = lipgloss.Color("#fff59d")
	ColorFailing  = lipgloss.Color("#ef5350")
	ColorMuted    = lipgloss.Color("#888888")
)

// labelWidth is the column width of StyleLabel.
const labelWidth = 18

// Reusable styles. SetNoColor swaps them for unstyled equivalents.
var (
	// StyleHeader is used for section headers and table headings.
	StyleHeader lipgloss.Style

	// StyleSuccess marks healthy values and improvements.
	StyleSuccess lipgloss.Style

	// StyleWarning marks degraded values.
	StyleWarning lipgloss.Style

	// StyleError marks failing values and regressions.
	StyleError lipgloss.Style

	// StyleMuted is used for secondary text and rules.
	StyleMuted lipgloss.Style

	// StyleBold is used for emphasized text.
	StyleBold lipgloss.Style

	// StyleLabel left-aligns a label in a fixed-width column.
	StyleLabel lipgloss.Style
)

var noColor bool

func init() {
	applyStyles(false)
}

func applyStyles(plain bool) {
	base := lipgloss.NewStyle()
	if plain {
		StyleHeader = base
		StyleSuccess = base
		StyleWarning = base
		StyleError = base
		StyleMuted = base
		StyleBold = base
		StyleLabel = base.Width(labelWidth)
		return
	}
	StyleHeader = base.Foreground(ColorPrimary).Bold(true)
	StyleSuccess = base.Foreground(ColorHealthy)
	StyleWarning = base.Foreground(ColorDegraded)
	StyleError = base.Foreground(ColorFailing)
	StyleMuted = base.Foreground(ColorMuted)
	StyleBold = base.Bold(true)
	StyleLabel = base.Width(labelWidth)
}

// SetNoColor disables or re-enables styling for every package-level style.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// ColorEnabled reports whether colored output should be used given the
// user's preference, NO_COLOR and whether stdout is a terminal.
func ColorEnabled(preferred bool) bool {
	if !preferred || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
