package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Band classifies a 0-100 health score.
type Band int

// Bands, worst first.
const (
	BandFailing Band = iota
	BandDegraded
	BandHealthy
)

// Lower bounds of the healthy and degraded bands.
const (
	healthyThreshold  = 70
	degradedThreshold = 40
)

// BandFor returns the band of a 0-100 score.
func BandFor(score float64) Band {
	switch {
	case score >= healthyThreshold:
		return BandHealthy
	case score >= degradedThreshold:
		return BandDegraded
	default:
		return BandFailing
	}
}

func (b Band) String() string {
	switch b {
	case BandHealthy:
		return "healthy"
	case BandDegraded:
		return "degraded"
	default:
		return "failing"
	}
}

// Style returns the current style for the band.
func (b Band) Style() lipgloss.Style {
	switch b {
	case BandHealthy:
		return StyleSuccess
	case BandDegraded:
		return StyleWarning
	default:
		return StyleError
	}
}

// ScoreBar renders a bar for a 0-100 score, e.g. "████████░░ 80/100".
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := min(max(int(score/100*float64(width)), 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", BandFor(score).Style().Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// MetricValue renders a normalized [0,1] value as a percentage styled by
// its band.
func MetricValue(v float64) string {
	pct := v * 100
	return BandFor(pct).Style().Render(fmt.Sprintf("%5.1f%%", pct))
}

// TrendArrow renders a delta between two runs. Every health value is
// higher-is-better, so a rise is green and a fall red.
func TrendArrow(delta float64) string {
	const epsilon = 1e-9
	switch {
	case delta > epsilon:
		return StyleSuccess.Render(fmt.Sprintf("▲ +%.2f", delta))
	case delta < -epsilon:
		return StyleError.Render(fmt.Sprintf("▼ %.2f", delta))
	default:
		return StyleMuted.Render("─")
	}
}

// Section renders a header followed by a horizontal rule.
func Section(title string) string {
	return fmt.Sprintf("\n %s\n %s", StyleHeader.Render(title), StyleMuted.Render(strings.Repeat("─", 66)))
}
