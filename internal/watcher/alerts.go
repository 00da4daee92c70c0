package watcher

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
)

// Thresholds controls the sensitivity of Compare.
type Thresholds struct {
	// ScoreDrop is the final-score drop, in points, that raises a critical alert.
	ScoreDrop float64

	// MetricDrop is the per-metric value drop that raises a warning.
	MetricDrop float64

	// ScoreGain is the final-score gain, in points, reported as info.
	ScoreGain float64
}

// DefaultThresholds are used by New.
var DefaultThresholds = Thresholds{
	ScoreDrop:  5,
	MetricDrop: 0.05,
	ScoreGain:  1,
}

// Compare detects notable changes between two reports and returns alerts.
// It checks for critical, warning, and info-level changes.
func Compare(prev, curr *score.HealthReport, th Thresholds) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr, th)...)
	alerts = append(alerts, compareWarning(prev, curr, th)...)
	alerts = append(alerts, compareInfo(prev, curr, th)...)

	return alerts
}

func compareCritical(prev, curr *score.HealthReport, th Thresholds) []Alert {
	var alerts []Alert
	now := time.Now()

	if drop := prev.FinalScore - curr.FinalScore; drop >= th.ScoreDrop {
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   "Health score dropped",
			Message: fmt.Sprintf("%.2f -> %.2f (-%.2f points)", prev.FinalScore, curr.FinalScore, drop),
			Time:    now,
		})
	}
	return alerts
}

func compareWarning(prev, curr *score.HealthReport, th Thresholds) []Alert {
	var alerts []Alert
	now := time.Now()

	for _, m := range curr.Metrics {
		before, ok := prev.Result(m.Name)
		if !ok {
			continue
		}

		// A metric that lost its data source degraded to the default value.
		if source(m.Result) == metrics.SourceDefault && source(before) != "" && source(before) != metrics.SourceDefault {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   fmt.Sprintf("Metric degraded: %s", m.Name),
				Message: fmt.Sprintf("Source %q no longer available, using default value %.2f", source(before), m.Result.Value),
				Time:    now,
			})
			continue
		}

		if drop := before.Value - m.Result.Value; drop >= th.MetricDrop {
			alerts = append(alerts, Alert{
				Level:   "warning",
				Title:   fmt.Sprintf("Metric regressed: %s", m.Name),
				Message: fmt.Sprintf("%.2f -> %.2f", before.Value, m.Result.Value),
				Time:    now,
			})
		}
	}
	return alerts
}

func compareInfo(prev, curr *score.HealthReport, th Thresholds) []Alert {
	var alerts []Alert
	now := time.Now()

	if gain := curr.FinalScore - prev.FinalScore; gain >= th.ScoreGain {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Health score improved",
			Message: fmt.Sprintf("%.2f -> %.2f (+%.2f points)", prev.FinalScore, curr.FinalScore, gain),
			Time:    now,
		})
	}
	return alerts
}

func source(r metrics.Result) string {
	s, _ := r.Evidence["source"].(string)
	return s
}
