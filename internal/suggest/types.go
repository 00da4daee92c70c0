// Package suggest turns a health report into ranked improvement
// recommendations.
package suggest

import (
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
)

// Priority levels for suggestions.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Suggestion represents an actionable improvement recommendation.
type Suggestion struct {
	// Metric is the metric the suggestion would improve.
	Metric      string  `json:"metric"`
	Priority    int     `json:"priority"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImpactScore float64 `json:"impact_score"`
}

// MetricInput is one metric of the report being analyzed.
type MetricInput struct {
	Name   string
	Result metrics.Result
	Weight float64
}

// Rule inspects a single metric and returns zero or more suggestions.
// Each rule is registered for the metric it understands.
type Rule func(m MetricInput) []Suggestion

// FromReport converts a report's metrics into engine inputs.
func FromReport(rep *score.HealthReport) []MetricInput {
	inputs := make([]MetricInput, 0, len(rep.Metrics))
	for _, m := range rep.Metrics {
		inputs = append(inputs, MetricInput{Name: m.Name, Result: m.Result, Weight: m.Weight})
	}
	return inputs
}
