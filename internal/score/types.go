// Package score runs the metric collectors and aggregates their results into
// a repository health score.
package score

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// Weights maps a metric name to its share of the final score. The weights of
// a valid table sum to 1.0.
type Weights map[string]float64

// MetricScore is one collector's result within a report.
type MetricScore struct {
	// Name is the metric name (see metrics.Names).
	Name string `json:"name"`

	// Result is the collector output.
	Result metrics.Result `json:"result"`

	// Weight is the metric's weight at aggregation time.
	Weight float64 `json:"weight"`

	// Duration is how long the collector ran.
	Duration time.Duration `json:"duration"`
}

// HealthReport is the outcome of one scoring run.
type HealthReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Repository is the owner/name identity, if configured.
	Repository string `json:"repository,omitempty"`

	// Root is the absolute path of the scored repository.
	Root string `json:"root"`

	// GeneratedAt is when scoring finished.
	GeneratedAt time.Time `json:"generated_at"`

	// Metrics holds each collector's result in collection order.
	Metrics []MetricScore `json:"metrics"`

	// FinalScore is the weighted score in [0,100].
	FinalScore float64 `json:"final_score"`
}

// Result returns the named metric's result.
func (r *HealthReport) Result(name string) (metrics.Result, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Result, true
		}
	}
	return metrics.Result{}, false
}

// Results returns the metric results keyed by name.
func (r *HealthReport) Results() map[string]metrics.Result {
	out := make(map[string]metrics.Result, len(r.Metrics))
	for _, m := range r.Metrics {
		out[m.Name] = m.Result
	}
	return out
}

// Summary is the one-line human-readable score.
func (r *HealthReport) Summary() string {
	return fmt.Sprintf("Repository health score: %.2f/100", r.FinalScore)
}
