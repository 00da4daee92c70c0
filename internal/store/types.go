// Package store provides SQLite persistence for repohealth scoring runs.
package store

import "time"

// Run is one persisted scoring run.
type Run struct {
	ID         string    `json:"id"`
	TakenAt    time.Time `json:"taken_at"`
	RepoKey    string    `json:"repo_key"`
	Repository string    `json:"repository,omitempty"`
	Root       string    `json:"root"`
	FinalScore float64   `json:"final_score"`
	Version    string    `json:"version"`
}

// MetricValue is one metric result recorded for a run. Evidence holds the
// JSON-encoded evidence map.
type MetricValue struct {
	RunID    string  `json:"run_id"`
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Evidence string  `json:"evidence,omitempty"`
}

// RunDiff represents the comparison between two runs.
type RunDiff struct {
	Previous *Run          `json:"previous"`
	Current  *Run          `json:"current"`
	Deltas   []MetricDelta `json:"deltas"`
}

// MetricDelta represents the change in a single metric between runs.
type MetricDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "improved", "regressed", "unchanged"
}
