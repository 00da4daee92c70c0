// Package metrics implements the repository health collectors. Each
// collector measures one quality dimension and always produces a value in
// [0,1]; failures of the underlying data source degrade the value instead of
// surfacing as errors.
package metrics

import (
	"context"
	"encoding/json"
	"math"
)

// Metric names, in report order.
const (
	NameStructure = "structure"
	NameTests     = "tests"
	NameDeadCode  = "dead_code"
	NameSecurity  = "security"
	NameDocs      = "docs"
	NameCI        = "ci"
)

// Names lists every metric in report order.
var Names = []string{NameStructure, NameTests, NameDeadCode, NameSecurity, NameDocs, NameCI}

// Evidence is the diagnostic data accompanying a metric value. It is never
// used in score arithmetic.
type Evidence map[string]any

// Result is the outcome of one collector invocation.
type Result struct {
	// Value is the normalized score, always within [0,1].
	Value float64

	// Evidence supports the value for human inspection.
	Evidence Evidence
}

// NewResult builds a Result, clamping value into [0,1].
func NewResult(value float64, evidence Evidence) Result {
	if evidence == nil {
		evidence = Evidence{}
	}
	return Result{Value: Clamp(value), Evidence: evidence}
}

// MarshalJSON encodes the result as a [value, evidence] pair.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Pair())
}

// Pair returns the result as a two-element [value, evidence] slice.
func (r Result) Pair() []any {
	ev := r.Evidence
	if ev == nil {
		ev = Evidence{}
	}
	return []any{r.Value, ev}
}

// Collector computes one metric for the repository rooted at root.
type Collector interface {
	Name() string
	Collect(ctx context.Context, root string) Result
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
