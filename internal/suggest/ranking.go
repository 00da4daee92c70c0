package suggest

import (
	"math"
	"sort"
)

// RankSuggestions sorts suggestions by ImpactScore in descending order.
// Ties keep their rule order.
func RankSuggestions(suggestions []Suggestion) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImpactScore > sorted[j].ImpactScore
	})
	return sorted
}

// ComputeImpact returns how many points of the final score a suggestion
// can recover: weight × gain × 100, where gain is the rise in the metric
// value (0.0-1.0) the suggestion would bring. Rounded to 2 decimals.
func ComputeImpact(weight, gain float64) float64 {
	if weight <= 0 || gain <= 0 {
		return 0
	}
	return math.Round(weight*math.Min(gain, 1)*100*100) / 100
}

// priorityFor maps recoverable points to a priority level.
func priorityFor(impact float64) int {
	switch {
	case impact >= 10:
		return PriorityCritical
	case impact >= 5:
		return PriorityHigh
	case impact >= 2:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
