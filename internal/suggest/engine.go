package suggest

import (
	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// Engine runs the registered rules for each metric and collects the
// resulting suggestions.
type Engine struct {
	rules map[string][]Rule
}

// NewEngine creates a new suggest engine with all built-in rules registered.
// docs supplies the weights of the two docs sub-scores.
func NewEngine(docs config.Docs) *Engine {
	return &Engine{
		rules: map[string][]Rule{
			metrics.NameStructure: {MissingArtifacts},
			metrics.NameTests:     {MissingCoverage, LowCoverage},
			metrics.NameDeadCode:  {DeadCode},
			metrics.NameSecurity:  {SecurityFindings, DynamicExecution},
			metrics.NameDocs:      {MissingReadmeSections(docs.ReadmeWeight), LowDocstrings(docs.DocstringWeight)},
			metrics.NameCI:        {CIUnavailable, FailingRuns},
		},
	}
}

// Run executes the rules against every metric and returns the collected
// suggestions sorted by impact score (highest first).
func (e *Engine) Run(inputs []MetricInput) []Suggestion {
	var all []Suggestion
	for _, m := range inputs {
		for _, rule := range e.rules[m.Name] {
			all = append(all, rule(m)...)
		}
	}
	return RankSuggestions(all)
}
