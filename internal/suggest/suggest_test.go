package suggest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
)

func input(name string, weight, value float64, ev metrics.Evidence) MetricInput {
	return MetricInput{Name: name, Weight: weight, Result: metrics.NewResult(value, ev)}
}

// decoded round-trips evidence through JSON the way the run history does.
func decoded(t *testing.T, m MetricInput) MetricInput {
	t.Helper()
	data, err := json.Marshal(m.Result.Evidence)
	require.NoError(t, err)
	var ev metrics.Evidence
	require.NoError(t, json.Unmarshal(data, &ev))
	m.Result.Evidence = ev
	return m
}

func TestComputeImpact(t *testing.T) {
	assert.Equal(t, 5.0, ComputeImpact(0.25, 0.2))
	assert.Equal(t, 25.0, ComputeImpact(0.25, 1))
	assert.Equal(t, 25.0, ComputeImpact(0.25, 3), "gain is capped at 1")
	assert.Equal(t, 0.0, ComputeImpact(0, 0.5))
	assert.Equal(t, 0.0, ComputeImpact(0.2, -0.1))
	assert.Equal(t, 3.33, ComputeImpact(0.1, 1.0/3))
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PriorityCritical, priorityFor(12))
	assert.Equal(t, PriorityHigh, priorityFor(5))
	assert.Equal(t, PriorityMedium, priorityFor(2))
	assert.Equal(t, PriorityLow, priorityFor(1.99))
}

func TestRankSuggestions_StableDescending(t *testing.T) {
	in := []Suggestion{
		{Title: "a", ImpactScore: 1},
		{Title: "b", ImpactScore: 5},
		{Title: "c", ImpactScore: 1},
		{Title: "d", ImpactScore: 9},
	}
	got := RankSuggestions(in)
	var order []string
	for _, s := range got {
		order = append(order, s.Title)
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, order)
	assert.Equal(t, "a", in[0].Title, "input is not reordered")
}

func TestMissingArtifacts(t *testing.T) {
	m := input(metrics.NameStructure, 0.10, 0.5, metrics.Evidence{"missing": []string{"LICENSE", "src", "setup.py"}})
	for _, in := range []MetricInput{m, decoded(t, m)} {
		got := MissingArtifacts(in)
		require.Len(t, got, 1)
		assert.Equal(t, "Add missing project files (3)", got[0].Title)
		assert.Contains(t, got[0].Description, "LICENSE, src, setup.py")
		assert.Equal(t, 5.0, got[0].ImpactScore)
		assert.Equal(t, PriorityHigh, got[0].Priority)
	}

	assert.Empty(t, MissingArtifacts(input(metrics.NameStructure, 0.1, 1, metrics.Evidence{"missing": []string{}})))
}

func TestCoverageRules(t *testing.T) {
	none := input(metrics.NameTests, 0.25, 0, metrics.Evidence{"source": metrics.SourceDefault, "coverage_pct": 0.0})
	got := MissingCoverage(none)
	require.Len(t, got, 1)
	assert.Equal(t, 25.0, got[0].ImpactScore)
	assert.Equal(t, PriorityCritical, got[0].Priority)
	assert.Empty(t, LowCoverage(none))

	low := input(metrics.NameTests, 0.25, 0.6, metrics.Evidence{"source": "report", "coverage_pct": 60.0})
	assert.Empty(t, MissingCoverage(low))
	got = LowCoverage(low)
	require.Len(t, got, 1)
	assert.Equal(t, "Raise test coverage to 80%", got[0].Title)
	assert.Contains(t, got[0].Description, "60.00%")
	assert.Equal(t, 5.0, got[0].ImpactScore)

	assert.Empty(t, LowCoverage(input(metrics.NameTests, 0.25, 0.85, metrics.Evidence{"source": "report"})))
}

func TestDeadCode(t *testing.T) {
	m := input(metrics.NameDeadCode, 0.10, 0.8, metrics.Evidence{"findings": 4, "dead_ratio": 0.2})
	for _, in := range []MetricInput{m, decoded(t, m)} {
		got := DeadCode(in)
		require.Len(t, got, 1)
		assert.Equal(t, "Remove unused code (4 findings)", got[0].Title)
		assert.Equal(t, 2.0, got[0].ImpactScore)
	}
	assert.Empty(t, DeadCode(input(metrics.NameDeadCode, 0.1, 1, metrics.Evidence{"findings": 0})))
}

func TestSecurityFindings(t *testing.T) {
	m := input(metrics.NameSecurity, 0.20, 0.4, metrics.Evidence{
		"source":   "scanner",
		"penalty":  6.0,
		"findings": map[string]int{"low": 2, "high": 1},
	})
	for _, in := range []MetricInput{m, decoded(t, m)} {
		got := SecurityFindings(in)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Description, "1 high, 2 low")
		assert.Equal(t, 12.0, got[0].ImpactScore)
		assert.Empty(t, DynamicExecution(in))
	}
}

func TestDynamicExecution(t *testing.T) {
	m := input(metrics.NameSecurity, 0.20, 0.8, metrics.Evidence{
		"source":       "heuristic",
		"penalty":      2.0,
		"matched_file": "pkg/danger.py",
	})
	got := DynamicExecution(m)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Description, "pkg/danger.py")
	assert.Equal(t, 4.0, got[0].ImpactScore)
	assert.Empty(t, SecurityFindings(m))
}

func TestDocsRules(t *testing.T) {
	m := input(metrics.NameDocs, 0.15, 0.5, metrics.Evidence{
		"readme_sections": map[string]bool{"installation": true, "usage": false, "license": true, "contributing": false},
		"docstring_ratio": 0.5,
		"source_files":    4,
	})
	readme := MissingReadmeSections(0.6)
	docstrings := LowDocstrings(0.4)
	for _, in := range []MetricInput{m, decoded(t, m)} {
		got := readme(in)
		require.Len(t, got, 1)
		assert.Equal(t, "Add README sections: contributing, usage", got[0].Title)
		assert.Equal(t, 4.5, got[0].ImpactScore)

		got = docstrings(in)
		require.Len(t, got, 1)
		assert.Equal(t, "50% of 4 source files open with a docstring.", got[0].Description)
		assert.Equal(t, 3.0, got[0].ImpactScore)
	}

	complete := input(metrics.NameDocs, 0.15, 1, metrics.Evidence{
		"readme_sections": map[string]bool{"usage": true},
		"docstring_ratio": 1.0,
		"source_files":    2,
	})
	assert.Empty(t, readme(complete))
	assert.Empty(t, docstrings(complete))
}

func TestCIRules(t *testing.T) {
	missing := input(metrics.NameCI, 0.20, 0, metrics.Evidence{"error": "GITHUB_TOKEN is not set"})
	got := CIUnavailable(missing)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Description, "GITHUB_TOKEN is not set")
	assert.Equal(t, 20.0, got[0].ImpactScore)
	assert.Empty(t, FailingRuns(missing))

	failing := input(metrics.NameCI, 0.20, 0.9, metrics.Evidence{"runs": 30, "successful": 27})
	for _, in := range []MetricInput{failing, decoded(t, failing)} {
		got = FailingRuns(in)
		require.Len(t, got, 1)
		assert.Equal(t, "3 of the last 30 workflow runs did not succeed.", got[0].Description)
		assert.Equal(t, 2.0, got[0].ImpactScore)
		assert.Empty(t, CIUnavailable(in))
	}
}

func TestEngine_RunRanksAcrossMetrics(t *testing.T) {
	rep := &score.HealthReport{Metrics: []score.MetricScore{
		{Name: metrics.NameStructure, Weight: 0.10, Result: metrics.NewResult(1, metrics.Evidence{"missing": []string{}})},
		{Name: metrics.NameTests, Weight: 0.25, Result: metrics.NewResult(0.6, metrics.Evidence{"source": "report", "coverage_pct": 60.0})},
		{Name: metrics.NameCI, Weight: 0.20, Result: metrics.NewResult(0, metrics.Evidence{"error": "no token"})},
		{Name: "unknown", Weight: 0, Result: metrics.NewResult(0, nil)},
	}}

	got := NewEngine(config.DefaultDocs).Run(FromReport(rep))
	require.Len(t, got, 2)
	assert.Equal(t, metrics.NameCI, got[0].Metric)
	assert.Equal(t, metrics.NameTests, got[1].Metric)
	assert.GreaterOrEqual(t, got[0].ImpactScore, got[1].ImpactScore)
}

func TestEngine_HealthyReportHasNoSuggestions(t *testing.T) {
	rep := &score.HealthReport{Metrics: []score.MetricScore{
		{Name: metrics.NameTests, Weight: 0.25, Result: metrics.NewResult(0.95, metrics.Evidence{"source": "report"})},
		{Name: metrics.NameCI, Weight: 0.20, Result: metrics.NewResult(1, metrics.Evidence{"runs": 30, "successful": 30})},
	}}
	assert.Empty(t, NewEngine(config.DefaultDocs).Run(FromReport(rep)))
}
