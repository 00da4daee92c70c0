package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// coverageTarget is the coverage ratio LowCoverage aims for.
const coverageTarget = 0.80

// docstringTarget is the docstring ratio below which LowDocstrings fires.
const docstringTarget = 0.80

// newSuggestion fills in impact and priority.
func newSuggestion(m MetricInput, gain float64, title, description string) Suggestion {
	impact := ComputeImpact(m.Weight, gain)
	return Suggestion{
		Metric:      m.Name,
		Priority:    priorityFor(impact),
		Title:       title,
		Description: description,
		ImpactScore: impact,
	}
}

// MissingArtifacts suggests adding the required project files that are
// absent from the repository root.
func MissingArtifacts(m MetricInput) []Suggestion {
	missing := stringList(m.Result.Evidence, "missing")
	if len(missing) == 0 {
		return nil
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		fmt.Sprintf("Add missing project files (%d)", len(missing)),
		fmt.Sprintf("The repository root lacks %s. Each expected artifact counts equally toward the structure score.",
			strings.Join(missing, ", ")),
	)}
}

// MissingCoverage suggests publishing a coverage report when no coverage
// data could be obtained at all.
func MissingCoverage(m MetricInput) []Suggestion {
	if text(m.Result.Evidence, "source") != metrics.SourceDefault {
		return nil
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		"Publish a coverage report",
		"No coverage report was found and no tests could be run under coverage. "+
			"Generate coverage.xml in CI (coverage run -m pytest && coverage xml) or point "+
			"tests.coverage_path at an existing report.",
	)}
}

// LowCoverage suggests raising line coverage when it is below target.
func LowCoverage(m MetricInput) []Suggestion {
	if text(m.Result.Evidence, "source") == metrics.SourceDefault || m.Result.Value >= coverageTarget {
		return nil
	}
	pct, _ := number(m.Result.Evidence, "coverage_pct")
	return []Suggestion{newSuggestion(m, coverageTarget-m.Result.Value,
		fmt.Sprintf("Raise test coverage to %.0f%%", coverageTarget*100),
		fmt.Sprintf("Line coverage is %.2f%%. Cover the least-tested modules first.", pct),
	)}
}

// DeadCode suggests removing unused code reported by the detector.
func DeadCode(m MetricInput) []Suggestion {
	findings, _ := number(m.Result.Evidence, "findings")
	if findings <= 0 || m.Result.Value >= 1 {
		return nil
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		fmt.Sprintf("Remove unused code (%d findings)", int(findings)),
		"The dead-code detector reported unused definitions. Delete them or whitelist the intentional ones.",
	)}
}

// SecurityFindings suggests resolving scanner findings, most severe first.
func SecurityFindings(m MetricInput) []Suggestion {
	if text(m.Result.Evidence, "source") != "scanner" || m.Result.Value >= 1 {
		return nil
	}
	byLevel := counts(m.Result.Evidence, "findings")
	levels := make([]string, 0, len(byLevel))
	for sev := range byLevel {
		levels = append(levels, sev)
	}
	sort.Slice(levels, func(i, j int) bool { return severityRank(levels[i]) < severityRank(levels[j]) })

	parts := make([]string, 0, len(levels))
	for _, sev := range levels {
		parts = append(parts, fmt.Sprintf("%d %s", byLevel[sev], sev))
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		"Resolve security scanner findings",
		fmt.Sprintf("The scanner reported %s. High-severity issues cost the most points.", strings.Join(parts, ", ")),
	)}
}

func severityRank(sev string) int {
	switch sev {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	}
	return 3
}

// DynamicExecution flags source files using eval/exec when only the
// heuristic could run.
func DynamicExecution(m MetricInput) []Suggestion {
	if text(m.Result.Evidence, "source") != "heuristic" || m.Result.Value >= 1 {
		return nil
	}
	where := text(m.Result.Evidence, "matched_file")
	if where == "" {
		where = "the source tree"
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		"Remove dynamic code execution",
		fmt.Sprintf("Dynamic code execution was found in %s. Install the security scanner for a precise assessment.", where),
	)}
}

// MissingReadmeSections suggests documenting the README sections that were
// not found.
func MissingReadmeSections(readmeWeight float64) Rule {
	return func(m MetricInput) []Suggestion {
		sections := m.Result.Evidence["readme_sections"]
		missing := falseKeys(m.Result.Evidence, "readme_sections")
		if len(missing) == 0 {
			return nil
		}
		total := 0
		switch v := sections.(type) {
		case map[string]bool:
			total = len(v)
		case map[string]any:
			total = len(v)
		}
		gain := readmeWeight * float64(len(missing)) / float64(total)
		return []Suggestion{newSuggestion(m, gain,
			fmt.Sprintf("Add README sections: %s", strings.Join(missing, ", ")),
			"Readers look for these sections first. Each one found raises the docs score.",
		)}
	}
}

// LowDocstrings suggests adding module docstrings when few source files
// open with one.
func LowDocstrings(docstringWeight float64) Rule {
	return func(m MetricInput) []Suggestion {
		files, _ := number(m.Result.Evidence, "source_files")
		ratio, _ := number(m.Result.Evidence, "docstring_ratio")
		if files <= 0 || ratio >= docstringTarget {
			return nil
		}
		return []Suggestion{newSuggestion(m, docstringWeight*(1-ratio),
			"Add module docstrings",
			fmt.Sprintf("%.0f%% of %d source files open with a docstring.", ratio*100, int(files)),
		)}
	}
}

// CIUnavailable suggests configuring CI access when run history could not
// be read.
func CIUnavailable(m MetricInput) []Suggestion {
	cause := text(m.Result.Evidence, "error")
	if cause == "" {
		return nil
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		"Make CI run history available",
		fmt.Sprintf("CI runs could not be read: %s. Set GITHUB_REPOSITORY and GITHUB_TOKEN where repohealth runs.", cause),
	)}
}

// FailingRuns suggests stabilizing CI when recent runs did not succeed.
func FailingRuns(m MetricInput) []Suggestion {
	runs, ok := number(m.Result.Evidence, "runs")
	successful, _ := number(m.Result.Evidence, "successful")
	if !ok || runs <= 0 || successful >= runs {
		return nil
	}
	return []Suggestion{newSuggestion(m, 1-m.Result.Value,
		"Fix failing CI runs",
		fmt.Sprintf("%d of the last %d workflow runs did not succeed.", int(runs-successful), int(runs)),
	)}
}
