// Package config provides configuration loading and defaults for repohealth.
package config

import "time"

// DefaultConfigDir is the default location for repohealth configuration.
const DefaultConfigDir = "~/.config/repohealth"

// DefaultDBName is the filename for the SQLite run history database.
const DefaultDBName = "repohealth.db"

// DefaultHistoryKeep is the number of runs kept per repository.
const DefaultHistoryKeep = 1000

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// RepoConfigFile is a per-repository config file picked up from the
// repository root when no explicit --config is given.
const RepoConfigFile = ".repohealth.yaml"

// DefaultWeights is the weight table applied to the six metrics.
// The values sum to 1.0.
var DefaultWeights = map[string]float64{
	"structure": 0.10,
	"tests":     0.25,
	"dead_code": 0.10,
	"security":  0.20,
	"docs":      0.15,
	"ci":        0.20,
}

// DefaultSourceExtensions selects the files treated as project source.
var DefaultSourceExtensions = []string{".py"}

// DefaultSkipDirs are never descended into when walking a repository.
var DefaultSkipDirs = []string{".git", "node_modules", "vendor", ".venv", "venv", "__pycache__", ".tox", "build", "dist"}

// DefaultStructure lists the artifacts a well-formed repository is expected to carry.
var DefaultStructure = Structure{
	Required: []string{"README.md", "LICENSE", ".github/workflows", "src", "pyproject.toml", "setup.py"},
}

// DefaultTests holds the coverage discovery and instrumentation defaults.
var DefaultTests = Tests{
	CoveragePath:     "coverage.xml",
	FallbackPaths:    []string{"reports/coverage.xml", "build/coverage.xml"},
	TestDirs:         []string{"tests", "test"},
	TestFilePatterns: []string{"test_*.py", "*_test.py"},
	RunCommand:       []string{"coverage", "run", "-m", "pytest"},
	RunOKExitCodes:   []int{0, 1},
	ReportCommand:    []string{"coverage", "xml", "-o"},
	Timeout:          10 * time.Minute,
}

// DefaultDeadCode holds the dead-code detector defaults. LinesPerFinding is
// the number of lines each finding is assumed to taint.
var DefaultDeadCode = DeadCode{
	Command:         []string{"vulture", ".", "--min-confidence", "0"},
	OKExitCodes:     []int{0, 3},
	LinesPerFinding: 10,
	Timeout:         5 * time.Minute,
}

// DefaultSecurity holds the security scanner defaults.
var DefaultSecurity = Security{
	Command:     []string{"bandit", "-r", ".", "-f", "json", "-q"},
	OKExitCodes: []int{0, 1},
	SeverityPoints: map[string]float64{
		"low":    0.5,
		"medium": 2.0,
		"high":   5.0,
	},
	PenaltyCeiling:    10,
	HeuristicPatterns: []string{"eval(", "exec("},
	HeuristicPenalty:  2.0,
	Timeout:           5 * time.Minute,
}

// DefaultDocs holds the documentation check defaults.
var DefaultDocs = Docs{
	ReadmeFile:      "README.md",
	Sections:        []string{"installation", "usage", "license", "contributing"},
	ReadmeWeight:    0.6,
	DocstringWeight: 0.4,
	Delimiters:      []string{`"""`, `'''`},
	HeadChars:       200,
}

// DefaultCI holds the CI provider defaults.
var DefaultCI = CI{
	Runs:    30,
	Timeout: 15 * time.Second,
}

// DefaultReport holds the report output defaults.
var DefaultReport = Report{
	Path:   "health_report.json",
	Format: "json",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}
