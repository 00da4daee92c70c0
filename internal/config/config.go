package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level repohealth configuration.
type Config struct {
	// Repository is the owner/name identity used for the CI provider.
	Repository string `mapstructure:"repository"`

	// Token is the CI provider API credential.
	Token string `mapstructure:"token"`

	SourceExtensions []string           `mapstructure:"source_extensions"`
	SkipDirs         []string           `mapstructure:"skip_dirs"`
	Weights          map[string]float64 `mapstructure:"weights"`
	Structure        Structure          `mapstructure:"structure"`
	Tests            Tests              `mapstructure:"tests"`
	DeadCode         DeadCode           `mapstructure:"dead_code"`
	Security         Security           `mapstructure:"security"`
	Docs             Docs               `mapstructure:"docs"`
	CI               CI                 `mapstructure:"ci"`
	Report           Report             `mapstructure:"report"`
	Output           Output             `mapstructure:"output"`
	DBPath           string             `mapstructure:"db_path"`

	// HistoryKeep is the number of runs kept per repository; 0 keeps all.
	HistoryKeep int `mapstructure:"history_keep"`
}

// Structure configures the structure completeness check.
type Structure struct {
	Required []string `mapstructure:"required"`
}

// Tests configures coverage discovery and the instrumented test run.
type Tests struct {
	CoveragePath     string        `mapstructure:"coverage_path"`
	FallbackPaths    []string      `mapstructure:"fallback_paths"`
	TestDirs         []string      `mapstructure:"test_dirs"`
	TestFilePatterns []string      `mapstructure:"test_file_patterns"`
	RunCommand       []string      `mapstructure:"run_command"`
	RunOKExitCodes   []int         `mapstructure:"run_ok_exit_codes"`
	ReportCommand    []string      `mapstructure:"report_command"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// DeadCode configures the dead-code detector and its ratio heuristic.
type DeadCode struct {
	Command         []string      `mapstructure:"command"`
	OKExitCodes     []int         `mapstructure:"ok_exit_codes"`
	LinesPerFinding float64       `mapstructure:"lines_per_finding"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Security configures the security scanner and the penalty model.
type Security struct {
	Command           []string           `mapstructure:"command"`
	OKExitCodes       []int              `mapstructure:"ok_exit_codes"`
	SeverityPoints    map[string]float64 `mapstructure:"severity_points"`
	PenaltyCeiling    float64            `mapstructure:"penalty_ceiling"`
	HeuristicPatterns []string           `mapstructure:"heuristic_patterns"`
	HeuristicPenalty  float64            `mapstructure:"heuristic_penalty"`
	Timeout           time.Duration      `mapstructure:"timeout"`
}

// Docs configures the README and docstring checks.
type Docs struct {
	ReadmeFile      string   `mapstructure:"readme_file"`
	Sections        []string `mapstructure:"sections"`
	ReadmeWeight    float64  `mapstructure:"readme_weight"`
	DocstringWeight float64  `mapstructure:"docstring_weight"`
	Delimiters      []string `mapstructure:"delimiters"`
	HeadChars       int      `mapstructure:"head_chars"`
}

// CI configures the CI provider client.
type CI struct {
	// BaseURL overrides the API endpoint (GitHub Enterprise). Empty means api.github.com.
	BaseURL string        `mapstructure:"base_url"`
	Runs    int           `mapstructure:"runs"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Report configures the persisted report.
type Report struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// weightTolerance bounds float drift when checking that weights sum to 1.
const weightTolerance = 1e-6

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// setDefaults registers every default with v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source_extensions", DefaultSourceExtensions)
	v.SetDefault("skip_dirs", DefaultSkipDirs)
	for name, w := range DefaultWeights {
		v.SetDefault("weights."+name, w)
	}

	v.SetDefault("structure.required", DefaultStructure.Required)

	v.SetDefault("tests.coverage_path", DefaultTests.CoveragePath)
	v.SetDefault("tests.fallback_paths", DefaultTests.FallbackPaths)
	v.SetDefault("tests.test_dirs", DefaultTests.TestDirs)
	v.SetDefault("tests.test_file_patterns", DefaultTests.TestFilePatterns)
	v.SetDefault("tests.run_command", DefaultTests.RunCommand)
	v.SetDefault("tests.run_ok_exit_codes", DefaultTests.RunOKExitCodes)
	v.SetDefault("tests.report_command", DefaultTests.ReportCommand)
	v.SetDefault("tests.timeout", DefaultTests.Timeout)

	v.SetDefault("dead_code.command", DefaultDeadCode.Command)
	v.SetDefault("dead_code.ok_exit_codes", DefaultDeadCode.OKExitCodes)
	v.SetDefault("dead_code.lines_per_finding", DefaultDeadCode.LinesPerFinding)
	v.SetDefault("dead_code.timeout", DefaultDeadCode.Timeout)

	v.SetDefault("security.command", DefaultSecurity.Command)
	v.SetDefault("security.ok_exit_codes", DefaultSecurity.OKExitCodes)
	for sev, pts := range DefaultSecurity.SeverityPoints {
		v.SetDefault("security.severity_points."+sev, pts)
	}
	v.SetDefault("security.penalty_ceiling", DefaultSecurity.PenaltyCeiling)
	v.SetDefault("security.heuristic_patterns", DefaultSecurity.HeuristicPatterns)
	v.SetDefault("security.heuristic_penalty", DefaultSecurity.HeuristicPenalty)
	v.SetDefault("security.timeout", DefaultSecurity.Timeout)

	v.SetDefault("docs.readme_file", DefaultDocs.ReadmeFile)
	v.SetDefault("docs.sections", DefaultDocs.Sections)
	v.SetDefault("docs.readme_weight", DefaultDocs.ReadmeWeight)
	v.SetDefault("docs.docstring_weight", DefaultDocs.DocstringWeight)
	v.SetDefault("docs.delimiters", DefaultDocs.Delimiters)
	v.SetDefault("docs.head_chars", DefaultDocs.HeadChars)

	v.SetDefault("ci.runs", DefaultCI.Runs)
	v.SetDefault("ci.timeout", DefaultCI.Timeout)

	v.SetDefault("report.path", DefaultReport.Path)
	v.SetDefault("report.format", DefaultReport.Format)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("db_path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("history_keep", DefaultHistoryKeep)
}

// Load reads configuration from cfgFile. When cfgFile is empty it looks for
// .repohealth.yaml in repoRoot and then for config.yaml in the default
// config directory. A missing file is not an error. Environment variables
// GITHUB_REPOSITORY, GITHUB_TOKEN and REPOHEALTH_COVERAGE_PATH override the
// file values.
func Load(cfgFile, repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	_ = v.BindEnv("repository", "GITHUB_REPOSITORY")
	_ = v.BindEnv("token", "GITHUB_TOKEN")
	_ = v.BindEnv("tests.coverage_path", "REPOHEALTH_COVERAGE_PATH")
	_ = v.BindEnv("ci.base_url", "GITHUB_API_URL")

	switch {
	case cfgFile != "":
		v.SetConfigFile(expandPath(cfgFile))
	case repoRoot != "" && fileExists(filepath.Join(repoRoot, RepoConfigFile)):
		v.SetConfigFile(filepath.Join(repoRoot, RepoConfigFile))
	default:
		v.SetConfigFile(filepath.Join(ConfigDir(), DefaultConfigFile))
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DBPath = expandPath(cfg.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config populated only with defaults.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	cfg.DBPath = expandPath(cfg.DBPath)
	return &cfg
}

// Validate checks the weight table and calibration constants.
func (c *Config) Validate() error {
	var unknown []string
	sum := 0.0
	for name, w := range c.Weights {
		if _, ok := DefaultWeights[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		if w < 0 {
			return fmt.Errorf("weight %q is negative: %v", name, w)
		}
		sum += w
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown metrics in weight table: %s", strings.Join(unknown, ", "))
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}

	if c.DeadCode.LinesPerFinding < 0 {
		return fmt.Errorf("dead_code.lines_per_finding must not be negative")
	}
	if c.Security.PenaltyCeiling <= 0 {
		return fmt.Errorf("security.penalty_ceiling must be positive")
	}
	if c.Docs.ReadmeWeight < 0 || c.Docs.DocstringWeight < 0 ||
		math.Abs(c.Docs.ReadmeWeight+c.Docs.DocstringWeight-1.0) > weightTolerance {
		return fmt.Errorf("docs weights must be non-negative and sum to 1.0")
	}
	if c.CI.Runs <= 0 {
		return fmt.Errorf("ci.runs must be positive")
	}
	if c.HistoryKeep < 0 {
		return fmt.Errorf("history_keep must not be negative")
	}
	return nil
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
