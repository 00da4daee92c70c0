package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GITHUB_REPOSITORY", "GITHUB_TOKEN", "REPOHEALTH_COVERAGE_PATH", "GITHUB_API_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultWeights, cfg.Weights)
	assert.Equal(t, DefaultStructure.Required, cfg.Structure.Required)
	assert.Equal(t, 30, cfg.CI.Runs)
	assert.Equal(t, 15*time.Second, cfg.CI.Timeout)
	assert.Equal(t, 10.0, cfg.DeadCode.LinesPerFinding)
	assert.Equal(t, 5.0, cfg.Security.SeverityPoints["high"])
	assert.Equal(t, "health_report.json", cfg.Report.Path)
	assert.Equal(t, DefaultHistoryKeep, cfg.HistoryKeep)
	assert.NotContains(t, cfg.DBPath, "~")
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range DefaultWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, weightTolerance)
}

func TestLoad_ExplicitFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "custom.yaml", `
repository: acme/widget
weights:
  structure: 0.0
  tests: 0.5
  dead_code: 0.0
  security: 0.0
  docs: 0.0
  ci: 0.5
ci:
  runs: 10
  timeout: 3s
docs:
  sections: [install, usage]
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "acme/widget", cfg.Repository)
	assert.Equal(t, 0.5, cfg.Weights["tests"])
	assert.Equal(t, 10, cfg.CI.Runs)
	assert.Equal(t, 3*time.Second, cfg.CI.Timeout)
	assert.Equal(t, []string{"install", "usage"}, cfg.Docs.Sections)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultSecurity.PenaltyCeiling, cfg.Security.PenaltyCeiling)
}

func TestLoad_RepoConfigPickedUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, RepoConfigFile, "report:\n  format: yaml\n")

	cfg, err := Load("", root)
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Report.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "c.yaml", "repository: from/file\ntoken: file-token\n")
	t.Setenv("GITHUB_REPOSITORY", "from/env")
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("REPOHEALTH_COVERAGE_PATH", "out/cov.xml")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "from/env", cfg.Repository)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "out/cov.xml", cfg.Tests.CoveragePath)
}

func TestLoad_MissingExplicitFileIsNotAnError(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights, cfg.Weights)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "bad.yaml", "weights: [unclosed\n")
	_, err := Load(path, "")
	assert.ErrorContains(t, err, "reading config")
}

func TestLoad_WeightsNotSummingToOne(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "w.yaml", "weights:\n  tests: 0.9\n")
	_, err := Load(path, "")
	assert.ErrorContains(t, err, "weights must sum to 1.0")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown metric", func(c *Config) { c.Weights["style"] = 0 }, "unknown metrics"},
		{"negative weight", func(c *Config) { c.Weights["tests"] = -0.25; c.Weights["ci"] = 0.7 }, "negative"},
		{"negative lines per finding", func(c *Config) { c.DeadCode.LinesPerFinding = -1 }, "lines_per_finding"},
		{"zero ceiling", func(c *Config) { c.Security.PenaltyCeiling = 0 }, "penalty_ceiling"},
		{"docs weights", func(c *Config) { c.Docs.ReadmeWeight = 0.9 }, "docs weights"},
		{"no runs", func(c *Config) { c.CI.Runs = 0 }, "ci.runs"},
		{"negative history", func(c *Config) { c.HistoryKeep = -1 }, "history_keep"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x/y"), expandPath("~/x/y"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "rel", expandPath("rel"))
}
