package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/blackwell-systems/repohealth/internal/ci"
	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/tools"
)

// buildEngine wires the six collectors to their real data sources.
func buildEngine(cfg *config.Config, runner tools.Runner) *score.Engine {
	files := metrics.FileSet{Extensions: cfg.SourceExtensions, SkipDirs: cfg.SkipDirs}

	var history metrics.RunHistory
	if client, err := ci.NewClient(cfg.Token, cfg.CI.BaseURL, cfg.CI.Timeout); err != nil {
		slog.Warn("CI client unavailable", "err", err)
	} else {
		history = client
	}

	return score.NewEngine(score.Weights(cfg.Weights), cfg.Repository,
		metrics.NewStructureCollector(cfg.Structure),
		metrics.NewTestsCollector(cfg.Tests, cfg.SkipDirs, tools.NewCoverage(runner, cfg.Tests)),
		metrics.NewDeadCodeCollector(cfg.DeadCode, files, tools.NewVulture(runner, cfg.DeadCode)),
		metrics.NewSecurityCollector(cfg.Security, files, tools.NewBandit(runner, cfg.Security)),
		metrics.NewDocsCollector(cfg.Docs, files),
		metrics.NewCICollector(cfg.CI, cfg.Repository, cfg.Token, history),
	)
}

// resolveRoot returns the absolute, cleaned repository root for path.
func resolveRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	return abs, nil
}

// repoKey identifies a repository in the run history: the owner/name
// identity when configured, otherwise the absolute root path.
func repoKey(cfg *config.Config, root string) string {
	if cfg.Repository != "" {
		return cfg.Repository
	}
	return root
}
