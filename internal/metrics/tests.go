package metrics

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// TestsCollector scores line coverage. It prefers an existing coverage
// report, falls back to an instrumented test run when tests exist, and
// otherwise scores the repository as untested.
type TestsCollector struct {
	cfg      config.Tests
	skipDirs []string
	tool     CoverageTool
}

// NewTestsCollector creates a TestsCollector. tool may be nil, in which case
// the instrumented strategy is always unavailable.
func NewTestsCollector(cfg config.Tests, skipDirs []string, tool CoverageTool) *TestsCollector {
	return &TestsCollector{cfg: cfg, skipDirs: skipDirs, tool: tool}
}

func (c *TestsCollector) Name() string { return NameTests }

type coverageMeasurement struct {
	ratio float64
	path  string
}

// Collect determines the coverage ratio through the report → instrumented
// strategy chain.
func (c *TestsCollector) Collect(ctx context.Context, root string) Result {
	strategies := []Strategy[coverageMeasurement]{
		{Name: "report", Run: func(context.Context) (coverageMeasurement, error) {
			return c.fromReport(root)
		}},
		{Name: "instrumented", Run: func(ctx context.Context) (coverageMeasurement, error) {
			return c.instrument(ctx, root)
		}},
	}

	m, source, _ := firstAvailable(ctx, NameTests, strategies)
	ev := Evidence{
		"coverage_pct": round2(m.ratio * 100),
		"source":       source,
	}
	if m.path != "" {
		ev["report_path"] = relPath(root, m.path)
	}
	return NewResult(m.ratio, ev)
}

// reportCandidates lists the configured report path followed by the
// conventional fallbacks, resolved against root and deduplicated.
func (c *TestsCollector) reportCandidates(root string) []string {
	var out []string
	for _, p := range append([]string{c.cfg.CoveragePath}, c.cfg.FallbackPaths...) {
		if p == "" {
			continue
		}
		p = resolve(root, p)
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *TestsCollector) fromReport(root string) (coverageMeasurement, error) {
	for _, path := range c.reportCandidates(root) {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		ratio, err := ParseCoverageFile(path)
		if err != nil {
			return coverageMeasurement{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
		}
		return coverageMeasurement{ratio: ratio, path: path}, nil
	}
	return coverageMeasurement{}, fmt.Errorf("%w: no coverage report found", ErrUnavailable)
}

func (c *TestsCollector) instrument(ctx context.Context, root string) (coverageMeasurement, error) {
	if !c.hasTests(root) {
		return coverageMeasurement{}, fmt.Errorf("%w: no tests found", ErrUnavailable)
	}
	if c.tool == nil {
		return coverageMeasurement{}, fmt.Errorf("%w: no coverage tool configured", ErrUnavailable)
	}

	path := resolve(root, c.cfg.CoveragePath)
	if c.cfg.CoveragePath == "" {
		path = resolve(root, config.DefaultTests.CoveragePath)
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	if err := c.tool.Measure(ctx, root, path); err != nil {
		return coverageMeasurement{}, fmt.Errorf("%w: coverage run: %w", ErrUnavailable, err)
	}
	ratio, err := ParseCoverageFile(path)
	if err != nil {
		return coverageMeasurement{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return coverageMeasurement{ratio: ratio, path: path}, nil
}

// hasTests reports whether root contains a test directory or any file
// matching the configured test file patterns.
func (c *TestsCollector) hasTests(root string) bool {
	for _, dir := range c.cfg.TestDirs {
		if info, err := os.Stat(filepath.Join(root, dir)); err == nil && info.IsDir() {
			return true
		}
	}
	if len(c.cfg.TestFilePatterns) == 0 {
		return false
	}

	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		if d.IsDir() {
			if path != root && slices.Contains(c.skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		for _, pattern := range c.cfg.TestFilePatterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				found = true
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
