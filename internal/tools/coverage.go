package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// Coverage runs the test suite under coverage.py and exports an XML report.
type Coverage struct {
	runner Runner
	cfg    config.Tests
}

// NewCoverage creates a Coverage tool.
func NewCoverage(r Runner, cfg config.Tests) *Coverage {
	return &Coverage{runner: r, cfg: cfg}
}

// Measure runs the instrumented test command and then the report command
// with reportPath appended. Test failures listed in RunOKExitCodes still
// produce a report.
func (c *Coverage) Measure(ctx context.Context, root, reportPath string) error {
	if _, err := run(ctx, c.runner, root, c.cfg.RunCommand, c.cfg.RunOKExitCodes); err != nil {
		return fmt.Errorf("running tests: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		return err
	}
	cmd := append(slices.Clone(c.cfg.ReportCommand), reportPath)
	if _, err := run(ctx, c.runner, root, cmd, nil); err != nil {
		return fmt.Errorf("exporting coverage report: %w", err)
	}
	return nil
}
