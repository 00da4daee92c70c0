package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates rel under root with content, creating parent dirs.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func coverageXML(rate string) string {
	return `<?xml version="1.0" ?>
<coverage version="7.4" line-rate="` + rate + `" branch-rate="0" timestamp="1700000000">
  <packages/>
</coverage>`
}

type fakeCoverageTool struct {
	rate   string
	err    error
	called int
}

func (f *fakeCoverageTool) Measure(_ context.Context, _ string, reportPath string) error {
	f.called++
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(reportPath, []byte(coverageXML(f.rate)), 0o644)
}

type fakeDetector struct {
	findings []string
	err      error
}

func (f fakeDetector) Findings(context.Context, string) ([]string, error) {
	return f.findings, f.err
}

type fakeScanner struct {
	findings []SecurityFinding
	err      error
}

func (f fakeScanner) Scan(context.Context, string) ([]SecurityFinding, error) {
	return f.findings, f.err
}

type fakeHistory struct {
	conclusions []string
	err         error

	owner, repo string
	n           int
}

func (f *fakeHistory) RecentConclusions(_ context.Context, owner, repo string, n int) ([]string, error) {
	f.owner, f.repo, f.n = owner, repo, n
	return f.conclusions, f.err
}

var errToolMissing = errors.New("executable file not found in $PATH")
