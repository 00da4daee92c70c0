package metrics

import "context"

// CoverageTool runs the test suite under coverage instrumentation and writes
// an XML coverage report to reportPath.
type CoverageTool interface {
	Measure(ctx context.Context, root, reportPath string) error
}

// DeadCodeDetector reports unused-code findings for the tree at root, one
// entry per finding.
type DeadCodeDetector interface {
	Findings(ctx context.Context, root string) ([]string, error)
}

// SecurityFinding is one issue reported by a security scanner.
type SecurityFinding struct {
	Severity string `json:"issue_severity"`
	TestID   string `json:"test_id"`
	Filename string `json:"filename"`
	Line     int    `json:"line_number"`
	Text     string `json:"issue_text"`
}

// SecurityScanner scans the tree at root and returns its findings.
type SecurityScanner interface {
	Scan(ctx context.Context, root string) ([]SecurityFinding, error)
}

// RunHistory returns the conclusions ("success", "failure", ...) of the most
// recent n CI runs of owner/repo, newest first.
type RunHistory interface {
	RecentConclusions(ctx context.Context, owner, repo string, n int) ([]string, error)
}
