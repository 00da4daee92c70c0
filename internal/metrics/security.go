package metrics

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// SecurityCollector scores security-issue density from a penalty total.
type SecurityCollector struct {
	cfg     config.Security
	files   FileSet
	scanner SecurityScanner
}

// NewSecurityCollector creates a SecurityCollector. A nil scanner sends every
// run through the source heuristic.
func NewSecurityCollector(cfg config.Security, files FileSet, scanner SecurityScanner) *SecurityCollector {
	return &SecurityCollector{cfg: cfg, files: files, scanner: scanner}
}

func (c *SecurityCollector) Name() string { return NameSecurity }

type securityScan struct {
	penalty float64
	counts  map[string]int
	matched string
}

// Collect accumulates a penalty from scanner findings, or from the dynamic
// code execution heuristic when the scanner is unavailable.
func (c *SecurityCollector) Collect(ctx context.Context, root string) Result {
	strategies := []Strategy[securityScan]{
		{Name: "scanner", Run: func(ctx context.Context) (securityScan, error) {
			return c.scan(ctx, root)
		}},
		{Name: "heuristic", Run: func(context.Context) (securityScan, error) {
			return c.heuristic(root), nil
		}},
	}

	s, source, _ := firstAvailable(ctx, NameSecurity, strategies)
	ev := Evidence{
		"penalty": s.penalty,
		"source":  source,
	}
	if s.counts != nil {
		ev["findings"] = s.counts
	}
	if s.matched != "" {
		ev["matched_file"] = s.matched
	}
	return NewResult(SecurityValue(s.penalty, c.cfg.PenaltyCeiling), ev)
}

func (c *SecurityCollector) scan(ctx context.Context, root string) (securityScan, error) {
	if c.scanner == nil {
		return securityScan{}, fmt.Errorf("%w: no security scanner configured", ErrUnavailable)
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	findings, err := c.scanner.Scan(ctx, root)
	if err != nil {
		return securityScan{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s := securityScan{counts: map[string]int{}}
	for _, f := range findings {
		sev := strings.ToLower(strings.TrimSpace(f.Severity))
		s.counts[sev]++
		s.penalty += c.cfg.SeverityPoints[sev]
	}
	return s, nil
}

// heuristic applies a flat penalty when any source file contains one of the
// configured dynamic code execution patterns.
func (c *SecurityCollector) heuristic(root string) securityScan {
	for _, path := range c.files.Walk(root) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, pattern := range c.cfg.HeuristicPatterns {
			if pattern != "" && bytes.Contains(data, []byte(pattern)) {
				return securityScan{penalty: c.cfg.HeuristicPenalty, matched: relPath(root, path)}
			}
		}
	}
	return securityScan{}
}

// SecurityValue maps a penalty to a score: ceiling points or more score 0.
func SecurityValue(penalty, ceiling float64) float64 {
	if ceiling <= 0 {
		if penalty > 0 {
			return 0
		}
		return 1
	}
	return Clamp(1 - penalty/ceiling)
}
