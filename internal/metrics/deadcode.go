package metrics

import (
	"context"
	"fmt"
	"math"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// DeadCodeCollector scores the share of code not flagged as unused.
type DeadCodeCollector struct {
	cfg      config.DeadCode
	files    FileSet
	detector DeadCodeDetector
}

// NewDeadCodeCollector creates a DeadCodeCollector. A nil detector means the
// ratio always defaults to 0.
func NewDeadCodeCollector(cfg config.DeadCode, files FileSet, detector DeadCodeDetector) *DeadCodeCollector {
	return &DeadCodeCollector{cfg: cfg, files: files, detector: detector}
}

func (c *DeadCodeCollector) Name() string { return NameDeadCode }

type deadCodeScan struct {
	findings   int
	totalLines int
	ratio      float64
}

// Collect runs the detector and converts its finding count into a ratio.
// A missing or failing detector carries no penalty.
func (c *DeadCodeCollector) Collect(ctx context.Context, root string) Result {
	strategies := []Strategy[deadCodeScan]{
		{Name: "detector", Run: func(ctx context.Context) (deadCodeScan, error) {
			return c.scan(ctx, root)
		}},
	}

	s, source, _ := firstAvailable(ctx, NameDeadCode, strategies)
	return NewResult(1-s.ratio, Evidence{
		"dead_ratio":  s.ratio,
		"findings":    s.findings,
		"total_lines": s.totalLines,
		"source":      source,
	})
}

func (c *DeadCodeCollector) scan(ctx context.Context, root string) (deadCodeScan, error) {
	if c.detector == nil {
		return deadCodeScan{}, fmt.Errorf("%w: no dead-code detector configured", ErrUnavailable)
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	findings, err := c.detector.Findings(ctx, root)
	if err != nil {
		return deadCodeScan{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	total := 0
	for _, path := range c.files.Walk(root) {
		n, err := countLines(path)
		if err != nil {
			continue
		}
		total += n
	}

	return deadCodeScan{
		findings:   len(findings),
		totalLines: total,
		ratio:      DeadRatio(len(findings), total, c.cfg.LinesPerFinding),
	}, nil
}

// DeadRatio estimates the fraction of dead lines assuming each finding taints
// linesPerFinding lines. The result is clamped to [0,1]; an empty tree has
// ratio 0.
func DeadRatio(findings, totalLines int, linesPerFinding float64) float64 {
	if totalLines <= 0 {
		return 0
	}
	return Clamp(math.Min(1, float64(findings)*linesPerFinding/float64(totalLines)))
}
