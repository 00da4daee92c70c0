package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// Bandit scans Python sources with the bandit CLI in JSON mode.
type Bandit struct {
	runner Runner
	cfg    config.Security
}

// NewBandit creates a Bandit scanner.
func NewBandit(r Runner, cfg config.Security) *Bandit {
	return &Bandit{runner: r, cfg: cfg}
}

// Scan runs bandit over root and decodes its findings.
func (b *Bandit) Scan(ctx context.Context, root string) ([]metrics.SecurityFinding, error) {
	out, err := run(ctx, b.runner, root, b.cfg.Command, b.cfg.OKExitCodes)
	if err != nil {
		return nil, err
	}
	return ParseBandit(out)
}

type banditReport struct {
	Results *[]metrics.SecurityFinding `json:"results"`
}

// ParseBandit decodes bandit's JSON report. A document without a results
// array is malformed.
func ParseBandit(data []byte) ([]metrics.SecurityFinding, error) {
	var rep banditReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding bandit report: %w", err)
	}
	if rep.Results == nil {
		return nil, fmt.Errorf("decoding bandit report: missing results array")
	}
	return *rep.Results, nil
}
