package tools

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// Vulture reports unused code through the vulture CLI.
type Vulture struct {
	runner Runner
	cfg    config.DeadCode
}

// NewVulture creates a Vulture detector.
func NewVulture(r Runner, cfg config.DeadCode) *Vulture {
	return &Vulture{runner: r, cfg: cfg}
}

// Findings returns one entry per non-empty output line.
func (v *Vulture) Findings(ctx context.Context, root string) ([]string, error) {
	out, err := run(ctx, v.runner, root, v.cfg.Command, v.cfg.OKExitCodes)
	if err != nil {
		return nil, err
	}
	return ParseFindings(out), nil
}

// ParseFindings splits line-oriented tool output into findings.
func ParseFindings(out []byte) []string {
	var findings []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			findings = append(findings, line)
		}
	}
	return findings
}
