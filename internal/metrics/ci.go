package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/config"
)

// ConclusionSuccess is the run conclusion counted as a passing run.
const ConclusionSuccess = "success"

// CICollector scores the success rate of recent CI runs.
type CICollector struct {
	cfg        config.CI
	repository string
	token      string
	history    RunHistory
}

// NewCICollector creates a CICollector for repository ("owner/name")
// authenticated with token.
func NewCICollector(cfg config.CI, repository, token string, history RunHistory) *CICollector {
	return &CICollector{cfg: cfg, repository: repository, token: token, history: history}
}

func (c *CICollector) Name() string { return NameCI }

type ciRuns struct {
	total      int
	successful int
}

// Collect queries the run history. Missing configuration or any request
// failure yields 0 with the cause recorded under "error".
func (c *CICollector) Collect(ctx context.Context, _ string) Result {
	strategies := []Strategy[ciRuns]{
		{Name: "api", Run: c.fetch},
	}

	runs, source, attempts := firstAvailable(ctx, NameCI, strategies)
	if source == SourceDefault {
		ev := Evidence{"source": source}
		if err := lastError(attempts); err != nil {
			ev["error"] = strings.TrimPrefix(err.Error(), ErrUnavailable.Error()+": ")
		}
		return NewResult(0, ev)
	}

	return NewResult(float64(runs.successful)/float64(runs.total), Evidence{
		"runs":       runs.total,
		"successful": runs.successful,
		"source":     source,
	})
}

func (c *CICollector) fetch(ctx context.Context) (ciRuns, error) {
	if c.token == "" {
		return ciRuns{}, fmt.Errorf("%w: missing credential (GITHUB_TOKEN not set)", ErrUnavailable)
	}
	if c.repository == "" {
		return ciRuns{}, fmt.Errorf("%w: missing repository identity (GITHUB_REPOSITORY not set)", ErrUnavailable)
	}
	owner, name, err := SplitRepository(c.repository)
	if err != nil {
		return ciRuns{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if c.history == nil {
		return ciRuns{}, fmt.Errorf("%w: no CI provider configured", ErrUnavailable)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	conclusions, err := c.history.RecentConclusions(ctx, owner, name, c.cfg.Runs)
	if err != nil {
		return ciRuns{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(conclusions) == 0 {
		return ciRuns{}, fmt.Errorf("%w: no workflow runs returned", ErrUnavailable)
	}

	runs := ciRuns{total: len(conclusions)}
	for _, conclusion := range conclusions {
		if conclusion == ConclusionSuccess {
			runs.successful++
		}
	}
	return runs, nil
}

// ErrBadRepository is returned by SplitRepository for identities that are
// not of the form owner/name.
var ErrBadRepository = errors.New("repository identity must be owner/name")

// SplitRepository splits an "owner/name" identity.
func SplitRepository(identity string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(identity), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadRepository, identity)
	}
	return owner, name, nil
}
