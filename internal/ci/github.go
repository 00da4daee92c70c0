// Package ci fetches CI run history from the GitHub Actions API.
package ci

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
)

// DefaultTimeout bounds a single API request.
const DefaultTimeout = 15 * time.Second

// Client lists workflow runs for a repository.
type Client struct {
	gh *github.Client
}

// NewClient builds a GitHub client authenticated with token. baseURL
// overrides the API endpoint when non-empty (GitHub Enterprise, tests).
func NewClient(token, baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	gh := github.NewClient(&http.Client{Timeout: timeout})
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing CI base url %q: %w", baseURL, err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh}, nil
}

// RecentConclusions returns the conclusion of each of the n most recent
// workflow runs of owner/repo. Runs still in progress have an empty
// conclusion.
func (c *Client) RecentConclusions(ctx context.Context, owner, repo string, n int) ([]string, error) {
	opts := &github.ListWorkflowRunsOptions{
		ListOptions: github.ListOptions{PerPage: n},
	}
	runs, _, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("listing workflow runs for %s/%s: %w", owner, repo, err)
	}
	if runs == nil {
		return nil, fmt.Errorf("listing workflow runs for %s/%s: empty response", owner, repo)
	}

	conclusions := make([]string, 0, len(runs.WorkflowRuns))
	for _, r := range runs.WorkflowRuns {
		conclusions = append(conclusions, r.GetConclusion())
	}
	if n > 0 && len(conclusions) > n {
		conclusions = conclusions[:n]
	}
	return conclusions, nil
}
