package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blackwell-systems/repohealth/internal/report"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/store"
	"github.com/blackwell-systems/repohealth/internal/suggest"
)

// Backend performs the work behind the MCP tools. Paths are repository
// roots as given by the client; "" means the server's working directory.
type Backend interface {
	Score(ctx context.Context, path string) (*score.HealthReport, error)
	History(ctx context.Context, path string, n int) (repoKey string, runs []store.Run, err error)
	Suggest(ctx context.Context, path string) (*score.HealthReport, []suggest.Suggestion, error)
}

// ScoreResult is the result of score_repository.
type ScoreResult struct {
	Summary string         `json:"summary"`
	Report  map[string]any `json:"report"`
}

// HistoryResult is the result of get_score_history.
type HistoryResult struct {
	RepoKey string      `json:"repo_key"`
	Runs    []store.Run `json:"runs"`
}

// SuggestionsResult is the result of get_suggestions.
type SuggestionsResult struct {
	FinalScore  float64              `json:"final_score"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

var (
	pathSchema  = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Repository root (default: server working directory)"}},"additionalProperties":false}`)
	pathNSchema = json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Repository root (default: server working directory)"},"n":{"type":"integer","description":"Number of entries to return (default 5)"}},"additionalProperties":false}`)
)

// toolArgs is the union of the arguments accepted by the tools.
type toolArgs struct {
	Path string `json:"path"`
	N    int    `json:"n"`
}

const defaultN = 5

func parseArgs(raw json.RawMessage) (toolArgs, error) {
	var a toolArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &a); err != nil {
			return a, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if a.N < 0 {
		return a, errors.New("n must not be negative")
	}
	if a.N == 0 {
		a.N = defaultN
	}
	return a, nil
}

// addTools registers the MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "score_repository",
		Description: "Score a repository's health (0-100) from structure, tests, dead code, security, docs and CI, and write its report.",
		InputSchema: pathSchema,
		Handler:     s.handleScoreRepository,
	})
	s.registerTool(toolDef{
		Name:        "get_score_history",
		Description: "Last N recorded health scores for a repository, newest first.",
		InputSchema: pathNSchema,
		Handler:     s.handleGetScoreHistory,
	})
	s.registerTool(toolDef{
		Name:        "get_suggestions",
		Description: "Top N improvement suggestions for a repository, ranked by the score points they can recover.",
		InputSchema: pathNSchema,
		Handler:     s.handleGetSuggestions,
	})
}

func (s *Server) handleScoreRepository(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return nil, err
	}
	rep, err := s.backend.Score(ctx, args.Path)
	if err != nil {
		return nil, err
	}
	return ScoreResult{Summary: rep.Summary(), Report: report.Document(rep)}, nil
}

func (s *Server) handleGetScoreHistory(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return nil, err
	}
	key, runs, err := s.backend.History(ctx, args.Path, args.N)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return HistoryResult{RepoKey: key, Runs: runs}, nil
}

func (s *Server) handleGetSuggestions(ctx context.Context, raw json.RawMessage) (any, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return nil, err
	}
	rep, suggestions, err := s.backend.Suggest(ctx, args.Path)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > args.N {
		suggestions = suggestions[:args.N]
	}
	if suggestions == nil {
		suggestions = []suggest.Suggestion{}
	}
	return SuggestionsResult{FinalScore: rep.FinalScore, Suggestions: suggestions}, nil
}
