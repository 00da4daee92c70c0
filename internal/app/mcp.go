package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/mcp"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/store"
	"github.com/blackwell-systems/repohealth/internal/suggest"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing repository health tools",
	Long: `Start a Model Context Protocol stdio server. The server exposes three
tools:

  score_repository   Score a repository and write its report
  get_score_history  Last N recorded scores for a repository
  get_suggestions    Top N ranked improvement suggestions

Example client configuration:
  {"mcpServers":{"repohealth":{"command":"repohealth","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv := mcp.NewServer(mcpBackend{}, appVersion)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}

// mcpBackend serves MCP tool calls with the same code paths as the CLI
// commands.
type mcpBackend struct{}

func (mcpBackend) Score(ctx context.Context, path string) (*score.HealthReport, error) {
	res, err := scoreRepository(ctx, defaultPath(path))
	if err != nil {
		return nil, err
	}
	recordRuns([]scoredRepo{res})
	return res.report, nil
}

func (mcpBackend) History(_ context.Context, path string, n int) (string, []store.Run, error) {
	cfg, root, err := loadRepoConfig(path)
	if err != nil {
		return "", nil, err
	}
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return "", nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	key := repoKey(cfg, root)
	runs, err := db.RecentRuns(key, n)
	if err != nil {
		return "", nil, fmt.Errorf("loading runs: %w", err)
	}
	return key, runs, nil
}

// Suggest uses the latest recorded run, scoring the repository when none
// exists yet.
func (b mcpBackend) Suggest(ctx context.Context, path string) (*score.HealthReport, []suggest.Suggestion, error) {
	cfg, root, err := loadRepoConfig(path)
	if err != nil {
		return nil, nil, err
	}
	rep, err := latestReport(cfg, root)
	if err != nil {
		return nil, nil, err
	}
	if rep == nil {
		if rep, err = b.Score(ctx, root); err != nil {
			return nil, nil, err
		}
	}
	return rep, suggest.NewEngine(cfg.Docs).Run(suggest.FromReport(rep)), nil
}

func defaultPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}

// loadRepoConfig resolves path and loads the configuration for it.
func loadRepoConfig(path string) (*config.Config, string, error) {
	root, err := resolveRoot(defaultPath(path))
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(flagConfig, root)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, root, nil
}
