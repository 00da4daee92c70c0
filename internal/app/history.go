package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/output"
	"github.com/blackwell-systems/repohealth/internal/store"
)

var (
	historyFlagLimit   int
	historyFlagCompare int
	historyFlagRepo    string
)

var historyCmd = &cobra.Command{
	Use:   "history [path]",
	Short: "Show recorded scores and compare the latest run with an earlier one",
	Long: `History lists the most recent scoring runs recorded for a repository
and shows per-metric deltas between the latest run and the Nth previous run.

Runs are keyed by repository identity (owner/name) when configured,
otherwise by the absolute repository path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 10, "Number of runs to list")
	historyCmd.Flags().IntVar(&historyFlagCompare, "compare", 1, "Compare against Nth previous run (1 = the run before the latest)")
	historyCmd.Flags().StringVar(&historyFlagRepo, "repo", "", "Repository identity owner/name (default: $GITHUB_REPOSITORY)")
	rootCmd.AddCommand(historyCmd)
}

// historyOutput is the JSON-serializable result of the history command.
type historyOutput struct {
	RepoKey string         `json:"repo_key"`
	Runs    []store.Run    `json:"runs"`
	Diff    *store.RunDiff `json:"diff,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flagConfig, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if historyFlagRepo != "" {
		cfg.Repository = historyFlagRepo
	}
	if !output.ColorEnabled(cfg.Output.Color) {
		output.SetNoColor(true)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	key := repoKey(cfg, root)
	limit := max(historyFlagLimit, historyFlagCompare+1)
	runs, err := db.RecentRuns(key, limit)
	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	var diff *store.RunDiff
	if historyFlagCompare > 0 && len(runs) > historyFlagCompare {
		diff, err = db.Diff(&runs[historyFlagCompare], &runs[0])
		if err != nil {
			return fmt.Errorf("comparing runs: %w", err)
		}
	}
	if len(runs) > historyFlagLimit {
		runs = runs[:historyFlagLimit]
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(historyOutput{RepoKey: key, Runs: runs, Diff: diff})
	}

	renderHistory(key, runs, diff)
	return nil
}

func renderHistory(key string, runs []store.Run, diff *store.RunDiff) {
	fmt.Println(output.Section("Score History: " + key))
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println(output.StyleMuted.Render(" No runs recorded. Run 'repohealth score' first."))
		fmt.Println()
		return
	}

	tbl := output.NewTable("Taken", "Score", "Run", "Version")
	for _, r := range runs {
		tbl.AddRow(
			r.TakenAt.Local().Format("2006-01-02 15:04"),
			output.ScoreBar(r.FinalScore, 20),
			shortID(r.ID),
			r.Version,
		)
	}
	tbl.Print()

	if diff == nil {
		fmt.Println()
		return
	}

	fmt.Println(output.Section(fmt.Sprintf("Change since %s", diff.Previous.TakenAt.Local().Format("2006-01-02 15:04"))))
	fmt.Println()
	dt := output.NewTable("Metric", "Previous", "Current", "Trend").AlignRight(1, 2)
	for _, d := range diff.Deltas {
		dt.AddRow(d.Name, formatDeltaValue(d.Name, d.Previous), formatDeltaValue(d.Name, d.Current), output.TrendArrow(d.Delta))
	}
	dt.Print()
	fmt.Println()
}

func formatDeltaValue(name string, v float64) string {
	if name == "final_score" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.3f", v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
