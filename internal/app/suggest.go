package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/output"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/store"
	"github.com/blackwell-systems/repohealth/internal/suggest"
	"github.com/blackwell-systems/repohealth/internal/tools"
)

var (
	suggestLimit  int
	suggestMetric string
	suggestFresh  bool
	suggestRepo   string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [path]",
	Short: "Generate ranked improvement recommendations",
	Long: `Suggest reads the latest recorded run for the repository and turns each
metric's evidence into actionable recommendations. Suggestions are ranked by
the number of final-score points they can recover.

With --fresh the repository is scored first instead of using history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "Maximum number of suggestions to show")
	suggestCmd.Flags().StringVar(&suggestMetric, "metric", "", "Filter by metric ("+strings.Join(metrics.Names, ", ")+")")
	suggestCmd.Flags().BoolVar(&suggestFresh, "fresh", false, "Score the repository now instead of reading the latest recorded run")
	suggestCmd.Flags().StringVar(&suggestRepo, "repo", "", "Repository identity owner/name (default: $GITHUB_REPOSITORY)")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
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
	if suggestRepo != "" {
		cfg.Repository = suggestRepo
	}
	if !output.ColorEnabled(cfg.Output.Color) {
		output.SetNoColor(true)
	}

	var rep *score.HealthReport
	if suggestFresh {
		rep = buildEngine(cfg, tools.ExecRunner{}).Run(cmd.Context(), root)
	} else {
		rep, err = latestReport(cfg, root)
		if err != nil {
			return err
		}
		if rep == nil {
			return fmt.Errorf("no recorded runs for %s; run 'repohealth score' first or pass --fresh", repoKey(cfg, root))
		}
	}

	suggestions := suggest.NewEngine(cfg.Docs).Run(suggest.FromReport(rep))
	if suggestMetric != "" {
		suggestions = filterByMetric(suggestions, suggestMetric)
	}
	if suggestLimit > 0 && len(suggestions) > suggestLimit {
		suggestions = suggestions[:suggestLimit]
	}

	if flagJSON {
		return outputSuggestJSON(suggestions)
	}
	renderSuggestions(rep, suggestions)
	return nil
}

// latestReport rebuilds the most recent recorded report for the repository,
// or returns nil when none exists.
func latestReport(cfg *config.Config, root string) (*score.HealthReport, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	runs, err := db.RecentRuns(repoKey(cfg, root), 1)
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	values, err := db.MetricValues(runs[0].ID)
	if err != nil {
		return nil, fmt.Errorf("loading metric values: %w", err)
	}
	return fromStoreRun(&runs[0], values), nil
}

// fromStoreRun is the inverse of toStoreRun. Evidence that fails to decode
// is left empty.
func fromStoreRun(run *store.Run, values []store.MetricValue) *score.HealthReport {
	rep := &score.HealthReport{
		RunID:       run.ID,
		Repository:  run.Repository,
		Root:        run.Root,
		GeneratedAt: run.TakenAt,
		FinalScore:  run.FinalScore,
	}
	for _, v := range values {
		var ev metrics.Evidence
		if v.Evidence != "" {
			_ = json.Unmarshal([]byte(v.Evidence), &ev)
		}
		rep.Metrics = append(rep.Metrics, score.MetricScore{
			Name:   v.Metric,
			Result: metrics.NewResult(v.Value, ev),
			Weight: v.Weight,
		})
	}
	return rep
}

func filterByMetric(suggestions []suggest.Suggestion, metric string) []suggest.Suggestion {
	var filtered []suggest.Suggestion
	for _, s := range suggestions {
		if strings.EqualFold(s.Metric, metric) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func outputSuggestJSON(suggestions []suggest.Suggestion) error {
	if suggestions == nil {
		suggestions = []suggest.Suggestion{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(suggestions)
}

func renderSuggestions(rep *score.HealthReport, suggestions []suggest.Suggestion) {
	fmt.Println(output.Section("Suggestions: " + rep.Root))
	fmt.Println()
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Current score:"), output.ScoreBar(rep.FinalScore, 20))
	fmt.Println()

	if len(suggestions) == 0 {
		fmt.Println(output.StyleSuccess.Render(" Nothing to suggest."))
		fmt.Println()
		return
	}

	for i, s := range suggestions {
		fmt.Printf(" %d. %s %s\n", i+1, priorityLabel(s.Priority), output.StyleBold.Render(s.Title))
		fmt.Printf("    %s\n", s.Description)
		fmt.Printf("    %s\n", output.StyleMuted.Render(fmt.Sprintf("%s, up to +%.2f points", s.Metric, s.ImpactScore)))
		fmt.Println()
	}
}

func priorityLabel(p int) string {
	switch p {
	case suggest.PriorityCritical:
		return output.StyleError.Render("[critical]")
	case suggest.PriorityHigh:
		return output.StyleWarning.Render("[high]")
	case suggest.PriorityMedium:
		return "[medium]"
	default:
		return output.StyleMuted.Render("[low]")
	}
}
