package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/output"
	"github.com/blackwell-systems/repohealth/internal/report"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/store"
	"github.com/blackwell-systems/repohealth/internal/tools"
)

var (
	scoreFlagOutput    string
	scoreFlagFormat    string
	scoreFlagRepo      string
	scoreFlagCoverage  string
	scoreFlagJobs      int
	scoreFlagNoStore   bool
	scoreFlagQuiet     bool
	scoreFlagMinScore  float64
	scoreFlagFailUnder float64
)

var scoreCmd = &cobra.Command{
	Use:   "score [path...]",
	Short: "Score repository health and write the report",
	Long: `Score runs the six metric collectors against each repository path
(default: the current directory), writes the report file and prints a
one-line summary. Unavailable tools, reports or CI access degrade the
affected metric; the command still succeeds.

Several paths are scored concurrently with --jobs; each repository is
always scored sequentially.

Examples:
  repohealth score
  repohealth score --format prom --output /var/lib/node_exporter/repohealth.prom
  GITHUB_REPOSITORY=acme/widget GITHUB_TOKEN=... repohealth score
  repohealth score ./svc-a ./svc-b --jobs 2`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFlagOutput, "output", "o", "", "Report file path, relative to the repository root (default: health_report.json)")
	scoreCmd.Flags().StringVar(&scoreFlagFormat, "format", "", "Report format: json, yaml, prom (default: json)")
	scoreCmd.Flags().StringVar(&scoreFlagRepo, "repo", "", "Repository identity owner/name (default: $GITHUB_REPOSITORY)")
	scoreCmd.Flags().StringVar(&scoreFlagCoverage, "coverage", "", "Path to a pre-generated coverage XML report")
	scoreCmd.Flags().IntVar(&scoreFlagJobs, "jobs", 1, "Number of repositories scored concurrently")
	scoreCmd.Flags().BoolVar(&scoreFlagNoStore, "no-store", false, "Do not record the run in the history database")
	scoreCmd.Flags().BoolVarP(&scoreFlagQuiet, "quiet", "q", false, "Print only the summary line")
	scoreCmd.Flags().Float64Var(&scoreFlagMinScore, "min-score", 0, "Warn when a final score is below this value")
	scoreCmd.Flags().Float64Var(&scoreFlagFailUnder, "fail-under", 0, "Exit non-zero when a final score is below this value (0 disables)")

	rootCmd.AddCommand(scoreCmd)
}

// scoredRepo pairs a report with the configuration that produced it.
type scoredRepo struct {
	cfg        *config.Config
	report     *score.HealthReport
	reportPath string
}

func runScore(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	results := make([]scoredRepo, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, scoreFlagJobs))
	for i, p := range paths {
		g.Go(func() error {
			res, err := scoreRepository(ctx, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !scoreFlagNoStore {
		recordRuns(results)
	}
	if !output.ColorEnabled(results[0].cfg.Output.Color) {
		output.SetNoColor(true)
	}

	if flagJSON {
		return renderScoreJSON(results)
	}
	for _, r := range results {
		renderScore(r)
	}
	return checkThresholds(results)
}

// scoreRepository loads configuration for the repository at path, runs the
// engine and writes the report file.
func scoreRepository(ctx context.Context, path string) (scoredRepo, error) {
	root, err := resolveRoot(path)
	if err != nil {
		return scoredRepo{}, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return scoredRepo{}, fmt.Errorf("repository root %s is not a directory", root)
	}

	cfg, err := loadScoreConfig(root)
	if err != nil {
		return scoredRepo{}, err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return scoredRepo{}, err
	}
	engine := buildEngine(cfg, tools.ExecRunner{})
	rep := engine.Run(ctx, root)

	reportPath := report.ResolvePath(root, cfg.Report.Path)
	if err := report.WriteFile(reportPath, rep, format); err != nil {
		return scoredRepo{}, fmt.Errorf("writing report for %s: %w", root, err)
	}
	slog.Info("report written", "path", reportPath, "format", format)

	return scoredRepo{cfg: cfg, report: rep, reportPath: reportPath}, nil
}

// loadScoreConfig loads configuration and applies score flag overrides.
func loadScoreConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(flagConfig, root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if scoreFlagRepo != "" {
		cfg.Repository = scoreFlagRepo
	}
	if scoreFlagCoverage != "" {
		cfg.Tests.CoveragePath = scoreFlagCoverage
	}
	if scoreFlagOutput != "" {
		cfg.Report.Path = scoreFlagOutput
	}
	if scoreFlagFormat != "" {
		cfg.Report.Format = scoreFlagFormat
	}
	return cfg, nil
}

// recordRuns stores each report in the history database named by its own
// configuration. Storage problems are logged and never fail the run.
func recordRuns(results []scoredRepo) {
	var paths []string
	byPath := make(map[string][]scoredRepo)
	for _, r := range results {
		if _, ok := byPath[r.cfg.DBPath]; !ok {
			paths = append(paths, r.cfg.DBPath)
		}
		byPath[r.cfg.DBPath] = append(byPath[r.cfg.DBPath], r)
	}
	for _, path := range paths {
		recordRunsTo(path, byPath[path])
	}
}

func recordRunsTo(path string, results []scoredRepo) {
	db, err := store.Open(path)
	if err != nil {
		slog.Warn("run history unavailable", "path", path, "err", err)
		return
	}
	defer func() { _ = db.Close() }()

	for _, r := range results {
		run, values := toStoreRun(r.cfg, r.report)
		if err := db.InsertRun(run, values); err != nil {
			slog.Warn("recording run failed", "run_id", run.ID, "err", err)
			continue
		}
		if keep := r.cfg.HistoryKeep; keep > 0 {
			if n, err := db.PruneRuns(run.RepoKey, keep); err != nil {
				slog.Warn("pruning run history failed", "repo", run.RepoKey, "err", err)
			} else if n > 0 {
				slog.Debug("pruned run history", "repo", run.RepoKey, "removed", n)
			}
		}
	}
}

// toStoreRun converts a report into its persisted form.
func toStoreRun(cfg *config.Config, rep *score.HealthReport) (*store.Run, []store.MetricValue) {
	run := &store.Run{
		ID:         rep.RunID,
		TakenAt:    rep.GeneratedAt,
		RepoKey:    repoKey(cfg, rep.Root),
		Repository: rep.Repository,
		Root:       rep.Root,
		FinalScore: rep.FinalScore,
		Version:    appVersion,
	}
	values := make([]store.MetricValue, 0, len(rep.Metrics))
	for _, m := range rep.Metrics {
		evidence, err := json.Marshal(m.Result.Evidence)
		if err != nil {
			evidence = nil
		}
		values = append(values, store.MetricValue{
			RunID:    rep.RunID,
			Metric:   m.Name,
			Value:    m.Result.Value,
			Weight:   m.Weight,
			Evidence: string(evidence),
		})
	}
	return run, values
}

func renderScoreJSON(results []scoredRepo) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(results) == 1 {
		return enc.Encode(report.Document(results[0].report))
	}
	docs := make(map[string]any, len(results))
	for _, r := range results {
		docs[r.report.Root] = report.Document(r.report)
	}
	return enc.Encode(docs)
}

func renderScore(r scoredRepo) {
	rep := r.report
	if scoreFlagQuiet {
		fmt.Println(rep.Summary())
		return
	}

	fmt.Println(output.Section("Repository Health: " + rep.Root))
	fmt.Println()

	tbl := output.NewTable("Metric", "Value", "Weight", "Source", "Detail").AlignRight(1, 2)
	for _, m := range rep.Metrics {
		source, _ := m.Result.Evidence["source"].(string)
		tbl.AddRow(
			m.Name,
			output.MetricValue(m.Result.Value),
			fmt.Sprintf("%.2f", m.Weight),
			output.StyleMuted.Render(source),
			evidenceDetail(m.Result.Evidence),
		)
	}
	tbl.Print()

	fmt.Println()
	band := output.BandFor(rep.FinalScore)
	fmt.Printf(" %s %s %s\n", output.StyleLabel.Render("Final score:"), output.ScoreBar(rep.FinalScore, 20), band.Style().Render(band.String()))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Report:"), output.StyleMuted.Render(r.reportPath))
	fmt.Println()
	fmt.Println(rep.Summary())
}

// evidenceDetail condenses evidence into a short single-line description.
func evidenceDetail(ev map[string]any) string {
	if msg, ok := ev["error"].(string); ok {
		return output.StyleWarning.Render(msg)
	}
	var parts []string
	for _, key := range []string{"coverage_pct", "dead_ratio", "penalty", "docstring_ratio", "runs", "successful", "present", "expected"} {
		if v, ok := ev[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, formatEvidence(v)))
		}
	}
	return strings.Join(parts, " ")
}

func formatEvidence(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

// checkThresholds applies --min-score (warning) and --fail-under (error).
func checkThresholds(results []scoredRepo) error {
	var failing []string
	for _, r := range results {
		if scoreFlagMinScore > 0 && r.report.FinalScore < scoreFlagMinScore {
			slog.Warn("score below minimum", "root", r.report.Root, "score", r.report.FinalScore, "min", scoreFlagMinScore)
		}
		if scoreFlagFailUnder > 0 && r.report.FinalScore < scoreFlagFailUnder {
			failing = append(failing, fmt.Sprintf("%s (%.2f)", r.report.Root, r.report.FinalScore))
		}
	}
	if len(failing) > 0 {
		return fmt.Errorf("score below %.2f: %s", scoreFlagFailUnder, strings.Join(failing, ", "))
	}
	return nil
}
