package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/output"
	"github.com/blackwell-systems/repohealth/internal/report"
	"github.com/blackwell-systems/repohealth/internal/score"
	"github.com/blackwell-systems/repohealth/internal/tools"
	"github.com/blackwell-systems/repohealth/internal/watcher"
)

var (
	watchFlagDebounce  time.Duration
	watchFlagNotify    bool
	watchFlagScoreDrop float64
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescore the repository whenever its files change",
	Long: `Watch scores the repository once, then watches its directories and
rescores after changes settle, rewriting the report and printing the
summary line each time. Build, VCS and dependency directories are ignored,
as are the report and coverage files written by scoring itself.

Alerts fire when the final score drops, a metric regresses or a metric loses
its data source. With --notify they are sent as desktop notifications.

Examples:
  repohealth watch
  repohealth watch ./service --debounce 5s --notify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlagDebounce, "debounce", 2*time.Second, "Quiet period after the last change before rescoring")
	watchCmd.Flags().BoolVar(&watchFlagNotify, "notify", false, "Send alerts as desktop notifications")
	watchCmd.Flags().Float64Var(&watchFlagScoreDrop, "alert-drop", watcher.DefaultThresholds.ScoreDrop, "Final score drop (points) that raises a critical alert")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	if !output.ColorEnabled(cfg.Output.Color && !flagNoColor) {
		output.SetNoColor(true)
	}

	engine := buildEngine(cfg, tools.ExecRunner{})
	reportPath := report.ResolvePath(root, cfg.Report.Path)

	w := watcher.New(root, watchFlagDebounce, cfg.SkipDirs,
		watcher.IgnoreFunc(root, cfg.SkipDirs, generatedPaths(root, cfg, reportPath)...),
		func(ctx context.Context) *score.HealthReport { return engine.Run(ctx, root) })
	w.Thresholds.ScoreDrop = watchFlagScoreDrop

	w.OnReport(func(rep *score.HealthReport) {
		if err := report.WriteFile(reportPath, rep, format); err != nil {
			slog.Error("watch: writing report failed", "path", reportPath, "err", err)
		}
		fmt.Printf("%s  %s\n", output.StyleMuted.Render(rep.GeneratedAt.Format("15:04:05")), rep.Summary())
	})
	ctx := cmd.Context()
	w.OnAlert(func(a watcher.Alert) {
		if watchFlagNotify {
			if err := watcher.Notify(ctx, a); err != nil {
				slog.Debug("watch: notification failed", "err", err)
			}
		}
		fmt.Printf("  %s %s: %s\n", alertStyle(a.Level), a.Title, a.Message)
	})

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", root)
	return w.Run(ctx)
}

// generatedPaths lists the files a scoring run writes itself, so that
// writing them does not trigger another run.
func generatedPaths(root string, cfg *config.Config, reportPath string) []string {
	paths := []string{reportPath}
	for _, p := range append([]string{cfg.Tests.CoveragePath}, cfg.Tests.FallbackPaths...) {
		if p != "" {
			paths = append(paths, report.ResolvePath(root, p))
		}
	}
	return paths
}

func alertStyle(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("[critical]")
	case "warning":
		return output.StyleWarning.Render("[warning]")
	default:
		return output.StyleMuted.Render("[" + level + "]")
	}
}
