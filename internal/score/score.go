package score

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// Aggregate computes 100 × Σ weight × value over the metrics present in both
// results and weights. It is pure: identical inputs give identical output.
// Values are clamped before weighting and the sum is clamped to [0,100].
func Aggregate(results map[string]metrics.Result, weights Weights) float64 {
	sum := 0.0
	// Iterate in fixed order so float accumulation is reproducible.
	for _, name := range orderedNames(results) {
		sum += weights[name] * metrics.Clamp(results[name].Value)
	}
	return 100 * metrics.Clamp(sum)
}

// orderedNames returns the known metric names first, in report order,
// followed by any other names sorted.
func orderedNames(results map[string]metrics.Result) []string {
	names := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, n := range metrics.Names {
		if _, ok := results[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range results {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Engine invokes a fixed list of collectors once each, in order.
type Engine struct {
	collectors []metrics.Collector
	weights    Weights
	repository string
	now        func() time.Time
}

// NewEngine creates an Engine over collectors using weights.
func NewEngine(weights Weights, repository string, collectors ...metrics.Collector) *Engine {
	return &Engine{
		collectors: collectors,
		weights:    weights,
		repository: repository,
		now:        time.Now,
	}
}

// Run scores the repository at root. It never fails: each collector is
// isolated, and a collector that panics is recorded as 0 with the panic
// message as evidence.
func (e *Engine) Run(ctx context.Context, root string) *HealthReport {
	report := &HealthReport{
		RunID:      uuid.New().String(),
		Repository: e.repository,
		Root:       root,
		Metrics:    make([]MetricScore, 0, len(e.collectors)),
	}

	for _, c := range e.collectors {
		start := e.now()
		res := collect(ctx, c, root)
		elapsed := e.now().Sub(start)

		slog.Info("metric collected",
			"metric", c.Name(),
			"value", res.Value,
			"source", res.Evidence["source"],
			"duration", elapsed,
		)
		report.Metrics = append(report.Metrics, MetricScore{
			Name:     c.Name(),
			Result:   res,
			Weight:   e.weights[c.Name()],
			Duration: elapsed,
		})
	}

	report.FinalScore = Aggregate(report.Results(), e.weights)
	report.GeneratedAt = e.now().UTC()
	slog.Info("scoring complete", "root", root, "run_id", report.RunID, "final_score", report.FinalScore)
	return report
}

func collect(ctx context.Context, c metrics.Collector, root string) (res metrics.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("collector panicked", "metric", c.Name(), "panic", r)
			res = metrics.NewResult(0, metrics.Evidence{
				"source": metrics.SourceDefault,
				"error":  fmt.Sprintf("collector panicked: %v", r),
			})
		}
	}()
	return c.Collect(ctx, root)
}
