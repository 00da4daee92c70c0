package watcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
)

func report(final float64, results ...score.MetricScore) *score.HealthReport {
	return &score.HealthReport{FinalScore: final, Metrics: results}
}

func metric(name string, v float64, source string) score.MetricScore {
	return score.MetricScore{Name: name, Result: metrics.NewResult(v, metrics.Evidence{"source": source})}
}

func titles(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Level+" "+a.Title)
	}
	return out
}

func TestCompare_ScoreDrop(t *testing.T) {
	alerts := Compare(report(80), report(70), DefaultThresholds)
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Level)
	assert.Equal(t, "80.00 -> 70.00 (-10.00 points)", alerts[0].Message)
}

func TestCompare_SmallDropIsQuiet(t *testing.T) {
	assert.Empty(t, Compare(report(80), report(78), DefaultThresholds))
}

func TestCompare_ScoreGain(t *testing.T) {
	alerts := Compare(report(70), report(72.5), DefaultThresholds)
	assert.Equal(t, []string{"info Health score improved"}, titles(alerts))
}

func TestCompare_MetricRegressed(t *testing.T) {
	prev := report(50, metric(metrics.NameTests, 0.9, "report"))
	curr := report(50, metric(metrics.NameTests, 0.8, "report"))
	alerts := Compare(prev, curr, DefaultThresholds)
	assert.Equal(t, []string{"warning Metric regressed: tests"}, titles(alerts))
	assert.Equal(t, "0.90 -> 0.80", alerts[0].Message)
}

func TestCompare_MetricDegradedToDefault(t *testing.T) {
	prev := report(50, metric(metrics.NameSecurity, 1, "scanner"))
	curr := report(50, metric(metrics.NameSecurity, 1, metrics.SourceDefault))
	alerts := Compare(prev, curr, DefaultThresholds)
	assert.Equal(t, []string{"warning Metric degraded: security"}, titles(alerts))
	assert.Contains(t, alerts[0].Message, `"scanner"`)
}

func TestCompare_MetricWithoutSourceNeverDegrades(t *testing.T) {
	prev := report(50, score.MetricScore{Name: metrics.NameDocs, Result: metrics.NewResult(0.5, nil)})
	curr := report(50, metric(metrics.NameDocs, 0.5, metrics.SourceDefault))
	assert.Empty(t, Compare(prev, curr, DefaultThresholds))
}

func TestCompare_NewMetricIgnored(t *testing.T) {
	curr := report(50, metric(metrics.NameCI, 0, metrics.SourceDefault))
	assert.Empty(t, Compare(report(50), curr, DefaultThresholds))
}

func TestCheck_FirstReportIsBaseline(t *testing.T) {
	w := New(t.TempDir(), time.Second, nil, nil, nil)
	assert.Empty(t, w.Check(report(90)))
}

func TestCheck_SuppressesRepeatedAlerts(t *testing.T) {
	w := New(t.TempDir(), time.Second, nil, nil, nil)
	w.Check(report(90))

	first := w.Check(report(80))
	require.Len(t, first, 1)

	// The identical transition is not reported twice in a row.
	w.previous = report(90)
	assert.Empty(t, w.Check(report(80)))

	assert.Empty(t, w.Check(report(80)))
	assert.Len(t, w.Check(report(60)), 1)
}

func TestCheck_CustomThresholds(t *testing.T) {
	w := New(t.TempDir(), time.Second, nil, nil, nil)
	w.Thresholds.ScoreDrop = 1
	w.Check(report(90))
	assert.Equal(t, []string{"critical Health score dropped"}, titles(w.Check(report(88))))
}

func TestIgnoreFunc(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")
	ignore := IgnoreFunc(root, []string{"node_modules", "build"}, filepath.Join(root, "health_report.json"), "")

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "health_report.json"), true},
		{filepath.Join(root, ".git", "index"), true},
		{filepath.Join(root, "pkg", ".hidden.py"), true},
		{filepath.Join(root, "node_modules", "x", "y.js"), true},
		{filepath.Join(root, "build", "coverage.xml"), true},
		{filepath.Join(root, "src", "app.py"), false},
		{filepath.Join(root, "README.md"), false},
		{root, false},
		{filepath.Join(string(filepath.Separator), "elsewhere"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ignore(tc.path), tc.path)
	}
}

func TestNotifyFallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notifyFallback(&buf, Alert{Level: "warning", Title: "Metric regressed: ci", Message: "0.90 -> 0.70"}))
	assert.Equal(t, "[warning] Metric regressed: ci: 0.90 -> 0.70\n", buf.String())
}

func TestRun_RescoresAfterChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	var calls atomic.Int32
	reports := make(chan *score.HealthReport, 8)
	w := New(root, 50*time.Millisecond, nil, IgnoreFunc(root, nil), func(context.Context) *score.HealthReport {
		n := calls.Add(1)
		return report(float64(100 - 10*n))
	})
	w.OnReport(func(r *score.HealthReport) { reports <- r })
	alerts := make(chan Alert, 8)
	w.OnAlert(func(a Alert) { alerts <- a })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case r := <-reports:
		assert.Equal(t, 90.0, r.FinalScore)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial report")
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.py"), []byte("x = 1\n"), 0o644))

	select {
	case r := <-reports:
		assert.Equal(t, 80.0, r.FinalScore)
	case <-time.After(5 * time.Second):
		t.Fatal("no rescore after change")
	}

	select {
	case a := <-alerts:
		assert.Equal(t, "critical", a.Level)
	case <-time.After(time.Second):
		t.Fatal("no alert for score drop")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestNotifyCommand(t *testing.T) {
	alert := Alert{Level: "critical", Title: "Health score dropped", Message: "80.00 -> 70.00"}

	name, args := notifyCommand("linux", alert)
	assert.Equal(t, "notify-send", name)
	assert.Equal(t, []string{"--app-name=repohealth", "--urgency=critical", "repohealth: Health score dropped", "80.00 -> 70.00"}, args)

	name, args = notifyCommand("darwin", alert)
	assert.Equal(t, "osascript", name)
	require.Len(t, args, 2)
	assert.Contains(t, args[1], `subtitle "Health score dropped"`)

	name, _ = notifyCommand("windows", alert)
	assert.Empty(t, name)
}

func TestUrgency(t *testing.T) {
	assert.Equal(t, "critical", urgency("critical"))
	assert.Equal(t, "normal", urgency("warning"))
	assert.Equal(t, "low", urgency("info"))
}
