package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/blackwell-systems/repohealth/internal/config"
	"github.com/blackwell-systems/repohealth/internal/metrics"
	"github.com/blackwell-systems/repohealth/internal/score"
)

func sampleReport() *score.HealthReport {
	return &score.HealthReport{
		RunID:       "run-1",
		Repository:  "acme/widget",
		Root:        "/repo",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Metrics: []score.MetricScore{
			{Name: metrics.NameTests, Weight: 0.6, Result: metrics.NewResult(0.87, metrics.Evidence{
				"coverage_pct": 87.0,
				"source":       "report",
			})},
			{Name: metrics.NameCI, Weight: 0.4, Result: metrics.NewResult(0, metrics.Evidence{
				"error": "missing token",
			})},
		},
		FinalScore: 52.2,
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":       FormatJSON,
		" JSON ":     FormatJSON,
		"yaml":       FormatYAML,
		"yml":        FormatYAML,
		"prom":       FormatProm,
		"prometheus": FormatProm,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, "unsupported report format")
}

func TestWrite_JSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc, 3)

	var final float64
	require.NoError(t, json.Unmarshal(doc[FinalScoreKey], &final))
	assert.Equal(t, 52.2, final)

	var pair []any
	require.NoError(t, json.Unmarshal(doc[metrics.NameTests], &pair))
	require.Len(t, pair, 2)
	assert.Equal(t, 0.87, pair[0])
	ev, ok := pair[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 87.0, ev["coverage_pct"])
	assert.Equal(t, "report", ev["source"])

	require.NoError(t, json.Unmarshal(doc[metrics.NameCI], &pair))
	assert.Equal(t, 0.0, pair[0])
	assert.Equal(t, "missing token", pair[1].(map[string]any)["error"])
}

func TestWrite_YAMLMirrorsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 52.2, doc[FinalScoreKey])

	pair, ok := doc[metrics.NameTests].([]any)
	require.True(t, ok)
	require.Len(t, pair, 2)
	assert.Equal(t, 0.87, pair[0])
	assert.Equal(t, "report", pair[1].(map[string]any)["source"])
}

func TestWrite_Prometheus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatProm))

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(&buf)
	require.NoError(t, err)
	require.Contains(t, families, promFinalScore)
	require.Contains(t, families, promMetricValue)
	require.Contains(t, families, promWeight)

	final := families[promFinalScore].GetMetric()
	require.Len(t, final, 1)
	assert.Equal(t, 52.2, final[0].GetGauge().GetValue())
	require.Len(t, final[0].GetLabel(), 1)
	assert.Equal(t, "repository", final[0].GetLabel()[0].GetName())
	assert.Equal(t, "acme/widget", final[0].GetLabel()[0].GetValue())

	values := map[string]float64{}
	for _, m := range families[promMetricValue].GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "metric" {
				values[l.GetValue()] = m.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{metrics.NameTests: 0.87, metrics.NameCI: 0}, values)
}

func TestWrite_PrometheusWithoutRepository(t *testing.T) {
	rep := sampleReport()
	rep.Repository = ""

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, FormatProm))
	assert.Contains(t, buf.String(), "repohealth_final_score 52.2\n")
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, sampleReport(), Format("csv")))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "health_report.json")

	require.NoError(t, WriteFile(path, sampleReport(), FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"final_score": 52.2`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health_report.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteFile(path, sampleReport(), FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestWriteFile_NonFiniteCoverageStillWritten(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "coverage.xml"), []byte(`<coverage line-rate="NaN"/>`), 0o644))

	tests := metrics.NewTestsCollector(config.DefaultTests, config.DefaultSkipDirs, nil)
	rep := score.NewEngine(score.Weights{metrics.NameTests: 1}, "", tests).Run(context.Background(), root)

	path := filepath.Join(root, "health_report.json")
	require.NoError(t, WriteFile(path, rep, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 0.0, doc["final_score"])
	pair, ok := doc[metrics.NameTests].([]any)
	require.True(t, ok)
	assert.Equal(t, metrics.SourceDefault, pair[1].(map[string]any)["source"])
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", "health_report.json"), ResolvePath("/repo", "health_report.json"))
	assert.Equal(t, "/tmp/out.json", ResolvePath("/repo", "/tmp/out.json"))
}
