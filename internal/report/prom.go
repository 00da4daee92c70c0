package report

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/blackwell-systems/repohealth/internal/score"
)

// Metric family names written in the Prometheus textfile format.
const (
	promFinalScore  = "repohealth_final_score"
	promMetricValue = "repohealth_metric_value"
	promWeight      = "repohealth_metric_weight"
)

// writeProm renders r as Prometheus text exposition, suitable for the
// node_exporter textfile collector.
func writeProm(w io.Writer, r *score.HealthReport) error {
	base := baseLabels(r)

	final := gaugeFamily(promFinalScore, "Repository health score (0-100).")
	final.Metric = append(final.Metric, gauge(r.FinalScore, base))

	values := gaugeFamily(promMetricValue, "Normalized metric value (0-1).")
	weights := gaugeFamily(promWeight, "Metric weight in the final score.")
	for _, m := range r.Metrics {
		labels := append(append([]*dto.LabelPair{}, base...), label("metric", m.Name))
		values.Metric = append(values.Metric, gauge(m.Result.Value, labels))
		weights.Metric = append(weights.Metric, gauge(m.Weight, labels))
	}

	for _, mf := range []*dto.MetricFamily{final, values, weights} {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func baseLabels(r *score.HealthReport) []*dto.LabelPair {
	if r.Repository == "" {
		return nil
	}
	return []*dto.LabelPair{label("repository", r.Repository)}
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(v float64, labels []*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: ptr(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: ptr(name), Value: ptr(value)}
}

func ptr[T any](v T) *T { return &v }
