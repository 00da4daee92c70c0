// Package report serializes health reports to disk and to the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/blackwell-systems/repohealth/internal/score"
)

// Format selects the report serialization.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatProm Format = "prom"
)

// FinalScoreKey is the document key holding the final score.
const FinalScoreKey = "final_score"

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatProm:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "prometheus":
		return FormatProm, nil
	default:
		return "", fmt.Errorf("unsupported report format %q (want json, yaml or prom)", s)
	}
}

// Document returns the persisted report shape: each metric name maps to a
// [value, evidence] pair, plus final_score.
func Document(r *score.HealthReport) map[string]any {
	doc := make(map[string]any, len(r.Metrics)+1)
	for _, m := range r.Metrics {
		doc[m.Name] = m.Result.Pair()
	}
	doc[FinalScoreKey] = r.FinalScore
	return doc
}

// Write serializes r to w in format f.
func Write(w io.Writer, r *score.HealthReport, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Document(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Document(r)); err != nil {
			return err
		}
		return enc.Close()
	case FormatProm:
		return writeProm(w, r)
	default:
		return fmt.Errorf("unsupported report format %q", f)
	}
}

// WriteFile writes r to path in format f, creating parent directories.
// The file is written to a temporary sibling and renamed into place.
func WriteFile(path string, r *score.HealthReport, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Write(tmp, r, f); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ResolvePath resolves a relative report path against the repository root.
func ResolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
