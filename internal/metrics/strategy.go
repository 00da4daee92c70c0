package metrics

import (
	"context"
	"errors"
	"log/slog"
)

// ErrUnavailable marks a data source that could not produce a measurement:
// a missing tool, a failed run, unparseable output or absent configuration.
var ErrUnavailable = errors.New("unavailable")

// SourceDefault is the evidence source recorded when every strategy in a
// chain was unavailable and the metric fell back to its safe default.
const SourceDefault = "default"

// Strategy is one named way of obtaining a measurement. Run returns an error
// (wrapping ErrUnavailable where applicable) when the source cannot be used.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Attempt records the outcome of one strategy in a chain.
type Attempt struct {
	Strategy string
	Err      error
}

// firstAvailable runs strategies in order and returns the first value
// produced without error, together with the name of the strategy that
// produced it. When all strategies fail it returns the zero value and
// SourceDefault. Every attempt is returned for evidence and logging.
func firstAvailable[T any](ctx context.Context, metric string, strategies []Strategy[T]) (T, string, []Attempt) {
	attempts := make([]Attempt, 0, len(strategies))
	for _, s := range strategies {
		v, err := s.Run(ctx)
		attempts = append(attempts, Attempt{Strategy: s.Name, Err: err})
		if err == nil {
			return v, s.Name, attempts
		}
		slog.Debug("metrics: strategy unavailable", "metric", metric, "strategy", s.Name, "err", err)
	}
	var zero T
	slog.Warn("metrics: degraded to default", "metric", metric, "attempts", len(attempts))
	return zero, SourceDefault, attempts
}

// lastError returns the error of the final failed attempt, or nil.
func lastError(attempts []Attempt) error {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Err != nil {
			return attempts[i].Err
		}
	}
	return nil
}
