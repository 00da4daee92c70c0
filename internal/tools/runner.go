// Package tools adapts external analysis tools (coverage, vulture, bandit)
// to the capability interfaces consumed by the metric collectors.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/blackwell-systems/repohealth/internal/metrics"
)

// Runner executes an external command in dir and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct{}

// Run executes name with args in dir. On a non-zero exit the captured stdout
// is still returned alongside the *exec.ExitError.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, firstLine(msg))
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Available reports whether name resolves on PATH, returning its location.
func Available(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}

// run executes command through r, treating the listed exit codes as success.
// A command that cannot be found is reported as metrics.ErrUnavailable.
func run(ctx context.Context, r Runner, dir string, command []string, okCodes []int) ([]byte, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("%w: empty command", metrics.ErrUnavailable)
	}
	out, err := r.Run(ctx, dir, command[0], command[1:]...)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s not installed", metrics.ErrUnavailable, command[0])
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && slices.Contains(okCodes, exitErr.ExitCode()) {
		return out, nil
	}
	return nil, err
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
