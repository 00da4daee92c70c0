// Package watcher rescores a repository when its files change and emits
// alerts when the health score moves.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/repohealth/internal/score"
)

// Alert represents a notable change between two scoring runs.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// ScoreFunc runs one scoring pass over the watched repository.
type ScoreFunc func(ctx context.Context) *score.HealthReport

// Watcher watches a repository tree and rescores it once changes settle.
type Watcher struct {
	root          string
	debounce      time.Duration
	skipDirs      []string
	ignore        func(string) bool
	scoreFn       ScoreFunc
	reportFn      func(*score.HealthReport) // called after every scoring pass
	alertFn       func(Alert)
	previous      *score.HealthReport
	lastAlertKeys map[string]bool

	// Thresholds tune when alerts fire.
	Thresholds Thresholds
}

// New creates a Watcher for root. ignore reports paths whose changes must not
// trigger a rescore; it may be nil.
func New(root string, debounce time.Duration, skipDirs []string, ignore func(string) bool, scoreFn ScoreFunc) *Watcher {
	if ignore == nil {
		ignore = func(string) bool { return false }
	}
	return &Watcher{
		root:          root,
		debounce:      debounce,
		skipDirs:      skipDirs,
		ignore:        ignore,
		scoreFn:       scoreFn,
		lastAlertKeys: make(map[string]bool),
		Thresholds:    DefaultThresholds,
	}
}

// OnReport sets the callback invoked with every new report.
func (w *Watcher) OnReport(fn func(*score.HealthReport)) { w.reportFn = fn }

// OnAlert sets the callback invoked for every emitted alert.
func (w *Watcher) OnAlert(fn func(Alert)) { w.alertFn = fn }

// Run scores the repository once, then watches it and rescores after each
// burst of changes. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	w.addDirs(fw, w.root)
	w.rescore(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignore(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.addDirs(fw, event.Name)
			}
			slog.Debug("watch: change", "path", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.rescore(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch: watcher error", "err", err)
		}
	}
}

func (w *Watcher) rescore(ctx context.Context) {
	rep := w.scoreFn(ctx)
	if rep == nil {
		return
	}
	if w.reportFn != nil {
		w.reportFn(rep)
	}
	for _, a := range w.Check(rep) {
		if w.alertFn != nil {
			w.alertFn(a)
		}
	}
}

// Check compares rep with the previous report, records rep as the new
// baseline and returns any alerts. Identical alerts are suppressed until the
// underlying scores change.
func (w *Watcher) Check(rep *score.HealthReport) []Alert {
	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, rep, w.Thresholds)
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = rep
	return alerts
}

// addDirs registers dir and every non-skipped subdirectory with fw. Paths
// that are not directories are ignored.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && (slices.Contains(w.skipDirs, d.Name()) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Debug("watch: cannot watch directory", "path", path, "err", err)
		}
		return nil
	})
}

// IgnoreFunc returns a predicate that matches dotfiles, paths below any of
// skipDirs, and the exact generated paths, all relative to root.
func IgnoreFunc(root string, skipDirs []string, generated ...string) func(string) bool {
	cleaned := make([]string, 0, len(generated))
	for _, g := range generated {
		if g != "" {
			cleaned = append(cleaned, filepath.Clean(g))
		}
	}

	return func(path string) bool {
		path = filepath.Clean(path)
		if slices.Contains(cleaned, path) {
			return true
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return false
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if part == ".." {
				return false
			}
			if strings.HasPrefix(part, ".") || slices.Contains(skipDirs, part) {
				return true
			}
		}
		return false
	}
}
