package store

import (
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InsertRun stores a run and its metric values in one transaction.
func (db *DB) InsertRun(run *Run, values []MetricValue) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, taken_at, repo_key, repository, root, final_score, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TakenAt.UTC().Format(timeLayout), run.RepoKey, run.Repository,
		run.Root, run.FinalScore, run.Version,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, v := range values {
		if _, err := tx.Exec(
			"INSERT INTO metric_values (run_id, metric, value, weight, evidence) VALUES (?, ?, ?, ?, ?)",
			run.ID, v.Metric, v.Value, v.Weight, v.Evidence,
		); err != nil {
			return fmt.Errorf("inserting metric %s: %w", v.Metric, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to n runs for repoKey, newest first.
func (db *DB) RecentRuns(repoKey string, n int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, taken_at, repo_key, repository, root, final_score, version
		 FROM runs WHERE repo_key = ? ORDER BY taken_at DESC, rowid DESC LIMIT ?`,
		repoKey, n,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var takenAt string
		var repository sql.NullString
		if err := rows.Scan(&r.ID, &takenAt, &r.RepoKey, &repository, &r.Root, &r.FinalScore, &r.Version); err != nil {
			return nil, err
		}
		r.TakenAt, _ = time.Parse(timeLayout, takenAt)
		r.Repository = repository.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, taken_at, repo_key, repository, root, final_score, version FROM runs WHERE id = ?`, id,
	)
	var r Run
	var takenAt string
	var repository sql.NullString
	err := row.Scan(&r.ID, &takenAt, &r.RepoKey, &repository, &r.Root, &r.FinalScore, &r.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TakenAt, _ = time.Parse(timeLayout, takenAt)
	r.Repository = repository.String
	return &r, nil
}

// MetricValues returns the metric values recorded for a run.
func (db *DB) MetricValues(runID string) ([]MetricValue, error) {
	rows, err := db.conn.Query(
		"SELECT run_id, metric, value, weight, evidence FROM metric_values WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []MetricValue
	for rows.Next() {
		var v MetricValue
		var evidence sql.NullString
		if err := rows.Scan(&v.RunID, &v.Metric, &v.Value, &v.Weight, &evidence); err != nil {
			return nil, err
		}
		v.Evidence = evidence.String
		values = append(values, v)
	}
	return values, rows.Err()
}

// Diff compares two runs metric by metric. final_score is always the first
// delta; the rest follow in the order recorded for the current run.
func (db *DB) Diff(previous, current *Run) (*RunDiff, error) {
	prevValues, err := db.MetricValues(previous.ID)
	if err != nil {
		return nil, err
	}
	curValues, err := db.MetricValues(current.ID)
	if err != nil {
		return nil, err
	}

	prev := make(map[string]float64, len(prevValues))
	for _, v := range prevValues {
		prev[v.Metric] = v.Value
	}

	diff := &RunDiff{Previous: previous, Current: current}
	diff.Deltas = append(diff.Deltas, newDelta("final_score", previous.FinalScore, current.FinalScore))
	for _, v := range curValues {
		p, ok := prev[v.Metric]
		if !ok {
			continue
		}
		diff.Deltas = append(diff.Deltas, newDelta(v.Metric, p, v.Value))
	}
	return diff, nil
}

// RepoKeys returns every repository key with at least one run, sorted.
func (db *DB) RepoKeys() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT repo_key FROM runs")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

// newDelta builds a MetricDelta. Every health metric is higher-is-better.
func newDelta(name string, previous, current float64) MetricDelta {
	d := MetricDelta{Name: name, Previous: previous, Current: current, Delta: current - previous}
	const epsilon = 1e-9
	switch {
	case d.Delta > epsilon:
		d.Direction = "improved"
	case d.Delta < -epsilon:
		d.Direction = "regressed"
	default:
		d.Direction = "unchanged"
		d.Delta = 0
	}
	return d
}

// PruneRuns deletes all but the newest keep runs of repoKey, together with
// their metric values, and returns the number of runs removed.
func (db *DB) PruneRuns(repoKey string, keep int) (int64, error) {
	res, err := db.conn.Exec(
		`DELETE FROM runs WHERE repo_key = ? AND id NOT IN (
			SELECT id FROM runs WHERE repo_key = ? ORDER BY taken_at DESC, rowid DESC LIMIT ?
		)`,
		repoKey, repoKey, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}
