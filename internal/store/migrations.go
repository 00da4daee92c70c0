package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// migrations are applied in order; schema version N means the first N have
// run. Append only.
var migrations = [][]string{
	// 1: runs and their per-metric values.
	{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			taken_at    TEXT NOT NULL,
			repo_key    TEXT NOT NULL,
			repository  TEXT,
			root        TEXT NOT NULL,
			final_score REAL NOT NULL,
			version     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS metric_values (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			metric   TEXT NOT NULL,
			value    REAL NOT NULL,
			weight   REAL NOT NULL,
			evidence TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_repo_key ON runs(repo_key, taken_at)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_values_run ON metric_values(run_id)`,
	},
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

// Migrate brings the schema up to date. Each migration runs in its own
// transaction together with the version bump.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema v%d is newer than this binary (v%d)", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		if err := db.apply(v+1, migrations[v]); err != nil {
			return fmt.Errorf("migration v%d: %w", v+1, err)
		}
	}
	return nil
}

func (db *DB) apply(version int, statements []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
