package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB is the run history database.
type DB struct {
	conn *sql.DB
}

// connPragmas are set through the DSN so every pooled connection gets them.
var connPragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

func dsn(name string, extra ...string) string {
	q := url.Values{}
	for _, p := range append(append([]string{}, connPragmas...), extra...) {
		q.Add("_pragma", p)
	}
	return "file:" + name + "?" + q.Encode()
}

// Open opens or creates the database at dbPath, creating its directory,
// and migrates the schema.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	return open(dsn(dbPath, "journal_mode(WAL)"), 0)
}

// OpenInMemory opens a private in-memory database for tests.
func OpenInMemory() (*DB, error) {
	// Each pooled connection would otherwise see its own empty database.
	return open(dsn(":memory:"), 1)
}

func open(dsn string, maxConns int) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
