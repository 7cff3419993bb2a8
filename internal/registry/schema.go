// Package registry provides the SQLite-backed record of tracked documents:
// which vault files are linked to which issues, and the last known sync
// state for each. Optional FTS5 full-text search is available behind the
// sqlite_fts5 build tag.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS docs (
	path              TEXT PRIMARY KEY,
	issue_number      INTEGER NOT NULL,
	repo              TEXT NOT NULL DEFAULT '',
	title             TEXT NOT NULL DEFAULT '',
	verdict           TEXT NOT NULL DEFAULT 'unknown',
	remote_updated_at DATETIME,
	synced_at         DATETIME,
	checksum          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_docs_issue ON docs(issue_number);
`

// DB wraps a sql.DB with registry-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
