//go:build sqlite_fts5

package registry

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			path,
			title,
			repo,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, title, repo string) error {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO docs_fts (path, title, repo) VALUES (?, ?, ?)`,
		path, title, repo)
	if err != nil {
		return fmt.Errorf("registry: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE path = ?`, path)
}

// Search performs an FTS5 search over tracked document paths and titles.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.path, f.title, d.issue_number
		FROM docs_fts f
		JOIN docs d ON d.path = f.path
		WHERE docs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("registry: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.IssueNumber); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
