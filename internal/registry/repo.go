package registry

import (
	"database/sql"
	"fmt"
	"time"
)

// DocRow represents a tracked document in the docs table.
type DocRow struct {
	Path            string
	IssueNumber     int
	Repo            string // raw front-matter override, may be empty
	Title           string
	Verdict         string
	RemoteUpdatedAt time.Time // zero until the first fetch
	SyncedAt        time.Time
	Checksum        string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path        string
	Title       string
	IssueNumber int
}

// UpsertDoc inserts or fully replaces a tracked document's state, including
// its verdict and sync timestamps. Used after a completed sync operation.
func (db *DB) UpsertDoc(d DocRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO docs (path, issue_number, repo, title, verdict, remote_updated_at, synced_at, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			issue_number      = excluded.issue_number,
			repo              = excluded.repo,
			title             = excluded.title,
			verdict           = excluded.verdict,
			remote_updated_at = excluded.remote_updated_at,
			synced_at         = excluded.synced_at,
			checksum          = excluded.checksum
	`, d.Path, d.IssueNumber, d.Repo, d.Title, d.Verdict, nullTime(d.RemoteUpdatedAt), nullTime(d.SyncedAt), d.Checksum)
	if err != nil {
		return fmt.Errorf("registry: upsert doc: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, d.Repo); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertScanned records what a vault scan saw in the file itself: link,
// override, title, checksum. The verdict drops back to unknown (a local edit
// invalidates the last comparison) while the remote timestamps, which the
// scan cannot know, are preserved.
func (db *DB) UpsertScanned(d DocRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO docs (path, issue_number, repo, title, verdict, checksum)
		VALUES (?, ?, ?, ?, 'unknown', ?)
		ON CONFLICT(path) DO UPDATE SET
			issue_number = excluded.issue_number,
			repo         = excluded.repo,
			title        = excluded.title,
			verdict      = 'unknown',
			checksum     = excluded.checksum
	`, d.Path, d.IssueNumber, d.Repo, d.Title, d.Checksum)
	if err != nil {
		return fmt.Errorf("registry: upsert scanned: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, d.Repo); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDoc removes a tracked document and its FTS entry.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM docs WHERE path = ?`, path)

	return tx.Commit()
}

// GetDoc returns the tracked document at path, or nil when not tracked.
func (db *DB) GetDoc(path string) (*DocRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, issue_number, repo, title, verdict, remote_updated_at, synced_at, checksum
		FROM docs WHERE path = ?
	`, path)
	d, err := scanDoc(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get doc: %w", err)
	}
	return d, nil
}

// ListDocs returns tracked documents with optional verdict filter and sort.
func (db *DB) ListDocs(limit, offset int, verdict, sort string) ([]DocRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orderBy := "path ASC"
	switch sort {
	case "synced_at":
		orderBy = "synced_at DESC"
	case "issue":
		orderBy = "issue_number ASC"
	case "title":
		orderBy = "title ASC"
	}

	where := ""
	args := []any{}
	if verdict != "" {
		where = "WHERE verdict = ?"
		args = append(args, verdict)
	}

	var total int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM docs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("registry: count docs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, issue_number, repo, title, verdict, remote_updated_at, synced_at, checksum
		FROM docs %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, orderBy)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("registry: list docs: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// GetChecksum returns the stored checksum for a path, or empty string if not tracked.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM docs WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not tracked is fine
	}
	return cs, nil
}

// AllPaths returns every tracked document path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("registry: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every tracked document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("registry: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoc(r rowScanner) (*DocRow, error) {
	var d DocRow
	var remote, synced sql.NullTime
	if err := r.Scan(&d.Path, &d.IssueNumber, &d.Repo, &d.Title, &d.Verdict, &remote, &synced, &d.Checksum); err != nil {
		return nil, err
	}
	if remote.Valid {
		d.RemoteUpdatedAt = remote.Time
	}
	if synced.Valid {
		d.SyncedAt = synced.Time
	}
	return &d, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
