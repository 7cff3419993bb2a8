package registry

import (
	"log/slog"
	"strconv"

	"github.com/starford/tiwaz/internal/checksum"
	"github.com/starford/tiwaz/internal/frontmatter"
	"github.com/starford/tiwaz/internal/storage"
)

// Scan walks the vault and brings the registry up to date:
//   - documents with a github_issue key are (re-)recorded, checksum-gated
//   - documents that lost the key, and registry rows whose file is gone,
//     are removed
func Scan(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("scan: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if cs, seen := checksums[info.Path]; seen && cs == checksum.Sum(data) {
			continue
		}
		if err := scanFile(db, info.Path, data); err != nil {
			logger.Warn("scan: record failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("scan: recorded", slog.String("path", info.Path))
		}
	}

	// Remove rows whose file no longer exists.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("scan: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("scan: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// scanFile records one document's front-matter link state. Documents without
// a parseable github_issue key are untracked and removed from the registry.
func scanFile(db *DB, path string, data []byte) error {
	text := string(data)
	idStr, linked := frontmatter.IssueID(text)
	number := 0
	if linked {
		number, _ = strconv.Atoi(idStr)
	}
	if !linked || number == 0 {
		return db.DeleteDoc(path)
	}

	repo, _ := frontmatter.RepoOverride(text)
	title, _ := frontmatter.IssueTitle(text)
	return db.UpsertScanned(DocRow{
		Path:        path,
		IssueNumber: number,
		Repo:        repo,
		Title:       title,
		Checksum:    checksum.Sum(data),
	})
}
