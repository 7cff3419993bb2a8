// Package docservice coordinates the vault store, the tracked-document
// registry, and the sync engine behind one service surface shared by the
// REST API and the MCP server.
package docservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/tiwaz/internal/apperr"
	"github.com/starford/tiwaz/internal/checksum"
	"github.com/starford/tiwaz/internal/engine"
	"github.com/starford/tiwaz/internal/frontmatter"
	"github.com/starford/tiwaz/internal/registry"
	"github.com/starford/tiwaz/internal/repocfg"
	"github.com/starford/tiwaz/internal/storage"
)

// EventFunc is notified after a completed sync operation.
// kind is one of "pushed", "pulled", "fetched", "imported".
type EventFunc func(kind, path string)

// DocumentDetail is the full representation of a tracked (or plain) document.
type DocumentDetail struct {
	Path            string    `json:"path"`
	Content         string    `json:"content"`
	Checksum        string    `json:"checksum"`
	IssueNumber     int       `json:"issue_number,omitempty"`
	RepoOverride    string    `json:"repo_override,omitempty"`
	IssueTitle      string    `json:"issue_title,omitempty"`
	EffectiveOwner  string    `json:"effective_owner"`
	EffectiveRepo   string    `json:"effective_repo"`
	Verdict         string    `json:"verdict"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at,omitempty"`
	SyncedAt        time.Time `json:"synced_at,omitempty"`
	ModTime         time.Time `json:"mtime"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path        string    `json:"path"`
	IssueNumber int       `json:"issue_number"`
	Title       string    `json:"title"`
	Verdict     string    `json:"verdict"`
	SyncedAt    time.Time `json:"synced_at,omitempty"`
}

// SyncStatus is the result of a fetch: the freshness verdict for one document.
type SyncStatus struct {
	Path            string    `json:"path"`
	IssueNumber     int       `json:"issue_number"`
	Verdict         string    `json:"verdict"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at"`
}

// SyncOutcome reports a completed push, pull, or import.
type SyncOutcome struct {
	Path            string    `json:"path"`
	IssueNumber     int       `json:"issue_number"`
	Created         bool      `json:"created,omitempty"`
	RenameFailed    bool      `json:"rename_failed,omitempty"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at"`
}

// Service coordinates storage, registry, and engine operations.
type Service struct {
	store    storage.Provider
	db       *registry.DB
	eng      *engine.Engine
	settings repocfg.Settings
	events   EventFunc
}

// NewService creates a document service. events may be nil.
func NewService(store storage.Provider, db *registry.DB, eng *engine.Engine, settings repocfg.Settings, events EventFunc) *Service {
	return &Service{store: store, db: db, eng: eng, settings: settings, events: events}
}

// GetDocument reads a document and combines its front-matter link state with
// the registry's last known sync state.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	info, err := s.store.Stat(path)
	if err != nil {
		return nil, err
	}

	text := string(data)
	target := repocfg.Resolve(text, s.settings)
	detail := &DocumentDetail{
		Path:           path,
		Content:        text,
		Checksum:       checksum.Sum(data),
		EffectiveOwner: target.Owner,
		EffectiveRepo:  target.Repo,
		Verdict:        string(engine.VerdictUnknown),
		ModTime:        info.ModTime,
	}
	if ov, ok := frontmatter.RepoOverride(text); ok {
		detail.RepoOverride = ov
	}
	if title, ok := frontmatter.IssueTitle(text); ok {
		detail.IssueTitle = title
	}

	row, err := s.db.GetDoc(path)
	if err != nil {
		return nil, err
	}
	if row != nil {
		detail.IssueNumber = row.IssueNumber
		detail.Verdict = row.Verdict
		detail.RemoteUpdatedAt = row.RemoteUpdatedAt
		detail.SyncedAt = row.SyncedAt
	}
	return detail, nil
}

// ListDocuments returns tracked documents with optional verdict filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, verdict, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocs(limit, offset, verdict, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:        r.Path,
			IssueNumber: r.IssueNumber,
			Title:       r.Title,
			Verdict:     r.Verdict,
			SyncedAt:    r.SyncedAt,
		}
	}
	return items, total, nil
}

// PushDocument pushes a document to its issue (creating one when unlinked)
// and records the result.
func (s *Service) PushDocument(ctx context.Context, path string) (*SyncOutcome, error) {
	res, err := s.eng.Push(ctx, path, s.settings)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	s.record(path, res.IssueNumber, string(engine.VerdictUpToDate), res.RemoteUpdatedAt)
	s.emit("pushed", path)
	return &SyncOutcome{
		Path:            path,
		IssueNumber:     res.IssueNumber,
		Created:         res.Created,
		RemoteUpdatedAt: res.RemoteUpdatedAt,
	}, nil
}

// FetchDocument computes the freshness verdict without mutating anything.
func (s *Service) FetchDocument(ctx context.Context, path string) (*SyncStatus, error) {
	res, err := s.eng.Fetch(ctx, path, s.settings)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	s.record(path, res.IssueNumber, string(res.Verdict), res.RemoteUpdatedAt)
	s.emit("fetched", path)
	return &SyncStatus{
		Path:            path,
		IssueNumber:     res.IssueNumber,
		Verdict:         string(res.Verdict),
		RemoteUpdatedAt: res.RemoteUpdatedAt,
	}, nil
}

// PullDocument replaces a document with its issue's remote state. The
// returned outcome carries the possibly renamed path.
func (s *Service) PullDocument(ctx context.Context, path string) (*SyncOutcome, error) {
	res, err := s.eng.Pull(ctx, path, s.settings)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	if res.Path != path {
		// The registry row for the old path is stale after a rename.
		_ = s.db.DeleteDoc(path)
	}
	s.record(res.Path, res.IssueNumber, string(engine.VerdictUpToDate), res.RemoteUpdatedAt)
	s.emit("pulled", res.Path)
	return &SyncOutcome{
		Path:            res.Path,
		IssueNumber:     res.IssueNumber,
		RenameFailed:    res.RenameErr != nil,
		RemoteUpdatedAt: res.RemoteUpdatedAt,
	}, nil
}

// ImportIssue materializes a remote issue as a new document under dir.
func (s *Service) ImportIssue(ctx context.Context, number int, dir, repoOverride string) (*SyncOutcome, error) {
	res, err := s.eng.CreateFromIssue(ctx, number, dir, repoOverride, s.settings)
	if err != nil {
		return nil, mapEngineErr(err)
	}
	s.record(res.Path, res.IssueNumber, string(engine.VerdictUpToDate), res.RemoteUpdatedAt)
	s.emit("imported", res.Path)
	return &SyncOutcome{
		Path:            res.Path,
		IssueNumber:     res.IssueNumber,
		Created:         true,
		RemoteUpdatedAt: res.RemoteUpdatedAt,
	}, nil
}

// Search finds tracked documents by path or title.
func (s *Service) Search(_ context.Context, query string, limit int) ([]registry.SearchResult, error) {
	return s.db.Search(query, limit)
}

// record refreshes the registry row for path after a sync operation.
func (s *Service) record(path string, issueNumber int, verdict string, remoteUpdatedAt time.Time) {
	data, err := s.store.Read(path)
	if err != nil {
		return
	}
	text := string(data)
	repo, _ := frontmatter.RepoOverride(text)
	title, _ := frontmatter.IssueTitle(text)
	_ = s.db.UpsertDoc(registry.DocRow{
		Path:            path,
		IssueNumber:     issueNumber,
		Repo:            repo,
		Title:           title,
		Verdict:         verdict,
		RemoteUpdatedAt: remoteUpdatedAt,
		SyncedAt:        time.Now(),
		Checksum:        checksum.Sum(data),
	})
}

func (s *Service) emit(kind, path string) {
	if s.events != nil {
		s.events(kind, path)
	}
}

// mapEngineErr lifts storage-level not-found errors to the service sentinel.
func mapEngineErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return apperr.ErrNotFound
	}
	return err
}
