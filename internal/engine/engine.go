// Package engine implements the document/issue sync operations: push, fetch,
// pull, and import. The engine is stateless; everything an operation needs is
// passed in per call, and each operation makes at most one transport call at
// a time. Callers are responsible for not re-issuing an operation on the same
// document while one is in flight.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/starford/tiwaz/internal/apperr"
	"github.com/starford/tiwaz/internal/frontmatter"
	"github.com/starford/tiwaz/internal/github"
	"github.com/starford/tiwaz/internal/repocfg"
	"github.com/starford/tiwaz/internal/storage"
)

// Verdict is the freshness result of comparing the remote issue against the
// local file. Unknown is the pre-fetch state; a fetch always resolves to one
// of the other three.
type Verdict string

const (
	VerdictUnknown       Verdict = "unknown"
	VerdictUpToDate      Verdict = "up-to-date"
	VerdictPullAvailable Verdict = "pull-available"
	VerdictPushAvailable Verdict = "push-available"
)

// Engine orchestrates storage and transport for sync operations.
type Engine struct {
	store  storage.Provider
	client github.Client
	logger *slog.Logger
}

// New creates a sync engine.
func New(store storage.Provider, client github.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, client: client, logger: logger}
}

// PushResult reports a completed push.
type PushResult struct {
	IssueNumber     int
	Created         bool
	RemoteUpdatedAt time.Time
}

// FetchResult reports a completed fetch. Fetch never mutates the document.
type FetchResult struct {
	IssueNumber     int
	RemoteUpdatedAt time.Time
	Verdict         Verdict
}

// PullResult reports a completed pull. RenameErr is set when the file could
// not be renamed to the remote title; the content update still happened.
type PullResult struct {
	Path            string
	IssueNumber     int
	Title           string
	RemoteUpdatedAt time.Time
	RenameErr       error
}

// ImportResult reports a document created from a remote issue.
type ImportResult struct {
	Path            string
	IssueNumber     int
	Title           string
	RemoteUpdatedAt time.Time
}

// Push sends the document to its issue. Without a github_issue key a new
// issue is created and its number written back; with one the issue is
// updated in place. Either way the file's modification time is set to the
// remote updated_at so the next fetch compares equal instead of reporting a
// stale push-available.
func (e *Engine) Push(ctx context.Context, docPath string, s repocfg.Settings) (*PushResult, error) {
	if docPath == "" {
		return nil, fmt.Errorf("engine: push: %w", apperr.ErrNoDocument)
	}
	content, err := e.store.Read(docPath)
	if err != nil {
		return nil, fmt.Errorf("engine: push %s: %w", docPath, err)
	}
	text := string(content)
	target := repocfg.Resolve(text, s)
	in := github.IssueInput{
		Title: displayName(docPath),
		Body:  frontmatter.StripBlock(text),
	}

	idStr, linked := frontmatter.IssueID(text)
	if !linked {
		issue, err := e.client.CreateIssue(ctx, target, in)
		if err != nil {
			return nil, fmt.Errorf("engine: push %s: create issue: %w", docPath, err)
		}
		num := strconv.Itoa(issue.Number)
		updated := frontmatter.WriteTracked(text, frontmatter.Tracked{IssueID: &num})
		if err := e.store.Write(docPath, []byte(updated), issue.UpdatedAt); err != nil {
			return nil, fmt.Errorf("engine: push %s: write back: %w", docPath, err)
		}
		e.logger.Info("push: issue created",
			slog.String("path", docPath), slog.Int("issue", issue.Number))
		return &PushResult{IssueNumber: issue.Number, Created: true, RemoteUpdatedAt: issue.UpdatedAt}, nil
	}

	number, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("engine: push %s: bad issue id %q", docPath, idStr)
	}
	issue, err := e.client.UpdateIssue(ctx, target, number, in)
	if err != nil {
		return nil, fmt.Errorf("engine: push %s: update issue #%d: %w", docPath, number, err)
	}
	// Content is unchanged; only the modification time is aligned.
	if err := e.store.Write(docPath, content, issue.UpdatedAt); err != nil {
		return nil, fmt.Errorf("engine: push %s: align mtime: %w", docPath, err)
	}
	e.logger.Info("push: issue updated",
		slog.String("path", docPath), slog.Int("issue", number))
	return &PushResult{IssueNumber: number, RemoteUpdatedAt: issue.UpdatedAt}, nil
}

// Fetch compares the remote issue's updated_at against the file's
// modification time and reports the verdict. The effective repository is
// resolved from the currently stored content, never from cached state.
// Both timestamps are truncated to whole seconds before comparison: the API
// reports second precision while local filesystems keep nanoseconds, and a
// push/pull-aligned pair must compare equal.
func (e *Engine) Fetch(ctx context.Context, docPath string, s repocfg.Settings) (*FetchResult, error) {
	if docPath == "" {
		return nil, fmt.Errorf("engine: fetch: %w", apperr.ErrNoDocument)
	}
	content, err := e.store.Read(docPath)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch %s: %w", docPath, err)
	}
	text := string(content)
	idStr, linked := frontmatter.IssueID(text)
	if !linked {
		return nil, fmt.Errorf("engine: fetch %s: %w", docPath, apperr.ErrNoIssue)
	}
	number, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch %s: bad issue id %q", docPath, idStr)
	}

	issue, err := e.client.GetIssue(ctx, repocfg.Resolve(text, s), number)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch %s: get issue #%d: %w", docPath, number, err)
	}
	info, err := e.store.Stat(docPath)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch %s: %w", docPath, err)
	}

	remote := issue.UpdatedAt.Truncate(time.Second)
	local := info.ModTime.Truncate(time.Second)
	verdict := VerdictUpToDate
	switch {
	case remote.After(local):
		verdict = VerdictPullAvailable
	case remote.Before(local):
		verdict = VerdictPushAvailable
	}
	return &FetchResult{IssueNumber: number, RemoteUpdatedAt: issue.UpdatedAt, Verdict: verdict}, nil
}

// Pull replaces the document with the remote issue's state. The repository
// override is read from the local content before the transport call and
// re-asserted verbatim; a remote edit can therefore never wipe a local-only
// override. The file is renamed to the sanitized remote title when that
// differs from the current name; a rename failure is logged and reported in
// the result but does not abort the content update.
func (e *Engine) Pull(ctx context.Context, docPath string, s repocfg.Settings) (*PullResult, error) {
	if docPath == "" {
		return nil, fmt.Errorf("engine: pull: %w", apperr.ErrNoDocument)
	}
	content, err := e.store.Read(docPath)
	if err != nil {
		return nil, fmt.Errorf("engine: pull %s: %w", docPath, err)
	}
	text := string(content)
	idStr, linked := frontmatter.IssueID(text)
	if !linked {
		return nil, fmt.Errorf("engine: pull %s: %w", docPath, apperr.ErrNoIssue)
	}
	number, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, fmt.Errorf("engine: pull %s: bad issue id %q", docPath, idStr)
	}

	// Read the override before anything remote happens.
	localOverride, _ := frontmatter.RepoOverride(text)

	issue, err := e.client.GetIssue(ctx, repocfg.Resolve(text, s), number)
	if err != nil {
		return nil, fmt.Errorf("engine: pull %s: get issue #%d: %w", docPath, number, err)
	}

	num := strconv.Itoa(issue.Number)
	updated := frontmatter.WriteTracked(issue.Body, frontmatter.Tracked{
		IssueID:      &num,
		RepoOverride: &localOverride,
		IssueTitle:   &issue.Title,
	})

	finalPath := docPath
	var renameErr error
	if safe := SanitizeFilename(issue.Title); safe != "" {
		candidate := path.Join(path.Dir(docPath), safe+".md")
		if candidate != docPath {
			if err := e.store.Move(docPath, candidate); err != nil {
				renameErr = err
				e.logger.Warn("pull: rename failed",
					slog.String("path", docPath), slog.String("error", err.Error()))
			} else {
				finalPath = candidate
			}
		}
	}

	if err := e.store.Write(finalPath, []byte(updated), issue.UpdatedAt); err != nil {
		return nil, fmt.Errorf("engine: pull %s: write: %w", docPath, err)
	}
	e.logger.Info("pull: document updated",
		slog.String("path", finalPath), slog.Int("issue", issue.Number))
	return &PullResult{
		Path:            finalPath,
		IssueNumber:     issue.Number,
		Title:           issue.Title,
		RemoteUpdatedAt: issue.UpdatedAt,
		RenameErr:       renameErr,
	}, nil
}

// CreateFromIssue fetches an issue and materializes it as a new document
// under dir: a tracked block carrying the issue number and the given
// repository override, followed by the remote body. The filename is the
// sanitized remote title, or a placeholder when sanitization leaves nothing.
func (e *Engine) CreateFromIssue(ctx context.Context, number int, dir, repoOverride string, s repocfg.Settings) (*ImportResult, error) {
	target := repocfg.Target{Owner: s.Owner, Repo: s.Repo, Token: s.Token}
	if ov := repocfg.ParseOverride(repoOverride); ov.Owner != "" || ov.Repo != "" {
		if ov.Owner != "" {
			target.Owner = ov.Owner
		}
		if ov.Repo != "" {
			target.Repo = ov.Repo
		}
	}

	issue, err := e.client.GetIssue(ctx, target, number)
	if err != nil {
		return nil, fmt.Errorf("engine: import issue #%d: %w", number, err)
	}

	name := SanitizeFilename(issue.Title)
	if name == "" {
		name = PlaceholderName
	}
	docPath := path.Join(dir, name+".md")
	if _, err := e.store.Stat(docPath); err == nil {
		return nil, fmt.Errorf("engine: import issue #%d: %s: %w", number, docPath, apperr.ErrAlreadyExists)
	}

	num := strconv.Itoa(issue.Number)
	cleared := ""
	content := frontmatter.WriteTracked(issue.Body, frontmatter.Tracked{
		IssueID:      &num,
		RepoOverride: &repoOverride,
		IssueTitle:   &cleared,
	})
	if err := e.store.Write(docPath, []byte(content), issue.UpdatedAt); err != nil {
		return nil, fmt.Errorf("engine: import issue #%d: write %s: %w", number, docPath, err)
	}
	e.logger.Info("import: document created",
		slog.String("path", docPath), slog.Int("issue", issue.Number))
	return &ImportResult{
		Path:            docPath,
		IssueNumber:     issue.Number,
		Title:           issue.Title,
		RemoteUpdatedAt: issue.UpdatedAt,
	}, nil
}

// displayName is the document's presented name: the filename without its
// extension. It is what a push uses as the issue title.
func displayName(docPath string) string {
	return strings.TrimSuffix(path.Base(docPath), ".md")
}
