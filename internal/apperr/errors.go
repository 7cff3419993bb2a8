package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrNoDocument means an operation that requires a concrete vault file
	// was called without one.
	ErrNoDocument = errors.New("no document")
	// ErrNoIssue means the document carries no github_issue key.
	ErrNoIssue = errors.New("document is not linked to an issue")
)
