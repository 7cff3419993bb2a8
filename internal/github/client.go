// Package github is the issue transport: a thin client for the GitHub REST
// issues endpoints, and the interface the sync engine consumes.
package github

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/tiwaz/internal/repocfg"
)

// Issue is the remote record a document is linked to.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IssueInput is the payload for creating or updating an issue.
type IssueInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client is the transport contract the sync engine depends on. Every call
// targets the effective repository resolved per document.
type Client interface {
	GetIssue(ctx context.Context, t repocfg.Target, number int) (*Issue, error)
	CreateIssue(ctx context.Context, t repocfg.Target, in IssueInput) (*Issue, error)
	UpdateIssue(ctx context.Context, t repocfg.Target, number int, in IssueInput) (*Issue, error)
}

// APIError is a non-success response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: status %d", e.Status)
	}
	return fmt.Sprintf("github: status %d: %s", e.Status, e.Message)
}
