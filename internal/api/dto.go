package api

import (
	"github.com/starford/tiwaz/internal/docservice"
)

// ImportRequest is the request body for importing a remote issue.
type ImportRequest struct {
	Number int    `json:"number"`
	Dir    string `json:"dir,omitempty"`
	Repo   string `json:"repo,omitempty"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// DocumentListResponse wraps paginated tracked-document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	IssueNumber int    `json:"issue_number"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
