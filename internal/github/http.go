package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/tiwaz/internal/repocfg"
)

// HTTPClientOptions configures the REST client. Zero values get defaults.
type HTTPClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// HTTPClient implements Client against the GitHub REST API. Calls are single
// attempts: a failed sync is repeated by the user, never retried here.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient creates a REST client from options.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
	}
}

// GetIssue fetches one issue.
func (c *HTTPClient) GetIssue(ctx context.Context, t repocfg.Target, number int) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", t.Owner, t.Repo, number)
	return c.do(ctx, http.MethodGet, path, t.Token, nil)
}

// CreateIssue opens a new issue and returns the created record.
func (c *HTTPClient) CreateIssue(ctx context.Context, t repocfg.Target, in IssueInput) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues", t.Owner, t.Repo)
	return c.do(ctx, http.MethodPost, path, t.Token, &in)
}

// UpdateIssue rewrites an existing issue's title and body.
func (c *HTTPClient) UpdateIssue(ctx context.Context, t repocfg.Target, number int, in IssueInput) (*Issue, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", t.Owner, t.Repo, number)
	return c.do(ctx, http.MethodPatch, path, t.Token, &in)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, payload *IssueInput) (*Issue, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("github: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("github: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(respBody)}
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("github: decode issue: %w", err)
	}
	return &issue, nil
}

// apiMessage extracts the "message" field from an error body, falling back
// to the raw text.
func apiMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}
