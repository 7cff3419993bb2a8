package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/tiwaz/internal/apperr"
	"github.com/starford/tiwaz/internal/docservice"
	"github.com/starford/tiwaz/internal/github"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fdoc.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeOpError maps service/engine failures to HTTP responses.
func writeOpError(w http.ResponseWriter, op, path string, err error) {
	var apiErr *github.APIError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNoIssue):
		writeJSON(w, http.StatusConflict, errorBody("document is not linked to an issue"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.As(err, &apiErr):
		slog.Error(op+" failed upstream", slog.String("path", path), slog.Int("status", apiErr.Status), slog.String("error", apiErr.Message))
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	verdict := q.Get("verdict")
	sort := q.Get("sort")

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset, verdict, sort)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []DocumentListItem{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeOpError(w, "get document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Push handles POST /api/sync/push/*.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.svc.PushDocument(r.Context(), path)
	if err != nil {
		writeOpError(w, "push", path, err)
		return
	}
	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

// Pull handles POST /api/sync/pull/*.
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	out, err := h.svc.PullDocument(r.Context(), path)
	if err != nil {
		writeOpError(w, "pull", path, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Fetch handles POST /api/sync/fetch/*.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	status, err := h.svc.FetchDocument(r.Context(), path)
	if err != nil {
		writeOpError(w, "fetch", path, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Import handles POST /api/import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Number <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("issue number is required"))
		return
	}
	out, err := h.svc.ImportIssue(r.Context(), req.Number, req.Dir, req.Repo)
	if err != nil {
		writeOpError(w, "import", strconv.Itoa(req.Number), err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(rows))
	for i, row := range rows {
		results[i] = SearchResult{Path: row.Path, Title: row.Title, IssueNumber: row.IssueNumber}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
