package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/tiwaz/internal/docservice"
	"github.com/starford/tiwaz/internal/engine"
	"github.com/starford/tiwaz/internal/github"
	"github.com/starford/tiwaz/internal/repocfg"
	"github.com/starford/tiwaz/internal/storage"
	"github.com/starford/tiwaz/internal/testutil"
)

// fakeGitHub serves just enough of the issues API for the tools under test.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(github.Issue{
			Number: 7, Title: in.Title, Body: in.Body, UpdatedAt: updated,
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/issues/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(github.Issue{
			Number: 7, Title: "Remote Title", Body: "remote body", UpdatedAt: updated,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	gh := fakeGitHub(t)

	settings := repocfg.Settings{Owner: "acme", Repo: "widgets", Token: "t"}
	client := github.NewHTTPClient(github.HTTPClientOptions{BaseURL: gh.URL})
	eng := engine.New(store, client, nil)
	svc := docservice.NewService(store, db, eng, settings, nil)

	return New(svc, store), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "sync_status":
		result, err = srv.syncStatus(ctx, req)
	case "push_document":
		result, err = srv.pushDocument(ctx, req)
	case "pull_document":
		result, err = srv.pullDocument(ctx, req)
	case "import_issue":
		result, err = srv.importIssue(ctx, req)
	case "get_front_matter_contract":
		result, err = srv.getFrontMatterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadDocument(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("notes/a.md", []byte("# A\nbody"), time.Time{})

	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "notes/a.md"})
	if text := resultText(r); text != "# A\nbody" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestListDocuments(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", []byte("a"), time.Time{})
	_ = store.Write("b.md", []byte("b"), time.Time{})

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "b.md") {
		t.Errorf("list = %q", text)
	}
}

func TestPushDocumentCreatesIssue(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("task.md", []byte("do the thing"), time.Time{})

	r := callTool(t, srv, "push_document", map[string]interface{}{"path": "task.md"})
	if r.IsError {
		t.Fatalf("push failed: %s", resultText(r))
	}

	var outcome docservice.SyncOutcome
	if err := json.Unmarshal([]byte(resultText(r)), &outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.IssueNumber != 7 || !outcome.Created {
		t.Errorf("outcome = %+v", outcome)
	}

	data, err := store.Read("task.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "github_issue: 7") {
		t.Errorf("front matter not written back: %q", data)
	}
}

func TestSyncStatus(t *testing.T) {
	srv, store := testServer(t)
	content := "---\ngithub_issue: 7\n---\nlocal body"
	// The local file is older than the remote update.
	_ = store.Write("linked.md", []byte(content), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	r := callTool(t, srv, "sync_status", map[string]interface{}{"path": "linked.md"})
	if r.IsError {
		t.Fatalf("sync_status failed: %s", resultText(r))
	}

	var status docservice.SyncStatus
	if err := json.Unmarshal([]byte(resultText(r)), &status); err != nil {
		t.Fatal(err)
	}
	if status.Verdict != string(engine.VerdictPullAvailable) {
		t.Errorf("verdict = %q, want %q", status.Verdict, engine.VerdictPullAvailable)
	}
}

func TestSyncStatusUnlinked(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("plain.md", []byte("no block"), time.Time{})

	r := callTool(t, srv, "sync_status", map[string]interface{}{"path": "plain.md"})
	if !r.IsError {
		t.Error("expected error for unlinked document")
	}
}

func TestImportIssue(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "import_issue", map[string]interface{}{
		"number": 7,
		"dir":    "inbox",
	})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}

	var outcome docservice.SyncOutcome
	if err := json.Unmarshal([]byte(resultText(r)), &outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Path != "inbox/Remote Title.md" {
		t.Errorf("path = %q", outcome.Path)
	}
	if _, err := store.Read(outcome.Path); err != nil {
		t.Errorf("imported file missing: %v", err)
	}
}

func TestGetFrontMatterContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_front_matter_contract", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "github_issue") {
		t.Errorf("contract missing key description: %q", text)
	}
}
