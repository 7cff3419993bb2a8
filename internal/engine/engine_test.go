package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/tiwaz/internal/apperr"
	"github.com/starford/tiwaz/internal/github"
	"github.com/starford/tiwaz/internal/repocfg"
	"github.com/starford/tiwaz/internal/storage"
	"github.com/starford/tiwaz/internal/testutil"
)

// fakeClient routes transport calls to per-test funcs. Unset funcs fail the
// call so a test notices an operation it did not expect.
type fakeClient struct {
	get    func(t repocfg.Target, number int) (*github.Issue, error)
	create func(t repocfg.Target, in github.IssueInput) (*github.Issue, error)
	update func(t repocfg.Target, number int, in github.IssueInput) (*github.Issue, error)
}

func (f *fakeClient) GetIssue(_ context.Context, t repocfg.Target, number int) (*github.Issue, error) {
	if f.get == nil {
		return nil, errors.New("unexpected GetIssue")
	}
	return f.get(t, number)
}

func (f *fakeClient) CreateIssue(_ context.Context, t repocfg.Target, in github.IssueInput) (*github.Issue, error) {
	if f.create == nil {
		return nil, errors.New("unexpected CreateIssue")
	}
	return f.create(t, in)
}

func (f *fakeClient) UpdateIssue(_ context.Context, t repocfg.Target, number int, in github.IssueInput) (*github.Issue, error) {
	if f.update == nil {
		return nil, errors.New("unexpected UpdateIssue")
	}
	return f.update(t, number, in)
}

func testSettings() repocfg.Settings {
	return repocfg.Settings{Owner: "acme", Repo: "widgets", Token: "tok"}
}

func newEngine(t *testing.T, client github.Client) (*Engine, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	return New(store, client, nil), store
}

func TestPush_CreatesIssueForUnlinkedDocument(t *testing.T) {
	remote := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	var gotInput github.IssueInput
	client := &fakeClient{
		create: func(tg repocfg.Target, in github.IssueInput) (*github.Issue, error) {
			gotInput = in
			if tg.Owner != "acme" || tg.Repo != "widgets" {
				t.Errorf("target = %+v", tg)
			}
			return &github.Issue{Number: 42, Title: in.Title, Body: in.Body, UpdatedAt: remote}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("notes/my task.md", []byte("the body"), time.Time{})

	res, err := eng.Push(context.Background(), "notes/my task.md", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.IssueNumber != 42 {
		t.Errorf("result = %+v", res)
	}
	if gotInput.Title != "my task" {
		t.Errorf("issue title = %q, want filename stem", gotInput.Title)
	}
	if gotInput.Body != "the body" {
		t.Errorf("issue body = %q", gotInput.Body)
	}

	data, _ := store.Read("notes/my task.md")
	if !strings.Contains(string(data), "github_issue: 42") {
		t.Errorf("issue number not written back: %q", data)
	}
	info, _ := store.Stat("notes/my task.md")
	if !info.ModTime.Truncate(time.Second).Equal(remote) {
		t.Errorf("mtime = %v, want aligned to %v", info.ModTime, remote)
	}
}

func TestPush_UpdatesLinkedIssue(t *testing.T) {
	remote := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	var gotNumber int
	var gotInput github.IssueInput
	client := &fakeClient{
		update: func(tg repocfg.Target, number int, in github.IssueInput) (*github.Issue, error) {
			gotNumber = number
			gotInput = in
			return &github.Issue{Number: number, Title: in.Title, Body: in.Body, UpdatedAt: remote}, nil
		},
	}
	eng, store := newEngine(t, client)
	content := "---\ngithub_issue: 7\nfoo: bar\n---\nupdated body"
	_ = store.Write("doc.md", []byte(content), time.Time{})

	res, err := eng.Push(context.Background(), "doc.md", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if res.Created || res.IssueNumber != 7 || gotNumber != 7 {
		t.Errorf("result = %+v, number = %d", res, gotNumber)
	}
	if gotInput.Body != "updated body" {
		t.Errorf("pushed body = %q, want front matter stripped", gotInput.Body)
	}

	data, _ := store.Read("doc.md")
	if string(data) != content {
		t.Errorf("content changed by push: %q", data)
	}
	info, _ := store.Stat("doc.md")
	if !info.ModTime.Truncate(time.Second).Equal(remote) {
		t.Errorf("mtime = %v, want %v", info.ModTime, remote)
	}
}

func TestPush_ResolvesOverrideTarget(t *testing.T) {
	client := &fakeClient{
		update: func(tg repocfg.Target, number int, in github.IssueInput) (*github.Issue, error) {
			if tg.Owner != "other" || tg.Repo != "repo" {
				t.Errorf("target = %+v, want override", tg)
			}
			if tg.Token != "tok" {
				t.Error("token must come from settings")
			}
			return &github.Issue{Number: number, UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("d.md", []byte("---\ngithub_issue: 1\ngithub_repo: other/repo\n---\nx"), time.Time{})

	if _, err := eng.Push(context.Background(), "d.md", testSettings()); err != nil {
		t.Fatal(err)
	}
}

func TestFetch_Verdicts(t *testing.T) {
	local := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		remote  time.Time
		verdict Verdict
	}{
		{"remote newer", time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), VerdictPullAvailable},
		{"remote older", time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC), VerdictPushAvailable},
		{"equal", local, VerdictUpToDate},
		{"equal within a second", local.Add(300 * time.Millisecond), VerdictUpToDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{
				get: func(tg repocfg.Target, number int) (*github.Issue, error) {
					return &github.Issue{Number: number, UpdatedAt: tc.remote}, nil
				},
			}
			eng, store := newEngine(t, client)
			_ = store.Write("d.md", []byte("---\ngithub_issue: 9\n---\nbody"), local)

			res, err := eng.Fetch(context.Background(), "d.md", testSettings())
			if err != nil {
				t.Fatal(err)
			}
			if res.Verdict != tc.verdict {
				t.Errorf("verdict = %q, want %q", res.Verdict, tc.verdict)
			}
		})
	}
}

func TestFetch_DoesNotMutate(t *testing.T) {
	local := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: number, UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)
	content := "---\ngithub_issue: 9\n---\nbody"
	_ = store.Write("d.md", []byte(content), local)

	if _, err := eng.Fetch(context.Background(), "d.md", testSettings()); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read("d.md")
	if string(data) != content {
		t.Error("fetch modified the document")
	}
	info, _ := store.Stat("d.md")
	if !info.ModTime.Truncate(time.Second).Equal(local) {
		t.Error("fetch modified the mtime")
	}
}

func TestFetch_UnlinkedDocument(t *testing.T) {
	eng, store := newEngine(t, &fakeClient{})
	_ = store.Write("plain.md", []byte("no block"), time.Time{})

	_, err := eng.Fetch(context.Background(), "plain.md", testSettings())
	if !errors.Is(err, apperr.ErrNoIssue) {
		t.Errorf("err = %v, want ErrNoIssue", err)
	}
}

func TestFetch_EmptyPath(t *testing.T) {
	eng, _ := newEngine(t, &fakeClient{})
	_, err := eng.Fetch(context.Background(), "", testSettings())
	if !errors.Is(err, apperr.ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestPull_ReplacesContentAndRenames(t *testing.T) {
	remote := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: 5, Title: "Fix: bug/crash?", Body: "remote body", UpdatedAt: remote}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("old-name.md", []byte("---\ngithub_issue: 5\n---\nlocal body"), time.Time{})

	res, err := eng.Pull(context.Background(), "old-name.md", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "Fix_ bug_crash_.md" {
		t.Errorf("path = %q", res.Path)
	}
	if res.RenameErr != nil {
		t.Errorf("unexpected rename error: %v", res.RenameErr)
	}

	data, err := store.Read(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "remote body") || strings.Contains(text, "local body") {
		t.Errorf("content = %q", text)
	}
	if !strings.Contains(text, "github_issue: 5") {
		t.Errorf("link lost: %q", text)
	}
	if !strings.Contains(text, `github_issue_title: "Fix: bug/crash?"`) {
		t.Errorf("title not recorded: %q", text)
	}
	if _, err := store.Read("old-name.md"); err == nil {
		t.Error("old file still present after rename")
	}
	info, _ := store.Stat(res.Path)
	if !info.ModTime.Truncate(time.Second).Equal(remote) {
		t.Errorf("mtime = %v, want %v", info.ModTime, remote)
	}
}

func TestPull_PreservesLocalOverride(t *testing.T) {
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			// Remote body carries its own block; its override must not win.
			body := "---\ngithub_repo: evil/elsewhere\n---\nremote body"
			return &github.Issue{Number: 5, Title: "t", Body: body, UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("d.md", []byte("---\ngithub_issue: 5\ngithub_repo: acme/mine\n---\nx"), time.Time{})

	res, err := eng.Pull(context.Background(), "d.md", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read(res.Path)
	text := string(data)
	if !strings.Contains(text, "github_repo: acme/mine") {
		t.Errorf("local override lost: %q", text)
	}
	if strings.Contains(text, "evil/elsewhere") {
		t.Errorf("remote override leaked: %q", text)
	}
}

func TestPull_ClearsOverrideAbsentLocally(t *testing.T) {
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			body := "---\ngithub_repo: evil/elsewhere\n---\nremote body"
			return &github.Issue{Number: 5, Title: "t", Body: body, UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("d.md", []byte("---\ngithub_issue: 5\n---\nx"), time.Time{})

	res, err := eng.Pull(context.Background(), "d.md", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read(res.Path)
	if strings.Contains(string(data), "github_repo:") {
		t.Errorf("override invented on pull: %q", data)
	}
}

// failMove wraps a Provider so Move always fails.
type failMove struct {
	storage.Provider
}

func (f *failMove) Move(oldPath, newPath string) error {
	return errors.New("move denied")
}

func TestPull_RenameFailureIsNotFatal(t *testing.T) {
	remote := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: 5, Title: "New Name", Body: "remote body", UpdatedAt: remote}, nil
		},
	}
	_, inner := testutil.TestVault(t)
	store := &failMove{Provider: inner}
	eng := New(store, client, nil)
	_ = store.Write("old.md", []byte("---\ngithub_issue: 5\n---\nx"), time.Time{})

	res, err := eng.Pull(context.Background(), "old.md", testSettings())
	if err != nil {
		t.Fatalf("rename failure must not abort the pull: %v", err)
	}
	if res.RenameErr == nil {
		t.Error("rename error not reported")
	}
	if res.Path != "old.md" {
		t.Errorf("path = %q, want original", res.Path)
	}
	data, _ := store.Read("old.md")
	if !strings.Contains(string(data), "remote body") {
		t.Errorf("content not updated in place: %q", data)
	}
}

func TestPull_UnlinkedDocument(t *testing.T) {
	eng, store := newEngine(t, &fakeClient{})
	_ = store.Write("plain.md", []byte("no block"), time.Time{})

	_, err := eng.Pull(context.Background(), "plain.md", testSettings())
	if !errors.Is(err, apperr.ErrNoIssue) {
		t.Errorf("err = %v, want ErrNoIssue", err)
	}
}

func TestCreateFromIssue(t *testing.T) {
	remote := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: 77, Title: "Roadmap 2024", Body: "remote body", UpdatedAt: remote}, nil
		},
	}
	eng, store := newEngine(t, client)

	res, err := eng.CreateFromIssue(context.Background(), 77, "inbox", "", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != "inbox/Roadmap 2024.md" {
		t.Errorf("path = %q", res.Path)
	}

	data, _ := store.Read(res.Path)
	text := string(data)
	if !strings.Contains(text, "github_issue: 77") || !strings.Contains(text, "remote body") {
		t.Errorf("content = %q", text)
	}
	if strings.Contains(text, "github_issue_title:") {
		t.Errorf("import must not record a title: %q", text)
	}
	info, _ := store.Stat(res.Path)
	if !info.ModTime.Truncate(time.Second).Equal(remote) {
		t.Errorf("mtime = %v, want %v", info.ModTime, remote)
	}
}

func TestCreateFromIssue_OverrideTargetAndKey(t *testing.T) {
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			if tg.Owner != "other" || tg.Repo != "repo" {
				t.Errorf("target = %+v", tg)
			}
			return &github.Issue{Number: 1, Title: "T", Body: "b", UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)

	res, err := eng.CreateFromIssue(context.Background(), 1, "", "other/repo", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read(res.Path)
	if !strings.Contains(string(data), "github_repo: other/repo") {
		t.Errorf("override key missing: %q", data)
	}
}

func TestCreateFromIssue_PlaceholderName(t *testing.T) {
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: 2, Title: "   ", Body: "b", UpdatedAt: time.Now()}, nil
		},
	}
	eng, _ := newEngine(t, client)

	res, err := eng.CreateFromIssue(context.Background(), 2, "", "", testSettings())
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != PlaceholderName+".md" {
		t.Errorf("path = %q", res.Path)
	}
}

func TestCreateFromIssue_AlreadyExists(t *testing.T) {
	client := &fakeClient{
		get: func(tg repocfg.Target, number int) (*github.Issue, error) {
			return &github.Issue{Number: 3, Title: "Taken", Body: "b", UpdatedAt: time.Now()}, nil
		},
	}
	eng, store := newEngine(t, client)
	_ = store.Write("Taken.md", []byte("existing"), time.Time{})

	_, err := eng.CreateFromIssue(context.Background(), 3, "", "", testSettings())
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}
