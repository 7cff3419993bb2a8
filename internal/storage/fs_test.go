package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("doc.md", content, time.Time{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("doc.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep"), time.Time{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteAppliesMtime(t *testing.T) {
	s := tempVault(t)
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.Write("stamped.md", []byte("x"), want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := s.Stat("stamped.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.ModTime.Truncate(time.Second).Equal(want) {
		t.Errorf("mtime = %v, want %v", info.ModTime, want)
	}
}

func TestWriteZeroMtimeKeepsNaturalTime(t *testing.T) {
	s := tempVault(t)
	before := time.Now().Add(-time.Minute)
	if err := s.Write("fresh.md", []byte("x"), time.Time{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := s.Stat("fresh.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.ModTime.Before(before) {
		t.Errorf("mtime = %v, looks stamped", info.ModTime)
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("s.md", []byte("x"), time.Time{})
	info, err := s.Stat("s.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Path != "s.md" {
		t.Errorf("path = %q", info.Path)
	}
	if _, err := s.Stat("missing.md"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.md", []byte("bye"), time.Time{})
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestMove(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("old.md", []byte("data"), time.Time{})
	if err := s.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.md"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"), time.Time{})
	_ = s.Write("sub/b.md", []byte("b"), time.Time{})
	_ = s.Write("readme.txt", []byte("not md"), time.Time{})

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x"), time.Time{}); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Verify that if we read during a write the old content is intact
	// (the rename is atomic on POSIX).
	s := tempVault(t)
	original := []byte("original content")
	_ = s.Write("atomic.md", original, time.Time{})

	// Overwrite with new content.
	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated, time.Time{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".tiwaz-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/tiwaz-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "tiwaz-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
