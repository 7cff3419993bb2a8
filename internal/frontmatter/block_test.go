package frontmatter

import (
	"reflect"
	"strings"
	"testing"
)

func TestReadBlock_Basic(t *testing.T) {
	text := "---\ngithub_issue: 42\nfoo: bar\n---\nbody line"
	b, ok := ReadBlock(text)
	if !ok {
		t.Fatal("expected a block")
	}
	want := []string{"github_issue: 42", "foo: bar"}
	if !reflect.DeepEqual(b.Lines, want) {
		t.Errorf("lines = %v, want %v", b.Lines, want)
	}
	if b.BodyStart != 4 {
		t.Errorf("body start = %d, want 4", b.BodyStart)
	}
}

func TestReadBlock_EmptyBlock(t *testing.T) {
	b, ok := ReadBlock("---\n---\nbody")
	if !ok {
		t.Fatal("adjacent delimiters form a valid empty block")
	}
	if len(b.Lines) != 0 {
		t.Errorf("lines = %v, want empty", b.Lines)
	}
}

func TestReadBlock_NoBlock(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"x\n---\nkey: v\n---\n", // delimiter not on the first line
		" ---\nkey: v\n---\n",   // leading space, not an exact delimiter
		"---\nkey: v",           // never closed
	}
	for _, tc := range cases {
		if _, ok := ReadBlock(tc); ok {
			t.Errorf("ReadBlock(%q) found a block", tc)
		}
	}
}

func TestReadBlock_CRLF(t *testing.T) {
	b, ok := ReadBlock("---\r\ngithub_issue: 9\r\n---\r\nbody")
	if !ok {
		t.Fatal("CRLF document should parse")
	}
	if b.Lines[0] != "github_issue: 9" {
		t.Errorf("line = %q", b.Lines[0])
	}
}

func TestStripBlock(t *testing.T) {
	text := "---\ngithub_issue: 42\n---\nline one\nline two"
	got := StripBlock(text)
	if got != "line one\nline two" {
		t.Errorf("stripped = %q", got)
	}
}

func TestStripBlock_NoBlockUnchanged(t *testing.T) {
	text := "no block here\n---\nnot front matter"
	if got := StripBlock(text); got != text {
		t.Errorf("stripped = %q, want unchanged", got)
	}
}

func TestStripBlock_EmptyBody(t *testing.T) {
	if got := StripBlock("---\nk: v\n---"); got != "" {
		t.Errorf("stripped = %q, want empty", got)
	}
}

func TestSerializeBlock_RoundTrip(t *testing.T) {
	text := "---\ngithub_issue: 42\nfoo: bar\n---\nbody"
	b, ok := ReadBlock(text)
	if !ok {
		t.Fatal("expected a block")
	}
	got := SerializeBlock(b.Lines)
	if !strings.HasPrefix(text, got) {
		t.Errorf("serialized = %q does not reproduce the original block", got)
	}
}

func TestMergeKeys_PreservesUntouched(t *testing.T) {
	existing := []string{"foo: bar", "github_issue: 1", "weird line"}
	v := "2"
	got := MergeKeys(existing, []Update{{Key: "github_issue", Value: &v}}, nil)
	want := []string{"foo: bar", "weird line", "github_issue: 2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged = %v, want %v", got, want)
	}
}

func TestMergeKeys_Removal(t *testing.T) {
	existing := []string{"foo: bar", "github_repo: acme/widgets"}
	got := MergeKeys(existing, nil, []string{"github_repo"})
	want := []string{"foo: bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged = %v, want %v", got, want)
	}
}

func TestMergeKeys_NilValueRemoves(t *testing.T) {
	existing := []string{"github_issue: 1"}
	got := MergeKeys(existing, []Update{{Key: "github_issue", Value: nil}}, nil)
	if len(got) != 0 {
		t.Errorf("merged = %v, want empty", got)
	}
}

func TestKeyValueSplitOnFirstColon(t *testing.T) {
	line := "github_issue_title: Fix: the bug"
	if k := keyOf(line); k != "github_issue_title" {
		t.Errorf("key = %q", k)
	}
	if v := valueOf(line); v != "Fix: the bug" {
		t.Errorf("value = %q", v)
	}
}
