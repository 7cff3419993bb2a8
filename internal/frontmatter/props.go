package frontmatter

import "strings"

// Well-known keys linking a document to a GitHub issue.
const (
	KeyIssue = "github_issue"
	KeyRepo  = "github_repo"
	KeyTitle = "github_issue_title"
)

// IssueID returns the linked issue number as a decimal string.
func IssueID(text string) (string, bool) {
	return lookup(text, KeyIssue)
}

// RepoOverride returns the per-document repository override
// ("owner/repo" or bare "repo").
func RepoOverride(text string) (string, bool) {
	return lookup(text, KeyRepo)
}

// IssueTitle returns the stored issue title with quoting removed.
func IssueTitle(text string) (string, bool) {
	raw, ok := lookup(text, KeyTitle)
	if !ok {
		return "", false
	}
	return unescapeTitle(raw), true
}

func lookup(text, key string) (string, bool) {
	b, ok := ReadBlock(text)
	if !ok {
		return "", false
	}
	for _, line := range b.Lines {
		if keyOf(line) == key {
			return valueOf(line), true
		}
	}
	return "", false
}

// Tracked carries the three linked fields for WriteTracked. For each field a
// nil pointer means "not supplied, carry the existing value forward"; a
// pointer to the empty string means "clear, omit the key"; anything else is
// written as the new value. The two must never be collapsed: a writer that
// treats cleared as keep-existing silently resurrects stale keys.
type Tracked struct {
	IssueID      *string
	RepoOverride *string
	IssueTitle   *string
}

// WriteTracked is the canonical mutation path for the linked fields. It
// rewrites the block so that untracked keys survive unchanged in their
// original order, followed by the tracked keys in fixed order: issue, repo,
// title. Titles are quoted on the way in when they need escaping. Calling it
// with the same arguments twice yields identical output.
//
// The single-field setters below delegate here so that every write
// re-asserts all three fields; updating one key against content that lacks
// the others must not drop them.
func WriteTracked(text string, upd Tracked) string {
	var existing []string
	body := text
	hadBlock := false
	if b, ok := ReadBlock(text); ok {
		existing = b.Lines
		body = StripBlock(text)
		hadBlock = true
	}

	issue := decide(upd.IssueID, existing, KeyIssue)
	repo := decide(upd.RepoOverride, existing, KeyRepo)
	// A carried-forward title is already in serialized (possibly quoted)
	// form; only a freshly supplied one needs escaping.
	title := decide(upd.IssueTitle, existing, KeyTitle)
	if upd.IssueTitle != nil && title != nil {
		escaped := escapeTitle(*title)
		title = &escaped
	}

	updates := []Update{
		{Key: KeyIssue, Value: issue},
		{Key: KeyRepo, Value: repo},
		{Key: KeyTitle, Value: title},
	}
	merged := MergeKeys(existing, updates, nil)

	if len(merged) == 0 && !hadBlock {
		return text
	}
	out := SerializeBlock(merged)
	if body != "" {
		out += "\n" + body
	}
	return out
}

// decide resolves one tracked field: supplied empty clears, supplied
// non-empty sets, nil carries the existing raw value forward.
func decide(supplied *string, existing []string, key string) *string {
	if supplied != nil {
		if *supplied == "" {
			return nil
		}
		return supplied
	}
	for _, line := range existing {
		if keyOf(line) == key {
			v := valueOf(line)
			return &v
		}
	}
	return nil
}

// SetIssueID writes only the issue id, keeping the other tracked fields.
func SetIssueID(text, id string) string {
	return WriteTracked(text, Tracked{IssueID: &id})
}

// SetRepoOverride writes only the repository override.
func SetRepoOverride(text, repo string) string {
	return WriteTracked(text, Tracked{RepoOverride: &repo})
}

// SetIssueTitle writes only the issue title.
func SetIssueTitle(text, title string) string {
	return WriteTracked(text, Tracked{IssueTitle: &title})
}

// titleSpecials are the characters that force a title value into quoted form.
const titleSpecials = ":`'\"{}[]|><!?*&$%@#\\"

func escapeTitle(title string) string {
	if !strings.ContainsAny(title, titleSpecials) && !strings.Contains(title, "\n") {
		return title
	}
	return `"` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

func unescapeTitle(raw string) string {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		inner := raw[1 : len(raw)-1]
		return strings.ReplaceAll(inner, `\"`, `"`)
	}
	return raw
}
