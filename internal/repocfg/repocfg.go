// Package repocfg resolves the effective GitHub repository for a document by
// merging its front-matter override with the globally configured defaults.
package repocfg

import (
	"strings"

	"github.com/starford/tiwaz/internal/frontmatter"
)

// Settings are the global defaults from configuration.
type Settings struct {
	Owner string
	Repo  string
	Token string
}

// Target is the owner/repo/token actually used for a transport call.
type Target struct {
	Owner string
	Repo  string
	Token string
}

// Override is a parsed per-document repository override. Empty fields mean
// "fall back to the global setting".
type Override struct {
	Owner string
	Repo  string
}

// ParseOverride splits a raw override on the first slash. "owner/repo" fills
// both fields, a bare "repo" fills only Repo. Empty segments (as in
// "/widgets" or "acme/") are treated as absent rather than passed through.
func ParseOverride(raw string) Override {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Override{}
	}
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		return Override{
			Owner: strings.TrimSpace(raw[:i]),
			Repo:  strings.TrimSpace(raw[i+1:]),
		}
	}
	return Override{Repo: raw}
}

// Resolve computes the effective target for a document. The override is read
// from the document text itself, so callers always resolve against the
// currently stored content rather than a cached field. The token always
// comes from settings.
func Resolve(text string, s Settings) Target {
	t := Target{Owner: s.Owner, Repo: s.Repo, Token: s.Token}
	raw, ok := frontmatter.RepoOverride(text)
	if !ok {
		return t
	}
	ov := ParseOverride(raw)
	if ov.Owner != "" {
		t.Owner = ov.Owner
	}
	if ov.Repo != "" {
		t.Repo = ov.Repo
	}
	return t
}
