package engine

import (
	"regexp"
	"strings"
)

// PlaceholderName is used when a sanitized title comes out empty.
const PlaceholderName = "untitled-issue"

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns an issue title into a filesystem-safe name:
// reserved characters become underscores, whitespace runs collapse to a
// single space, and the ends are trimmed.
func SanitizeFilename(title string) string {
	s := unsafeChars.ReplaceAllString(title, "_")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
