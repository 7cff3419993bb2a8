// Package frontmatter reads and rewrites the delimited key-value block at
// the top of a Markdown document. The block is treated as an ordered list of
// raw `key: value` lines, never as general YAML: rewrites must preserve
// unrelated lines byte for byte.
package frontmatter

import "strings"

// Delimiter is the line that opens and closes a front-matter block.
const Delimiter = "---"

// Block is a parsed front-matter block.
type Block struct {
	// Lines are the raw lines strictly between the two delimiters,
	// in original order. Empty (but non-nil) for an adjacent pair.
	Lines []string
	// BodyStart is the index of the first line after the closing delimiter.
	BodyStart int
}

// ReadBlock parses the front-matter block of text. A block is present only
// when the very first line equals the delimiter and a later line equals it
// again; anything else (including an unclosed opening delimiter) reports
// no block.
func ReadBlock(text string) (*Block, bool) {
	lines := splitLines(text)
	if len(lines) == 0 || lines[0] != Delimiter {
		return nil, false
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] == Delimiter {
			inner := make([]string, i-1)
			copy(inner, lines[1:i])
			return &Block{Lines: inner, BodyStart: i + 1}, true
		}
	}
	return nil, false
}

// StripBlock returns text with the front-matter block and both delimiters
// removed. Text without a block is returned unchanged.
func StripBlock(text string) string {
	b, ok := ReadBlock(text)
	if !ok {
		return text
	}
	lines := splitLines(text)
	if b.BodyStart >= len(lines) {
		return ""
	}
	return strings.Join(lines[b.BodyStart:], "\n")
}

// SerializeBlock wraps lines in delimiters. SerializeBlock(ReadBlock(t).Lines)
// reproduces the original block verbatim.
func SerializeBlock(lines []string) string {
	var sb strings.Builder
	sb.WriteString(Delimiter)
	for _, l := range lines {
		sb.WriteByte('\n')
		sb.WriteString(l)
	}
	sb.WriteByte('\n')
	sb.WriteString(Delimiter)
	return sb.String()
}

// Update describes one key mutation for MergeKeys. A nil Value removes
// the key instead of rewriting it.
type Update struct {
	Key   string
	Value *string
}

// MergeKeys rewrites block lines: every existing line whose key is neither
// updated nor removed is kept unchanged in place, then one line per
// surviving update is appended in the order the updates were supplied.
func MergeKeys(existing []string, updates []Update, removals []string) []string {
	touched := make(map[string]struct{}, len(updates)+len(removals))
	for _, u := range updates {
		touched[u.Key] = struct{}{}
	}
	for _, k := range removals {
		touched[k] = struct{}{}
	}

	out := make([]string, 0, len(existing)+len(updates))
	for _, line := range existing {
		if _, ok := touched[keyOf(line)]; ok {
			continue
		}
		out = append(out, line)
	}
	for _, u := range updates {
		if u.Value == nil {
			continue
		}
		out = append(out, u.Key+": "+*u.Value)
	}
	return out
}

// keyOf returns the key part of a raw block line (before the first colon),
// trimmed. Lines without a colon yield the whole trimmed line.
func keyOf(line string) string {
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return strings.TrimSpace(line[:i])
	}
	return strings.TrimSpace(line)
}

// valueOf returns everything after the first colon of a raw block line,
// trimmed. Deliberately not split further: a value may itself contain colons.
func valueOf(line string) string {
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

// splitLines splits on \n and drops a trailing \r from each line so CRLF
// documents parse the same as LF ones.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
