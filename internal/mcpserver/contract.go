package mcpserver

// FrontMatterFormatContract describes the sync front-matter block that
// LLM consumers should follow when creating or editing vault documents.
const FrontMatterFormatContract = `# Tiwaz Front-Matter Format Contract

A vault document is a Markdown file, optionally prefixed with a front-matter
block that links it to a GitHub issue.

## Structure

` + "```" + `markdown
---
github_issue: 42                       # issue number this document syncs with
github_repo: acme/widgets              # OPTIONAL - overrides the global repository
github_issue_title: "Fix: login bug"   # last known issue title; managed by sync
---

Body text in standard Markdown. The body is what gets pushed as the
issue body (the front-matter block is stripped first).
` + "```" + `

## Rules

1. **The block is optional.** A document without a front-matter block is a
   plain, unlinked document; the first push creates an issue and writes the
   block in.
2. **Delimiters are exact.** The opening ` + "`" + `---` + "`" + ` must be the very first line
   of the file and the closing ` + "`" + `---` + "`" + ` must appear on its own line. A file
   that starts with ` + "`" + `---` + "`" + ` but never closes it has no block at all.
3. **Keys are one per line**, ` + "`" + `key: value` + "`" + `, split on the first colon.
   Unknown keys are preserved verbatim by every sync operation, so the block
   may carry other tooling's metadata freely.
4. **` + "`" + `github_repo` + "`" + ` is ` + "`" + `owner/repo` + "`" + ` or a bare repo name.** A bare name
   keeps the globally configured owner. When absent, both owner and repo come
   from the global configuration.
5. **` + "`" + `github_issue_title` + "`" + ` is maintained by sync operations.** Values
   containing YAML-significant characters are double-quoted with ` + "`" + `\"` + "`" + `
   escaping. Do not edit it by hand; rename the file or the issue instead.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. The filename
   stem (without ` + "`" + `.md` + "`" + `) is used as the issue title on first push.
`
