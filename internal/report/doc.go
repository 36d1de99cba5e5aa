// Package report renders the summary of conversion runs.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal (default)
//   - JSONWriter: structured output for scripts
//   - MarkdownWriter: a Markdown document with tables
//
// NewWriter picks the writer for a Format, and WriteRuns chooses between
// the single-run and batch layout.
package report
