package output

import (
	"fmt"
	"html"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/markdown"

	"github.com/nao1215/webconv/internal/model"
)

// WriteCombined writes doc into {dir}/website_content.{md,html} and
// returns the file path. seedURL names the document in the HTML title.
func WriteCombined(dir, seedURL string, format model.Format, doc *model.CombinedDocument) (string, error) {
	var b strings.Builder
	var err error
	switch format {
	case model.FormatHTML:
		err = RenderCombinedHTML(&b, seedURL, doc)
	case model.FormatMarkdown:
		err = RenderCombinedMarkdown(&b, doc)
	default:
		return "", fmt.Errorf("%w: %q", model.ErrInvalidFormat, format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, CombinedFileName(format))
	if err := writeFile(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// RenderCombinedMarkdown writes one "## Content from {url}" section per page.
func RenderCombinedMarkdown(w io.Writer, doc *model.CombinedDocument) error {
	md := markdown.NewMarkdown(w)
	for _, entry := range doc.Entries() {
		md.H2("Content from " + entry.URL)
		md.PlainText("")
		md.PlainText(strings.TrimRight(entry.Content, "\n"))
		md.PlainText("")
	}
	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to render combined markdown: %w", err)
	}
	return nil
}

// RenderCombinedHTML writes an HTML document titled after seedURL with an
// "<h2>Content from {url}</h2>" heading before each page. Only the body
// markup of each page is embedded.
func RenderCombinedHTML(w io.Writer, seedURL string, doc *model.CombinedDocument) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "<title>Scraped Content from %s</title>\n", html.EscapeString(seedURL))
	b.WriteString("</head>\n<body>\n")
	for _, entry := range doc.Entries() {
		fmt.Fprintf(&b, "<h2>Content from %s</h2>\n", html.EscapeString(entry.URL))
		b.WriteString(pageBody(entry.Content))
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to render combined HTML: %w", err)
	}
	return nil
}

// pageBody returns the inner markup of the <body> of content. Fragments
// come back as they were; full documents lose their <html> and <head>.
func pageBody(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return content
	}
	return strings.TrimSpace(body)
}
