package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webconv/internal/model"
)

func TestPageFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url    string
		format model.Format
		want   string
	}{
		{"https://example.com/", model.FormatMarkdown, "index.md"},
		{"https://example.com", model.FormatHTML, "index.html"},
		{"https://example.com/docs/intro", model.FormatMarkdown, "docs_intro.md"},
		{"https://example.com/docs/intro/", model.FormatHTML, "docs_intro.html"},
		{"https://example.com/a/b/c?x=1#y", model.FormatMarkdown, "a_b_c.md"},
		{"https://example.com/page.html", model.FormatMarkdown, "page.html.md"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := PageFileName(tt.url, tt.format); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDefaultDir(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	t.Run("host and timestamp", func(t *testing.T) {
		t.Parallel()

		got, err := DefaultDir("/base", "https://docs.example.com/start", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join("/base", "docs_example_com_20240309_140507")
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("missing host", func(t *testing.T) {
		t.Parallel()

		if _, err := DefaultDir("/base", "/relative", now); err == nil {
			t.Error("expected error for URL without host")
		}
	})

	t.Run("request directory wins", func(t *testing.T) {
		t.Parallel()

		req := model.CrawlRequest{StartURL: "https://example.com/", OutputDir: "/custom"}
		got, err := ResolveDir(req, "/base", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "/custom" {
			t.Errorf("expected /custom, got %q", got)
		}
	})
}

func TestPageWriter(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewPageWriter(dir, model.FormatMarkdown)

	page := &model.PageResult{URL: "https://example.com/", Content: "# Home"}
	if err := w.Accept(page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(dir, "index.md")
	if page.OutputPath != want {
		t.Errorf("expected output path %q, got %q", want, page.OutputPath)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != "# Home" {
		t.Errorf("expected file content %q, got %q", "# Home", data)
	}

	// A second page with the same path overwrites the file.
	if err := w.Accept(&model.PageResult{URL: "https://example.com", Content: "# New"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ = os.ReadFile(want)
	if string(data) != "# New" {
		t.Errorf("expected overwritten content, got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
	if len(w.Files()) != 2 {
		t.Errorf("expected two recorded writes, got %v", w.Files())
	}
}

func sampleDocument() *model.CombinedDocument {
	doc := model.NewCombinedDocument()
	doc.Add("https://example.com/", "Home content")
	doc.Add("https://example.com/b", "B content")
	doc.Add("https://example.com/a", "A content")
	return doc
}

func TestDocumentCollector(t *testing.T) {
	t.Parallel()

	doc := model.NewCombinedDocument()
	c := NewDocumentCollector(doc)
	for _, u := range []string{"https://e.com/2", "https://e.com/1"} {
		if err := c.Accept(&model.PageResult{URL: u, Content: u}); err != nil {
			t.Fatal(err)
		}
	}
	entries := doc.Entries()
	if len(entries) != 2 || entries[0].URL != "https://e.com/2" {
		t.Errorf("expected first-visit order, got %+v", entries)
	}
}

func TestWriteCombined_Markdown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteCombined(dir, "https://example.com/", model.FormatMarkdown, sampleDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "website_content.md" {
		t.Errorf("expected website_content.md, got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if n := strings.Count(content, "## Content from "); n != 3 {
		t.Errorf("expected 3 headings, got %d in %q", n, content)
	}
	home := strings.Index(content, "## Content from https://example.com/\n")
	b := strings.Index(content, "## Content from https://example.com/b")
	a := strings.Index(content, "## Content from https://example.com/a")
	if home < 0 || home >= b || b >= a {
		t.Errorf("expected headings in first-visit order, got %q", content)
	}
	if !strings.Contains(content, "B content") {
		t.Errorf("expected page content, got %q", content)
	}
}

func TestWriteCombined_HTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteCombined(dir, "https://example.com/?q=<x>", model.FormatHTML, sampleDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "website_content.html" {
		t.Errorf("expected website_content.html, got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<meta charset="UTF-8">`,
		"<title>Scraped Content from https://example.com/?q=&lt;x&gt;</title>",
		"<h2>Content from https://example.com/b</h2>\nB content",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in output, got %q", want, content)
		}
	}
	if n := strings.Count(content, "<h2>Content from "); n != 3 {
		t.Errorf("expected 3 headings, got %d", n)
	}
}

func TestRenderCombinedHTML_EmbedsPageBodies(t *testing.T) {
	t.Parallel()

	doc := model.NewCombinedDocument()
	doc.Add("https://example.com/", "<html><head><title>Home</title></head><body><p>home</p></body></html>")
	doc.Add("https://example.com/a", "<p>fragment</p>")

	var b strings.Builder
	if err := RenderCombinedHTML(&b, "https://example.com/", doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := b.String()

	if n := strings.Count(content, "<html"); n != 1 {
		t.Errorf("expected a single <html> element, got %d in %q", n, content)
	}
	if n := strings.Count(content, "<body"); n != 1 {
		t.Errorf("expected a single <body> element, got %d in %q", n, content)
	}
	for _, want := range []string{
		"<h2>Content from https://example.com/</h2>\n<p>home</p>",
		"<h2>Content from https://example.com/a</h2>\n<p>fragment</p>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in output, got %q", want, content)
		}
	}
	if strings.Contains(content, "<title>Home</title>") {
		t.Errorf("expected page head to be dropped, got %q", content)
	}
}

func TestWriteCombined_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := WriteCombined(t.TempDir(), "https://example.com/", model.Format("pdf"), sampleDocument())
	if !errors.Is(err, model.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
