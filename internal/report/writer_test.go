package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webconv/internal/model"
)

// createTestRun creates a finished run with one failed page.
func createTestRun() *model.ConversionRun {
	run := model.NewConversionRun(model.CrawlRequest{
		StartURL: "https://example.com/",
		MaxDepth: 1,
		Format:   model.FormatMarkdown,
	})
	run.OutputDir = "/tmp/out"
	run.AddPage(&model.PageResult{URL: "https://example.com/", Depth: 1, Title: "Home", OutputPath: "/tmp/out/index.md"})
	run.AddPage(&model.PageResult{URL: "https://example.com/broken", Depth: 0, Error: "unexpected status 404"})
	run.AddFile("/tmp/out/index.md")
	run.FinishedAt = run.StartedAt.Add(1500 * time.Millisecond)
	return run
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	t.Run("counts pages", func(t *testing.T) {
		t.Parallel()

		s := NewSummary(createTestRun())
		if s.PagesOK != 1 || s.PagesFailed != 1 {
			t.Errorf("expected 1 ok and 1 failed, got %d and %d", s.PagesOK, s.PagesFailed)
		}
		if s.Status != StatusComplete {
			t.Errorf("expected status %q, got %q", StatusComplete, s.Status)
		}
		if s.DurationMS != 1500 {
			t.Errorf("expected 1500ms, got %d", s.DurationMS)
		}
		if len(s.FailedPages()) != 1 {
			t.Errorf("expected one failed page, got %d", len(s.FailedPages()))
		}
	})

	t.Run("error status from Err", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Err = errors.New("disk full")
		s := NewSummary(run)
		if s.Status != StatusError || s.Error != "disk full" {
			t.Errorf("expected error status with message, got %q %q", s.Status, s.Error)
		}
	})

	t.Run("cancelled wins over error", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Cancelled = true
		run.ErrorMessage = "context canceled"
		if s := NewSummary(run); s.Status != StatusCancelled {
			t.Errorf("expected cancelled status, got %q", s.Status)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and properties", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"WEBCONV REPORT",
			"Start URL:      https://example.com/",
			"Pages:          1 converted, 1 failed",
			"Status:         Complete",
			"FAILED PAGES",
			"unexpected status 404",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "VISITED PAGES") {
			t.Error("expected page list only in verbose mode")
		}
	})

	t.Run("verbose lists pages and files", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[+] https://example.com/ (depth 1)") {
			t.Error("expected visited page entry")
		}
		if !strings.Contains(output, "/tmp/out/index.md") {
			t.Error("expected written file entry")
		}
	})

	t.Run("hides empty failure section", func(t *testing.T) {
		t.Parallel()

		run := model.NewConversionRun(model.CrawlRequest{StartURL: "https://example.com/", Format: model.FormatHTML})
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "FAILED PAGES") {
			t.Error("expected no failure section")
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(run); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No failed pages") {
			t.Error("expected empty failure section")
		}
	})

	t.Run("batch totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.ConversionRun{createTestRun(), createTestRun()}
		if _, err := NewSimpleWriter(&buf).WriteBatch(runs); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Runs:           2 (0 failed)") {
			t.Errorf("expected batch totals, got %q", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var s Summary
		if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if s.Seed != "https://example.com/" {
			t.Errorf("expected seed, got %q", s.Seed)
		}
		if len(s.Pages) != 2 || s.Pages[1].Error == "" {
			t.Errorf("expected pages with error, got %+v", s.Pages)
		}
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("expected compact output")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"seed\"") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("batch with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.WriteBatch([]*model.ConversionRun{createTestRun()}); err != nil {
			t.Fatal(err)
		}

		var b BatchSummary
		if err := json.Unmarshal(buf.Bytes(), &b); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if b.Version != "v1.2.3" || len(b.Runs) != 1 || b.PagesFailed != 1 {
			t.Errorf("unexpected batch summary: %+v", b)
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero byte count")
		}

		output := buf.String()
		for _, want := range []string{
			"# webconv Report",
			"https://example.com/",
			"### Pages",
			"unexpected status 404",
			"mermaid",
			"- /tmp/out/index.md",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("batch sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []*model.ConversionRun{createTestRun()}
		if _, err := NewMarkdownWriter(&buf).WriteBatch(runs); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "## https://example.com/") {
			t.Errorf("expected per-run section, got %q", buf.String())
		}
	})
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "WEBCONV REPORT"},
		{"", "WEBCONV REPORT"},
		{FormatJSON, `"seed": "https://example.com/"`},
		{FormatMarkdown, "webconv Report"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := NewWriter(&buf, tt.format, Settings{Version: "v1.0.0"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n, err := WriteRuns(w, []*model.ConversionRun{createTestRun()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n == 0 {
				t.Error("expected a non-zero byte count")
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected output to contain %q, got %q", tt.want, buf.String())
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		if _, err := NewWriter(&bytes.Buffer{}, Format("xml"), Settings{}); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestWriteRunsBatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
	runs := []*model.ConversionRun{createTestRun(), createTestRun()}
	if _, err := WriteRuns(w, runs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"version":"v1.2.3"`) {
		t.Errorf("expected compact batch output with version, got %q", buf.String())
	}
}

func TestJSONWriterKeepsURLs(t *testing.T) {
	t.Parallel()

	run := createTestRun()
	run.Pages[0].URL = "https://example.com/search?q=go&page=2"

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "q=go&page=2") {
		t.Errorf("expected unescaped URL, got %q", buf.String())
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 8, "abcde..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d): expected %q, got %q", tt.in, tt.max, tt.want, got)
		}
	}
}
