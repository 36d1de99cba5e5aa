package model

import (
	"errors"
	"testing"
)

// TestParseFormat tests format name parsing.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{input: "markdown", want: FormatMarkdown},
		{input: "Markdown", want: FormatMarkdown},
		{input: "md", want: FormatMarkdown},
		{input: "HTML", want: FormatHTML},
		{input: " html ", want: FormatHTML},
		{input: "pdf", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("expected ErrInvalidFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestFormatExtension tests file extensions per format.
func TestFormatExtension(t *testing.T) {
	t.Parallel()

	if got := FormatMarkdown.Extension(); got != "md" {
		t.Errorf("expected md, got %q", got)
	}
	if got := FormatHTML.Extension(); got != "html" {
		t.Errorf("expected html, got %q", got)
	}
}

// TestCrawlRequestValidate tests request validation.
func TestCrawlRequestValidate(t *testing.T) {
	t.Parallel()

	valid := CrawlRequest{
		StartURL: "https://example.com/",
		MaxDepth: 2,
		Format:   FormatMarkdown,
	}

	t.Run("accepts valid request", func(t *testing.T) {
		t.Parallel()

		if err := valid.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects empty URL", func(t *testing.T) {
		t.Parallel()

		req := valid
		req.StartURL = "  "
		if err := req.Validate(); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("expected ErrEmptyURL, got %v", err)
		}
	})

	t.Run("rejects non-http scheme", func(t *testing.T) {
		t.Parallel()

		req := valid
		req.StartURL = "ftp://example.com/"
		if err := req.Validate(); !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("rejects depth out of range", func(t *testing.T) {
		t.Parallel()

		for _, depth := range []int{-1, MaxCrawlDepth + 1} {
			req := valid
			req.MaxDepth = depth
			if err := req.Validate(); !errors.Is(err, ErrInvalidDepth) {
				t.Errorf("depth %d: expected ErrInvalidDepth, got %v", depth, err)
			}
		}
	})

	t.Run("accepts boundary depths", func(t *testing.T) {
		t.Parallel()

		for _, depth := range []int{0, MaxCrawlDepth} {
			req := valid
			req.MaxDepth = depth
			if err := req.Validate(); err != nil {
				t.Errorf("depth %d: unexpected error: %v", depth, err)
			}
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		t.Parallel()

		req := valid
		req.Format = "pdf"
		if err := req.Validate(); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})
}

// TestNormalizeStartURL tests scheme defaulting.
func TestNormalizeStartURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"example.com":           "https://example.com",
		" example.com/docs ":    "https://example.com/docs",
		"http://example.com":    "http://example.com",
		"https://example.com/a": "https://example.com/a",
		"":                      "",
	}

	for input, want := range tests {
		if got := NormalizeStartURL(input); got != want {
			t.Errorf("NormalizeStartURL(%q) = %q, want %q", input, got, want)
		}
	}
}
