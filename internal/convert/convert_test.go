package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/webconv/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Sample</title>
<style>body { color: red; }</style>
<script>var tracking = "secret";</script>
</head>
<body>
<h1>Welcome</h1>
<p>Read the <a href="/docs/intro">introduction</a> or <a href="guide.html">guide</a>.</p>
<p>External <a href="https://other.com/x">site</a>.</p>
<img src="images/logo.png" alt="logo">
<script src="/app.js"></script>
</body>
</html>`

func TestSanitize(t *testing.T) {
	t.Parallel()

	out, err := Sanitize(samplePage, "https://example.com/section/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("removes scripts and styles", func(t *testing.T) {
		t.Parallel()
		for _, unwanted := range []string{"<script", "<style", "tracking", "color: red"} {
			if strings.Contains(out, unwanted) {
				t.Errorf("expected %q to be removed, got %s", unwanted, out)
			}
		}
	})

	t.Run("absolutizes links against the page URL", func(t *testing.T) {
		t.Parallel()
		for _, want := range []string{
			`href="https://example.com/docs/intro"`,
			`href="https://example.com/section/guide.html"`,
			`href="https://other.com/x"`,
			`src="https://example.com/section/images/logo.png"`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in output, got %s", want, out)
			}
		}
	})

	t.Run("keeps content", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(out, "<h1>Welcome</h1>") {
			t.Errorf("expected heading to be kept, got %s", out)
		}
	})
}

func TestSanitize_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := Sanitize("<p>x</p>", "http://[::1"); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func TestToMarkdown(t *testing.T) {
	t.Parallel()

	out, err := ToMarkdown(samplePage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "# Welcome") {
		t.Errorf("expected ATX heading, got %q", out)
	}
	if strings.Contains(out, "=====") {
		t.Errorf("expected no setext heading, got %q", out)
	}
	if !strings.Contains(out, "[introduction](/docs/intro)") {
		t.Errorf("expected relative link to be kept, got %q", out)
	}
	if strings.Contains(out, "tracking") || strings.Contains(out, "color: red") {
		t.Errorf("expected script and style content to be dropped, got %q", out)
	}
}

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	const base = "https://example.com/section/page"

	t.Run("markdown keeps relative links by default", func(t *testing.T) {
		t.Parallel()

		out, err := Convert(samplePage, base, model.FormatMarkdown)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(/docs/intro)") {
			t.Errorf("expected relative link, got %q", out)
		}
	})

	t.Run("markdown with absolute links", func(t *testing.T) {
		t.Parallel()

		out, err := NewConverter(WithAbsoluteLinks(true)).Convert(samplePage, base, model.FormatMarkdown)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(https://example.com/docs/intro)") {
			t.Errorf("expected absolute link, got %q", out)
		}
		if !strings.Contains(out, "https://example.com/section/images/logo.png") {
			t.Errorf("expected absolute image, got %q", out)
		}
	})

	t.Run("html output is sanitized", func(t *testing.T) {
		t.Parallel()

		out, err := Convert(samplePage, base, model.FormatHTML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "<script") {
			t.Errorf("expected scripts to be removed, got %s", out)
		}
		if !strings.Contains(out, `href="https://example.com/docs/intro"`) {
			t.Errorf("expected absolute link, got %s", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		_, err := Convert(samplePage, base, model.Format("pdf"))
		if !errors.Is(err, model.ErrInvalidFormat) {
			t.Errorf("expected ErrInvalidFormat, got %v", err)
		}
	})
}

func TestConverter_Readability(t *testing.T) {
	t.Parallel()

	paragraph := strings.Repeat("This is the main article text that readability should keep. ", 20)
	page := `<html><head><title>Article</title></head><body>
<nav><a href="/">Home</a><a href="/about">About</a><a href="/contact">Contact</a></nav>
<article><h2>Story</h2><p>` + paragraph + `</p><p>` + paragraph + `</p></article>
<footer>Copyright footer links</footer>
</body></html>`

	out, err := NewConverter(WithReadability(true)).Convert(page, "https://example.com/story", model.FormatMarkdown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "main article text") {
		t.Errorf("expected article text to be kept, got %q", out)
	}
	if strings.Contains(out, "Copyright footer links") {
		t.Errorf("expected footer to be dropped, got %q", out)
	}
}

func TestConverter_ReadabilityFallback(t *testing.T) {
	t.Parallel()

	c := NewConverter(WithReadability(true))
	if got := c.mainContent("<p>tiny</p>", "://bad"); got != "<p>tiny</p>" {
		t.Errorf("expected the page to be returned unchanged, got %q", got)
	}
}
