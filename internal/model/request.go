package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MaxCrawlDepth is the largest accepted crawl depth.
const MaxCrawlDepth = 5

// Format selects how fetched pages are converted.
type Format string

const (
	// FormatMarkdown converts pages to Markdown with ATX headings.
	FormatMarkdown Format = "markdown"

	// FormatHTML keeps pages as HTML with scripts and styles removed.
	FormatHTML Format = "html"
)

// Request validation errors.
var (
	// ErrEmptyURL is returned when the start URL is missing.
	ErrEmptyURL = errors.New("start URL is required")

	// ErrUnsupportedScheme is returned for start URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("start URL must use http or https")

	// ErrInvalidDepth is returned when the depth is outside [0, MaxCrawlDepth].
	ErrInvalidDepth = fmt.Errorf("crawl depth must be between 0 and %d", MaxCrawlDepth)

	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("output format must be markdown or html")
)

// ParseFormat converts a user supplied format name into a Format.
// Matching is case-insensitive and accepts "md" as an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Extension returns the file extension (without dot) for the format.
func (f Format) Extension() string {
	if f == FormatHTML {
		return "html"
	}
	return "md"
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// CrawlRequest describes one user-initiated conversion run.
// It is created once and must not be modified while the run is in progress.
type CrawlRequest struct {
	// StartURL is the seed page of the crawl.
	StartURL string `json:"start_url"`

	// MaxDepth is the number of link hops followed beyond the seed.
	// 0 means only the seed page is converted.
	MaxDepth int `json:"max_depth"`

	// Format selects Markdown or cleaned HTML output.
	Format Format `json:"format"`

	// Combine writes every page into one document instead of one file per page.
	Combine bool `json:"combine"`

	// RenderJavaScript loads pages in a headless browser before conversion.
	RenderJavaScript bool `json:"render_javascript"`

	// OutputDir is the user supplied output directory.
	// Empty means a directory is derived from the domain and a timestamp.
	OutputDir string `json:"output_dir,omitempty"`
}

// Validate checks that the request can be executed.
// It returns the first problem found.
func (r CrawlRequest) Validate() error {
	if strings.TrimSpace(r.StartURL) == "" {
		return ErrEmptyURL
	}

	u, err := url.Parse(r.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, r.StartURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid start URL %q: missing host", r.StartURL)
	}

	if r.MaxDepth < 0 || r.MaxDepth > MaxCrawlDepth {
		return ErrInvalidDepth
	}

	if r.Format != FormatMarkdown && r.Format != FormatHTML {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, r.Format)
	}

	return nil
}

// NormalizeStartURL adds an https scheme to bare host names such as
// "example.com/docs". URLs that already carry a scheme are returned as-is.
func NormalizeStartURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}
