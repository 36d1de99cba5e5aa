package convert

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/webconv/internal/model"
)

// Converter converts page markup into Markdown or cleaned HTML.
type Converter struct {
	readability   bool
	absoluteLinks bool
	logger        *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithReadability reduces pages to their main content before conversion.
func WithReadability(enabled bool) Option {
	return func(c *Converter) {
		c.readability = enabled
	}
}

// WithAbsoluteLinks rewrites link and image targets to absolute URLs in
// Markdown output. HTML output always uses absolute URLs.
func WithAbsoluteLinks(enabled bool) Option {
	return func(c *Converter) {
		c.absoluteLinks = enabled
	}
}

// WithLogger sets the logger for the converter.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConverter creates a Converter with the given options.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert converts rawHTML fetched from baseURL into format.
func (c *Converter) Convert(rawHTML, baseURL string, format model.Format) (string, error) {
	if c.readability {
		rawHTML = c.mainContent(rawHTML, baseURL)
	}

	switch format {
	case model.FormatHTML:
		return Sanitize(rawHTML, baseURL)
	case model.FormatMarkdown:
		if c.absoluteLinks {
			absolute, err := Sanitize(rawHTML, baseURL)
			if err != nil {
				return "", err
			}
			rawHTML = absolute
		}
		return ToMarkdown(rawHTML)
	default:
		return "", fmt.Errorf("%w: %q", model.ErrInvalidFormat, format)
	}
}

// Convert converts rawHTML with the default options: no readability and
// Markdown links left as written.
func Convert(rawHTML, baseURL string, format model.Format) (string, error) {
	return NewConverter().Convert(rawHTML, baseURL, format)
}
