package convert

import (
	"html"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// mainContent returns the main article markup of rawHTML, or rawHTML itself
// when no article can be extracted.
func (c *Converter) mainContent(rawHTML, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return rawHTML
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		c.logger.Debug("readability found no main content, converting the full page",
			"url", pageURL, "error", err)
		return rawHTML
	}

	if article.Title == "" {
		return article.Content
	}
	return "<h1>" + html.EscapeString(article.Title) + "</h1>\n" + article.Content
}
