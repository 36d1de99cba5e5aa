package convert

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sanitize removes every script and style element from rawHTML and
// rewrites a[href] and img[src] to absolute URLs resolved against baseURL.
// References that cannot be parsed are left unchanged.
func Sanitize(rawHTML, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style").Remove()
	absolutize(doc.Find("a[href]"), "href", base)
	absolutize(doc.Find("img[src]"), "src", base)

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out, nil
}

func absolutize(sel *goquery.Selection, attr string, base *url.URL) {
	sel.Each(func(_ int, s *goquery.Selection) {
		ref, _ := s.Attr(attr)
		u, err := base.Parse(strings.TrimSpace(ref))
		if err != nil {
			return
		}
		s.SetAttr(attr, u.String())
	})
}
