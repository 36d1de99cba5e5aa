package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseResult holds what the crawler needs from a page.
type ParseResult struct {
	// Title is the text of the first <title> element.
	Title string

	// Links are the same-domain anchor targets, resolved, without
	// fragments, deduplicated, in order of first appearance.
	Links []string
}

// Parser extracts the title and same-domain links of a page.
type Parser struct {
	baseURL *url.URL
}

// NewParser creates a parser for a page fetched from baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Parser{baseURL: u}, nil
}

// Parse walks the document once and collects the title and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Links: make([]string, 0)}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" {
					result.Title = strings.TrimSpace(textContent(n))
				}
			case "a":
				if link := p.resolveURL(getAttr(n, "href")); link != "" && p.isSameDomain(link) && !seen[link] {
					seen[link] = true
					result.Links = append(result.Links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// ParsePage is a convenience wrapper around NewParser and Parse.
func ParsePage(baseURL, rawHTML string) (*ParseResult, error) {
	p, err := NewParser(baseURL)
	if err != nil {
		return nil, err
	}
	return p.Parse(strings.NewReader(rawHTML))
}

// PageTitle returns the trimmed text of the first <title> element of
// rawHTML. Links are not collected.
func PageTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var find func(*html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "title" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	if n := find(doc); n != nil {
		return strings.TrimSpace(textContent(n))
	}
	return ""
}

// ExtractSameDomainLinks returns the anchor targets of rawHTML that share
// baseURL's scheme and host, resolved against baseURL, with fragments
// removed and duplicates dropped.
func ExtractSameDomainLinks(baseURL, rawHTML string) ([]string, error) {
	result, err := ParsePage(baseURL, rawHTML)
	if err != nil {
		return nil, err
	}
	return result.Links, nil
}

// resolveURL resolves href against the base URL. It returns "" for empty,
// in-page and non-navigational references.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// isSameDomain reports whether link has the base URL's scheme and host[:port].
func (p *Parser) isSameDomain(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, p.baseURL.Scheme) && strings.EqualFold(u.Host, p.baseURL.Host)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
