package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/webconv/internal/model"
)

// Fetcher retrieves the markup of a page. fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Converter turns page markup into the output format.
// *convert.Converter satisfies it.
type Converter interface {
	Convert(rawHTML, baseURL string, format model.Format) (string, error)
}

// Sink receives every successfully converted page as soon as it is ready.
type Sink interface {
	Accept(page *model.PageResult) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(page *model.PageResult) error

// Accept calls f(page).
func (f SinkFunc) Accept(page *model.PageResult) error {
	return f(page)
}

// Spider crawls a site depth-first from a start URL.
// A Spider keeps its VisitedSet for one Crawl; create a new Spider per run.
type Spider struct {
	fetcher   Fetcher
	converter Converter
	logger    *slog.Logger

	// maxPages caps the pages fetched per crawl. 0 means unlimited.
	maxPages int

	// limiter spaces fetches. Nil means no delay.
	limiter *rate.Limiter

	// robots skips disallowed URLs. Nil means robots.txt is ignored.
	robots *RobotsChecker

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only links matching one of them are crawled.
	followPatterns []string

	// now is the clock used for FetchedAt.
	now func() time.Time

	visited *VisitedSet
	pages   []*model.PageResult
	fetches int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger for the spider.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxPages sets the maximum number of pages fetched per crawl.
// 0 means unlimited.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the minimum time between two fetches. 0 disables the delay.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithRobots makes the spider skip URLs disallowed by robots.txt.
func WithRobots(checker *RobotsChecker) SpiderOption {
	return func(s *Spider) {
		s.robots = checker
	}
}

// WithIgnorePatterns sets URL path patterns whose links are not followed.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts followed links to paths matching at least
// one pattern. An empty slice allows every path.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// NewSpider creates a Spider that fetches with fetcher and converts with converter.
func NewSpider(fetcher Fetcher, converter Converter, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:   fetcher,
		converter: converter,
		logger:    slog.Default(),
		now:       time.Now,
		visited:   NewVisitedSet(),
		pages:     make([]*model.PageResult, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl visits startURL and, while depth remains, the same-domain pages it
// links to. Every converted page is passed to sink. It returns one result
// per visited URL in first-visit order, including failed pages.
//
// Only cancellation of ctx ends the crawl with an error; per-page failures
// are logged and recorded on the page result.
func (s *Spider) Crawl(ctx context.Context, startURL string, depth int, format model.Format, sink Sink) ([]*model.PageResult, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedScheme, startURL)
	}

	err = s.visit(ctx, start.String(), depth, format, sink)
	return s.pages, err
}

// Visited returns the set of URLs visited so far.
func (s *Spider) Visited() *VisitedSet {
	return s.visited
}

// visit processes one URL and recurses into its links.
// The returned error is non-nil only when ctx is done.
func (s *Spider) visit(ctx context.Context, pageURL string, depth int, format model.Format, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth < 0 || s.visited.Contains(pageURL) {
		return nil
	}
	if s.maxPages > 0 && s.fetches >= s.maxPages {
		s.logger.Debug("page limit reached, skipping", "url", pageURL, "max_pages", s.maxPages)
		return nil
	}

	s.visited.Add(pageURL)

	if s.robots != nil && !s.robots.Allowed(ctx, pageURL) {
		s.logger.Info("disallowed by robots.txt, skipping", "url", pageURL)
		return ctx.Err()
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
	}

	s.fetches++
	page := &model.PageResult{URL: pageURL, Depth: depth}
	s.pages = append(s.pages, page)

	rawHTML, err := s.fetcher.Fetch(ctx, pageURL)
	page.FetchedAt = s.now()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			page.Error = ctxErr.Error()
			return ctxErr
		}
		s.logger.Warn("failed to fetch page", "url", pageURL, "error", err)
		page.Error = err.Error()
		return nil
	}
	page.RawHTML = rawHTML

	var (
		links    []string
		parseErr error
	)
	if depth == 0 {
		page.Title = PageTitle(rawHTML)
	} else {
		var parsed *ParseResult
		if parsed, parseErr = ParsePage(pageURL, rawHTML); parseErr == nil {
			page.Title = parsed.Title
			links = parsed.Links
		}
	}

	content, err := s.converter.Convert(rawHTML, pageURL, format)
	if err != nil {
		s.logger.Warn("failed to convert page", "url", pageURL, "error", err)
		page.Error = err.Error()
		return nil
	}
	page.Content = content

	if sink != nil {
		if err := sink.Accept(page); err != nil {
			s.logger.Warn("failed to store page", "url", pageURL, "error", err)
			page.Error = err.Error()
			return nil
		}
	}
	s.logger.Debug("converted page", "url", pageURL, "depth", depth)

	if depth == 0 {
		return nil
	}
	if parseErr != nil {
		s.logger.Warn("failed to extract links", "url", pageURL, "error", parseErr)
		return nil
	}

	for _, link := range links {
		if !s.shouldCrawl(link) {
			continue
		}
		if err := s.visit(ctx, link, depth-1, format, sink); err != nil {
			return err
		}
	}
	return nil
}

// shouldCrawl checks if a link should be followed based on ignore/follow patterns.
//
// Logic:
//  1. If the path matches any ignorePattern, skip it
//  2. If followPatterns is set and the path matches none, skip it
//  3. Otherwise, follow it
func (s *Spider) shouldCrawl(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	urlPath := u.Path
	if urlPath == "" {
		urlPath = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, urlPath) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, urlPath) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing "/*" to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, urlPath string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(urlPath, prefix+"/") || urlPath == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(urlPath, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := path.Match(pattern, urlPath)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash also match the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(urlPath))
		if err == nil && matched {
			return true
		}
	}

	return false
}
