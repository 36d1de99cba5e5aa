package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched according to its
// host's robots.txt. Files are fetched once per scheme and host and cached
// for the lifetime of the checker.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsChecker creates a checker that fetches robots.txt with client
// and matches rules for userAgent.
func NewRobotsChecker(client *http.Client, userAgent string, logger *slog.Logger) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether pageURL may be crawled. A robots.txt that cannot
// be fetched or parsed allows everything; a 5xx response disallows everything.
func (r *RobotsChecker) Allowed(ctx context.Context, pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	data := r.robots(ctx, u)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) robots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[key]; ok {
		return data
	}

	data := r.fetch(ctx, key+"/robots.txt")
	// Failures caused by cancellation are not cached.
	if ctx.Err() == nil {
		r.cache[key] = data
	}
	return data
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing all", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		r.logger.Debug("robots.txt unparsable, allowing all", "url", robotsURL, "error", err)
		return nil
	}

	r.logger.Debug("loaded robots.txt", "url", robotsURL, "status", resp.StatusCode)
	return data
}
