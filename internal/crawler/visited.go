package crawler

import (
	"net/url"
	"strings"
	"sync"
)

// VisitedSet records the URLs fetched during one run.
// It only grows, and URLs keep the order in which they were first added.
type VisitedSet struct {
	mu    sync.Mutex
	seen  map[string]bool
	order []string
}

// NewVisitedSet creates an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]bool)}
}

// Add marks pageURL as visited. It reports false if the URL was already in
// the set.
func (v *VisitedSet) Add(pageURL string) bool {
	key := normalizeURL(pageURL)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[key] {
		return false
	}
	v.seen[key] = true
	v.order = append(v.order, pageURL)
	return true
}

// Contains reports whether pageURL was visited.
func (v *VisitedSet) Contains(pageURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen[normalizeURL(pageURL)]
}

// Len returns the number of visited URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.order)
}

// URLs returns the visited URLs in first-visit order.
func (v *VisitedSet) URLs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// normalizeURL makes equivalent spellings of a URL compare equal:
// the fragment is dropped, scheme and host are lowercased, and an empty
// path becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
