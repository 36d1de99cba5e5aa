package model

import "time"

// PageResult is a fetched and converted page.
// It is produced once per visited URL and either written to disk right away
// or added to a CombinedDocument.
type PageResult struct {
	// URL is the address the page was fetched from.
	URL string `json:"url"`

	// Depth is the remaining depth budget when the page was visited.
	Depth int `json:"depth"`

	// Title is the text of the <title> element, if any.
	Title string `json:"title,omitempty"`

	// RawHTML is the markup returned by the fetcher.
	RawHTML string `json:"-"`

	// Content is the converted Markdown or cleaned HTML.
	Content string `json:"-"`

	// FetchedAt is when the fetch finished.
	FetchedAt time.Time `json:"fetched_at"`

	// OutputPath is the file the page was written to.
	// Empty in combined mode and for failed pages.
	OutputPath string `json:"output_path,omitempty"`

	// Error holds the failure message for pages that could not be processed.
	Error string `json:"error,omitempty"`
}

// Failed reports whether processing of the page failed.
func (p *PageResult) Failed() bool {
	return p.Error != ""
}
