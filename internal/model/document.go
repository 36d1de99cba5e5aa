package model

// CombinedDocument collects converted pages for single-file output.
// Entries keep the order in which URLs were first added.
type CombinedDocument struct {
	order    []string
	contents map[string]string
}

// DocumentEntry is one page of a CombinedDocument.
type DocumentEntry struct {
	URL     string
	Content string
}

// NewCombinedDocument creates an empty document.
func NewCombinedDocument() *CombinedDocument {
	return &CombinedDocument{
		order:    make([]string, 0),
		contents: make(map[string]string),
	}
}

// Add stores content for url. Adding a URL that is already present replaces
// its content but keeps its original position.
func (d *CombinedDocument) Add(url, content string) {
	if _, ok := d.contents[url]; !ok {
		d.order = append(d.order, url)
	}
	d.contents[url] = content
}

// Len returns the number of pages in the document.
func (d *CombinedDocument) Len() int {
	return len(d.order)
}

// Entries returns the pages in first-visit order.
func (d *CombinedDocument) Entries() []DocumentEntry {
	entries := make([]DocumentEntry, 0, len(d.order))
	for _, u := range d.order {
		entries = append(entries, DocumentEntry{URL: u, Content: d.contents[u]})
	}
	return entries
}
