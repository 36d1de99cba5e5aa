// Package fetch retrieves the markup of a page.
//
// HTTPFetcher performs a single GET and decodes the body to UTF-8.
// BrowserFetcher loads the page in one shared headless Chrome session so
// that client-side rendered content is present, then returns the serialized
// document. Both implement Fetcher. A Fetcher belongs to one conversion run
// and must be closed when the run ends.
package fetch
