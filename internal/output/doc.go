// Package output writes converted pages to disk.
//
// In per-page mode every page becomes its own file named after its URL
// path. In combined mode all pages of a run are written once, after the
// crawl, into website_content.md or website_content.html.
package output
