// Package convert turns fetched page markup into the output format.
//
// HTML output is the page with every script and style element removed and
// every link and image reference made absolute. Markdown output uses ATX
// headings and keeps link targets as written in the page unless absolute
// links are requested. Optionally the page is first reduced to its main
// article content with go-readability.
package convert
