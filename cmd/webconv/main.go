// Package main provides the entry point for the webconv CLI.
//
// webconv fetches web pages, optionally follows same-site links up to a
// depth limit, and converts them to Markdown or cleaned HTML files.
//
// Usage:
//
//	webconv convert <url>
//	webconv convert -d 2 -f html --single-file <url>
//	webconv history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
