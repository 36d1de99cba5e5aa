// Package crawler walks a site depth-first from a start URL.
//
// The Spider fetches each page once per run, converts it, hands the result
// to a Sink and, while depth budget remains, follows the page's links to
// the same scheme and host. Per-page failures are logged and recorded on
// the page result; only context cancellation stops a crawl early.
//
// # Components
//
//   - Spider: the depth-first crawl driver
//   - VisitedSet: URLs fetched during one run, in first-visit order
//   - ExtractSameDomainLinks / ParsePage: link and title extraction
//   - RobotsChecker: optional robots.txt compliance
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, converter, crawler.WithLogger(logger))
//	pages, err := spider.Crawl(ctx, "https://example.com/docs/", 2, model.FormatMarkdown, sink)
package crawler
