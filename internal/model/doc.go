// Package model defines the data structures shared by the webconv packages.
//
// This package contains the following main types:
//   - CrawlRequest: The immutable description of one conversion run
//   - PageResult: A fetched and converted page
//   - CombinedDocument: Pages collected for single-file output, in first-visit order
//   - ConversionRun: The per-run record passed through the run pipeline
//
// The types live in their own package so the crawler, output, report and
// database packages can share them without import cycles.
package model
