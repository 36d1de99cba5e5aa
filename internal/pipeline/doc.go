// Package pipeline runs conversion runs as a sequence of steps.
//
// A run passes through prepare_output, crawl and write_combined, and the
// final record_history step stores it in the history database. Each step
// receives the *model.ConversionRun and fills in its part. BatchProcessor
// runs several start URLs concurrently with errgroup; every run still has
// its own visited set and its own fetcher.
package pipeline
