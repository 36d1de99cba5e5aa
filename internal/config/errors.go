package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() to detect a specific problem.
var (
	// ErrNoTarget is returned when no start URL is given.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidDepth is returned when the crawl depth is outside [0, 5].
	ErrInvalidDepth = errors.New("invalid crawl depth: must be between 0 and 5")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero disables the per-request timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidSettleDelay is returned when the browser settle delay is negative.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidConcurrency is returned when the number of concurrent runs is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrEmptyOutputDir is returned when a custom output directory was
	// requested but the path is empty.
	ErrEmptyOutputDir = errors.New("custom output directory requested but no path given")

	// ErrConflictingTransports is returned when both --proxy and --tor are set.
	ErrConflictingTransports = errors.New("conflicting transports: --proxy and --tor cannot be used together")
)
