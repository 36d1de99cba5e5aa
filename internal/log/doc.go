// Package log builds the slog loggers used by webconv.
//
// Every logger is wrapped in a SecureHandler that masks sensitive values
// before they reach the output: cookies and authorization headers taken
// from the site configuration, tokens in the query string of crawled
// URLs, and credentials embedded in proxy URLs. Terminal output is rendered by charmbracelet/log, and JSON output
// by slog's JSON handler.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Warn("fetch failed", "url", pageURL, "error", err)
//
//	// Cookie values never appear in the output.
//	logger.Debug("site settings", "cookie", "session=abc123")
package log
