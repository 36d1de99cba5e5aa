package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// DefaultMaxBodySize is used when no body size limit is configured.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// HTTPFetcher fetches pages with one GET request each.
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
	logger      *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithMaxBodySize limits the bytes read per response. Non-positive values
// keep the default.
func WithMaxBodySize(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithLogger sets the logger for the fetcher.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher using client.
// A nil client is replaced by http.DefaultClient.
func NewHTTPFetcher(client *http.Client, opts ...HTTPOption) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET request and returns the body decoded to UTF-8.
// Non-2xx responses are returned as *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck
		return "", &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", ErrBodyTooLarge, pageURL, f.maxBodySize)
	}

	text, err := decodeBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode body of %s: %w", pageURL, err)
	}

	f.logger.Debug("fetched page", "url", pageURL, "status", resp.StatusCode, "bytes", len(body))
	return text, nil
}

// Close implements Fetcher. HTTPFetcher holds no resources beyond idle
// connections, which are released here.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// decodeBody converts body to UTF-8 using a BOM, the charset from the
// Content-Type header, or a <meta> declaration. Without any of those a
// body that is valid UTF-8 is taken as UTF-8.
func decodeBody(body []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return string(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))), nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
