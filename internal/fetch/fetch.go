package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/webconv/internal/transport"
)

// Fetcher retrieves the markup of a page.
type Fetcher interface {
	// Fetch returns the page markup for url.
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases the resources held by the fetcher.
	Close() error
}

var (
	// ErrBrowserClosed is returned by Fetch after the browser session was closed.
	ErrBrowserClosed = errors.New("browser session is closed")

	// ErrBodyTooLarge is returned when a response exceeds the body size limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

// StatusError reports a response with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// Options selects and configures the Fetcher built by New.
type Options struct {
	// RenderJavaScript selects the headless browser instead of plain HTTP.
	RenderJavaScript bool

	// Transport configures the HTTP client and the browser's proxy and
	// extra headers.
	Transport transport.Options

	// SettleDelay is the browser wait after the page load.
	SettleDelay time.Duration

	// Timeout bounds one browser fetch. HTTP fetches use Transport.Timeout.
	Timeout time.Duration

	// MaxBodySize limits the bytes read per HTTP response.
	MaxBodySize int64

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// New returns the Fetcher described by opts. The browser is not started
// until the first Fetch.
func New(opts Options) (Fetcher, error) {
	if opts.RenderJavaScript {
		proxyServer := ""
		if opts.Transport.ProxyAddress != "" {
			address, err := transport.ParseProxyAddress(opts.Transport.ProxyAddress)
			if err != nil {
				return nil, err
			}
			proxyServer = address
		}
		return NewBrowserFetcher(
			WithSettleDelay(opts.SettleDelay),
			WithBrowserTimeout(opts.Timeout),
			WithUserAgent(opts.Transport.UserAgent),
			WithProxyServer(proxyServer),
			WithExtraHeaders(browserHeaders(opts.Transport)),
			WithBrowserLogger(opts.Logger),
		), nil
	}

	client, err := transport.NewHTTPClient(opts.Transport)
	if err != nil {
		return nil, err
	}
	return NewHTTPFetcher(client, WithMaxBodySize(opts.MaxBodySize), WithLogger(opts.Logger)), nil
}

// browserHeaders merges the configured cookie into the extra headers sent
// by the browser.
func browserHeaders(opts transport.Options) map[string]string {
	if opts.Cookie == "" && len(opts.Headers) == 0 {
		return nil
	}
	headers := make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if opts.Cookie != "" {
		headers["Cookie"] = opts.Cookie
	}
	return headers
}
