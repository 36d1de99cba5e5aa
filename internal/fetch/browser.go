package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// DefaultSettleDelay is the wait after the page load when none is configured.
const DefaultSettleDelay = 2 * time.Second

// BrowserFetcher renders pages in a headless Chrome session.
// The session is started by the first Fetch and reused until Close.
// BrowserFetcher is safe for sequential use by one run; Fetch calls are
// serialized.
type BrowserFetcher struct {
	mu sync.Mutex

	settleDelay  time.Duration
	timeout      time.Duration
	userAgent    string
	proxyServer  string
	extraHeaders map[string]string
	logger       *slog.Logger

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	closed        bool
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithSettleDelay sets the wait after the body element is ready.
// Negative values are ignored; zero disables the wait.
func WithSettleDelay(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		if d >= 0 {
			b.settleDelay = d
		}
	}
}

// WithBrowserTimeout bounds each Fetch. Zero means no limit.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		b.timeout = d
	}
}

// WithUserAgent overrides the browser's user agent.
func WithUserAgent(ua string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.userAgent = ua
	}
}

// WithProxyServer routes browser traffic through a SOCKS5 proxy ("host:port").
func WithProxyServer(address string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.proxyServer = address
	}
}

// WithExtraHeaders sends headers with every browser request.
func WithExtraHeaders(headers map[string]string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.extraHeaders = headers
	}
}

// WithBrowserLogger sets the logger for the fetcher.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *BrowserFetcher) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBrowserFetcher creates a BrowserFetcher. No browser is started yet.
func NewBrowserFetcher(opts ...BrowserOption) *BrowserFetcher {
	b := &BrowserFetcher{
		settleDelay: DefaultSettleDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// start launches the browser. The caller holds b.mu.
func (b *BrowserFetcher) start() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	if b.proxyServer != "" {
		opts = append(opts, chromedp.ProxyServer("socks5://"+b.proxyServer))
	}

	// The session outlives any single request context, so it hangs off
	// context.Background and is torn down only by Close.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	actions := []chromedp.Action{network.Enable()}
	if len(b.extraHeaders) > 0 {
		headers := make(network.Headers, len(b.extraHeaders))
		for k, v := range b.extraHeaders {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("failed to start headless browser: %w", err)
	}

	b.browserCtx = browserCtx
	b.cancelAlloc = cancelAlloc
	b.cancelBrowser = cancelBrowser
	b.logger.Debug("headless browser started")
	return nil
}

// Fetch navigates to pageURL, waits for the body and the settle delay, and
// returns the serialized document element.
func (b *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", ErrBrowserClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.browserCtx == nil {
		if err := b.start(); err != nil {
			return "", err
		}
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if b.timeout > 0 {
		runCtx, cancel = context.WithTimeout(b.browserCtx, b.timeout)
	} else {
		runCtx, cancel = context.WithCancel(b.browserCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var markup string
	tasks := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if b.settleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(b.settleDelay))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &markup, chromedp.ByQuery))

	if err := chromedp.Run(runCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}

	b.logger.Debug("rendered page", "url", pageURL, "bytes", len(markup))
	return markup, nil
}

// Close shuts the browser down. It is safe to call more than once and on
// a fetcher whose browser was never started.
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.cancelBrowser != nil {
		b.cancelBrowser()
		b.cancelAlloc()
		b.logger.Debug("headless browser stopped")
	}
	b.browserCtx = nil
	return nil
}
