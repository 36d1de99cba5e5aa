package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 handshake performed by CheckProxy.
const checkProxyTimeout = 2 * time.Second

// maxRedirects is the number of redirects followed before the last
// response is returned as-is.
const maxRedirects = 10

// SOCKS5 protocol constants used by CheckProxy.
const (
	socks5Version  = 0x05
	socks5AuthNone = 0x00
)

// Options configures the HTTP client built by NewHTTPClient.
type Options struct {
	// ProxyAddress routes connections through a SOCKS5 proxy ("host:port").
	// An optional "socks5://" or "socks5h://" prefix is accepted.
	ProxyAddress string

	// Timeout bounds a whole request including reading the body.
	// Zero means no timeout.
	Timeout time.Duration

	// UserAgent is set on every request that does not carry one.
	UserAgent string

	// Cookie is a raw cookie string ("name=value; other=value").
	Cookie string

	// Headers are added to every request.
	Headers map[string]string
}

// NewHTTPClient returns an HTTP client for the given options.
// It does not contact the proxy; call CheckProxy to verify it is reachable.
func NewHTTPClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.ProxyAddress != "" {
		address, err := ParseProxyAddress(opts.ProxyAddress)
		if err != nil {
			return nil, err
		}
		dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		base.Proxy = nil
		base.DialContext = dialContext(dialer)
	}

	// cookiejar.New only fails with invalid options
	jar, _ := cookiejar.New(nil) //nolint:errcheck

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      base,
			userAgent: opts.UserAgent,
			cookie:    opts.Cookie,
			headers:   opts.Headers,
		},
		Timeout: opts.Timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer of x/net implements proxy.ContextDialer, so
// cancellation reaches the dial in the common case.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()
		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// ParseProxyAddress strips an optional socks5 scheme and validates that the
// remainder is "host:port" with a port in [1, 65535].
func ParseProxyAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	for _, prefix := range []string{"socks5://", "socks5h://"} {
		address = strings.TrimPrefix(address, prefix)
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}
	return address, nil
}

// CheckProxy verifies that a SOCKS5 proxy is listening at address and
// accepts connections without authentication.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	address, err := ParseProxyAddress(address)
	if err != nil {
		return ProxyStatusCannotConnect
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Client greeting: version, one method, "no authentication".
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	// Server choice: version, selected method.
	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if resp[0] != socks5Version || resp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// headerInjectingTransport adds the user agent, cookie and custom headers
// to every request before handing it to base.
type headerInjectingTransport struct {
	base      http.RoundTripper
	userAgent string
	cookie    string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.userAgent != "" && clone.Header.Get("User-Agent") == "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
