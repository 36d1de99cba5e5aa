package transport

import "errors"

var (
	// ErrInvalidProxyAddress is returned when a proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrProxyNotSOCKS5 means the proxy answered but did not complete a SOCKS5 greeting.
	ErrProxyNotSOCKS5 = errors.New("proxy does not speak SOCKS5")

	// ErrProxyUnreachable means no TCP connection to the proxy could be made.
	ErrProxyUnreachable = errors.New("proxy unreachable")

	// ErrProxyTimeout means the proxy did not answer the greeting in time.
	ErrProxyTimeout = errors.New("proxy handshake timed out")

	// ErrTorNotRunning is returned when routing through a daemon that is not running.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")

	// ErrTorAlreadyRunning is returned by Start on a running daemon.
	ErrTorAlreadyRunning = errors.New("embedded Tor daemon is already running")
)

// ProxyStatus is the outcome of CheckProxy.
type ProxyStatus int

// Proxy probe outcomes.
const (
	ProxyStatusOK ProxyStatus = iota
	ProxyStatusWrongType
	ProxyStatusCannotConnect
	ProxyStatusTimeout
)

var proxyStatusText = map[ProxyStatus]string{
	ProxyStatusOK:            "OK",
	ProxyStatusWrongType:     "not a SOCKS5 proxy",
	ProxyStatusCannotConnect: "cannot connect",
	ProxyStatusTimeout:       "timeout",
}

var proxyStatusErr = map[ProxyStatus]error{
	ProxyStatusWrongType:     ErrProxyNotSOCKS5,
	ProxyStatusCannotConnect: ErrProxyUnreachable,
	ProxyStatusTimeout:       ErrProxyTimeout,
}

func (s ProxyStatus) String() string {
	if text, ok := proxyStatusText[s]; ok {
		return text
	}
	return "unknown"
}

// Err returns the sentinel error for s, or nil for ProxyStatusOK.
func (s ProxyStatus) Err() error {
	if s == ProxyStatusOK {
		return nil
	}
	if err, ok := proxyStatusErr[s]; ok {
		return err
	}
	return errors.New("unknown proxy status")
}
