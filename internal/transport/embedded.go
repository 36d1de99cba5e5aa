package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/tornago"
)

// defaultTorStartupTimeout is used when no startup timeout is configured.
const defaultTorStartupTimeout = 3 * time.Minute

// torDaemon is the part of *tornago.TorProcess the fetch path needs.
type torDaemon interface {
	SocksAddr() string
	Stop() error
}

// launchFunc starts a Tor daemon that bootstraps within timeout.
type launchFunc func(timeout time.Duration) (torDaemon, error)

// launchTornago starts tor on OS-assigned SOCKS and control ports.
func launchTornago(timeout time.Duration) (torDaemon, error) {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor launch config: %w", err)
	}
	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return nil, err
	}
	return process, nil
}

// EmbeddedTor runs a private Tor daemon for the lifetime of one webconv
// invocation, so pages can be fetched through Tor without a system proxy.
// Bootstrapping takes between several seconds and a few minutes.
type EmbeddedTor struct {
	mu             sync.Mutex
	daemon         torDaemon
	startupTimeout time.Duration
	launch         launchFunc
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
// Non-positive values keep the default.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// withLauncher replaces the tornago launcher.
func withLauncher(fn launchFunc) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.launch = fn
	}
}

// NewEmbeddedTor creates an embedded Tor manager. Nothing is started until
// Start is called.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: defaultTorStartupTimeout,
		launch:         launchTornago,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon and blocks until it is bootstrapped or the
// startup timeout expires. If ctx is cancelled while Tor bootstraps, the
// daemon is stopped again and ctx.Err() is returned.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.daemon != nil {
		return ErrTorAlreadyRunning
	}

	daemon, err := e.launch(e.startupTimeout)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = daemon.Stop() //nolint:errcheck // best effort cleanup
		return err
	}

	e.daemon = daemon
	return nil
}

// Stop shuts the daemon down. Stopping an instance that is not running is
// a no-op.
func (e *EmbeddedTor) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.daemon == nil {
		return nil
	}
	err := e.daemon.Stop()
	e.daemon = nil
	return err
}

// SocksAddr returns the SOCKS5 address of the running daemon, or "".
func (e *EmbeddedTor) SocksAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.daemon == nil {
		return ""
	}
	return e.daemon.SocksAddr()
}

// IsRunning reports whether the daemon is running.
func (e *EmbeddedTor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.daemon != nil
}

// Options returns opts routed through the running daemon.
func (e *EmbeddedTor) Options(opts Options) (Options, error) {
	addr := e.SocksAddr()
	if addr == "" {
		return Options{}, ErrTorNotRunning
	}
	opts.ProxyAddress = addr
	return opts, nil
}
