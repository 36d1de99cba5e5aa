package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/webconv/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "webconv"

	// DefaultCrawlDepth only converts the start page.
	DefaultCrawlDepth = 0

	// DefaultFormat is the output format used when none is given.
	DefaultFormat = model.FormatMarkdown

	// DefaultSettleDelay is how long the headless browser waits after the
	// page load so client-side rendering can finish.
	DefaultSettleDelay = 2 * time.Second

	// DefaultTimeout bounds a single page fetch. Zero disables the limit.
	DefaultTimeout = 60 * time.Second

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultUserAgent identifies webconv in HTTP requests.
	DefaultUserAgent = "webconv/1.0 (+https://github.com/nao1215/webconv)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultConcurrency is the number of start URLs converted at once.
	DefaultConcurrency = 2

	// OutputRootDir and OutputWebContentDir name the folders created under
	// the user's documents directory for derived output directories.
	OutputRootDir       = "Converter"
	OutputWebContentDir = "WebContent"
)

// Config holds all options of a webconv invocation.
// It is populated from CLI flags and the optional configuration file and
// passed to the pipeline by value of its fields, never through globals.
type Config struct {
	// Targets are the start URLs. Each one becomes its own conversion run.
	Targets []string

	// CrawlDepth is the number of link hops followed beyond each start page.
	CrawlDepth int

	// Format selects Markdown or cleaned HTML output.
	Format model.Format

	// Combine writes all pages of a run into a single file.
	Combine bool

	// RenderJavaScript loads pages in headless Chrome instead of a plain GET.
	RenderJavaScript bool

	// CustomOutputDir reports whether OutputDir was explicitly requested.
	CustomOutputDir bool

	// OutputDir is the user supplied output directory.
	OutputDir string

	// SettleDelay is the wait after a browser page load.
	SettleDelay time.Duration

	// Timeout bounds each page fetch. Zero means no limit.
	Timeout time.Duration

	// UserAgent is sent with every HTTP request and by the headless browser.
	UserAgent string

	// MaxBodySize limits bytes read per HTTP response. Zero uses the default.
	MaxBodySize int64

	// MaxPages caps the pages visited per run. Zero means unlimited.
	MaxPages int

	// CrawlDelay is the minimum spacing between fetches. Zero disables it.
	CrawlDelay time.Duration

	// RespectRobots skips URLs disallowed by the site's robots.txt.
	RespectRobots bool

	// Readability reduces pages to their main content before conversion.
	Readability bool

	// AbsoluteLinks rewrites relative links and images in Markdown output.
	// HTML output always uses absolute links.
	AbsoluteLinks bool

	// ProxyAddress routes HTTP fetches through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and fetches through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Concurrency is the number of start URLs processed at the same time.
	Concurrency int

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON writes logs as JSON instead of styled text.
	LogJSON bool

	// JSONReport prints the run summary as JSON.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is the explicitly requested configuration file.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings from the configuration file.
	SiteConfigs *File

	// SaveHistory records finished runs in the history database.
	SaveHistory bool

	// HistoryDir is the directory of the history database.
	HistoryDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		CrawlDepth:        DefaultCrawlDepth,
		Format:            DefaultFormat,
		SettleDelay:       DefaultSettleDelay,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Concurrency:       DefaultConcurrency,
		SaveHistory:       true,
		HistoryDir:        XDGDataDir(),
		SiteConfigs:       NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for webconv.
// On Linux: ~/.local/share/webconv
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webconv.
// On Linux: ~/.config/webconv
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DocumentsDir returns the user's documents directory as reported by the
// XDG user directories (xdg-user-dirs on Linux, ~/Documents elsewhere).
func DocumentsDir() string {
	return xdg.UserDirs.Documents
}

// DefaultOutputBase returns the directory under which derived output
// directories are created: {Documents}/Converter/WebContent.
func DefaultOutputBase() string {
	return filepath.Join(DocumentsDir(), OutputRootDir, OutputWebContentDir)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.CrawlDepth < 0 || c.CrawlDepth > model.MaxCrawlDepth {
		return ErrInvalidDepth
	}

	if c.Format != model.FormatMarkdown && c.Format != model.FormatHTML {
		return model.ErrInvalidFormat
	}

	if c.CustomOutputDir && strings.TrimSpace(c.OutputDir) == "" {
		return ErrEmptyOutputDir
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingTransports
	}

	return nil
}

// SiteConfigFor returns the merged site configuration for a start URL.
func (c *Config) SiteConfigFor(startURL string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	u, err := url.Parse(startURL)
	if err != nil {
		return c.SiteConfigs.Defaults
	}
	return c.SiteConfigs.GetSiteConfig(u.Host)
}

// Request builds the CrawlRequest for one start URL, applying site overrides
// for depth and JavaScript rendering.
func (c *Config) Request(startURL string) (model.CrawlRequest, error) {
	site := c.SiteConfigFor(startURL)

	req := model.CrawlRequest{
		StartURL:         startURL,
		MaxDepth:         c.CrawlDepth,
		Format:           c.Format,
		Combine:          c.Combine,
		RenderJavaScript: c.RenderJavaScript,
	}
	if c.CustomOutputDir {
		req.OutputDir = c.OutputDir
		// Runs of several start URLs share the custom directory; give each
		// host its own subdirectory so per-page files cannot collide.
		if len(c.Targets) > 1 {
			if u, err := url.Parse(startURL); err == nil && u.Host != "" {
				req.OutputDir = filepath.Join(c.OutputDir, HostDirName(u.Host))
			}
		}
	}
	if site.Depth != nil {
		req.MaxDepth = *site.Depth
	}
	if site.RenderJavaScript != nil {
		req.RenderJavaScript = *site.RenderJavaScript
	}

	if err := req.Validate(); err != nil {
		return model.CrawlRequest{}, fmt.Errorf("invalid request for %s: %w", startURL, err)
	}
	return req, nil
}

// HostDirName turns a host into a directory name by replacing dots and the
// port separator with underscores ("docs.example.com:8080" becomes
// "docs_example_com_8080").
func HostDirName(host string) string {
	return strings.NewReplacer(".", "_", ":", "_").Replace(host)
}
