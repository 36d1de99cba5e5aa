package pipeline

import (
	"fmt"

	"github.com/nao1215/webconv/internal/config"
	"github.com/nao1215/webconv/internal/convert"
	"github.com/nao1215/webconv/internal/crawler"
	"github.com/nao1215/webconv/internal/database"
	"github.com/nao1215/webconv/internal/fetch"
	"github.com/nao1215/webconv/internal/model"
	"github.com/nao1215/webconv/internal/transport"
)

// DefaultPipelineConfig holds the resources DefaultPipeline wires into the
// steps beyond what the Config describes.
type DefaultPipelineConfig struct {
	// ProxyAddress replaces Config.ProxyAddress when set, for example with
	// the SOCKS address of an embedded Tor daemon.
	ProxyAddress string

	// OutputBase is the parent of derived output directories.
	OutputBase string

	// History records finished runs. Nil disables the record_history step.
	History *database.HistoryDB

	// Progress is called for each stored page.
	Progress func(page *model.PageResult)

	// NewFetcher replaces fetch.New.
	NewFetcher func(opts fetch.Options) (fetch.Fetcher, error)
}

// DefaultPipelineOption configures DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineProxy routes fetches through the given SOCKS5 address.
func WithPipelineProxy(address string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ProxyAddress = address
	}
}

// WithPipelineOutputBase sets the parent of derived output directories.
func WithPipelineOutputBase(dir string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OutputBase = dir
	}
}

// WithPipelineHistory records runs in db.
func WithPipelineHistory(db *database.HistoryDB) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.History = db
	}
}

// WithPipelineProgress registers a per-page progress callback.
func WithPipelineProgress(fn func(page *model.PageResult)) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Progress = fn
	}
}

// WithPipelineFetcherFactory replaces the fetcher constructor.
func WithPipelineFetcherFactory(fn func(opts fetch.Options) (fetch.Fetcher, error)) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.NewFetcher = fn
	}
}

// TransportOptions returns the HTTP transport settings for a start URL:
// the global timeout and user agent plus the site's cookie and headers.
func TransportOptions(cfg *config.Config, startURL, proxyAddress string) transport.Options {
	site := cfg.SiteConfigFor(startURL)
	if proxyAddress == "" {
		proxyAddress = cfg.ProxyAddress
	}
	return transport.Options{
		ProxyAddress: proxyAddress,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		Cookie:       site.Cookie,
		Headers:      site.Headers,
	}
}

// DefaultPipeline creates the standard pipeline for one request:
// prepare_output, crawl and write_combined, followed by record_history
// when a history database is configured.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineHistory, etc).
func DefaultPipeline(cfg *config.Config, req model.CrawlRequest, pipelineOpts []Option, configOpts ...DefaultPipelineOption) (*Pipeline, error) {
	p := New(pipelineOpts...)

	pc := &DefaultPipelineConfig{
		OutputBase: config.DefaultOutputBase(),
		NewFetcher: fetch.New,
	}
	for _, opt := range configOpts {
		opt(pc)
	}

	site := cfg.SiteConfigFor(req.StartURL)
	transportOpts := TransportOptions(cfg, req.StartURL, pc.ProxyAddress)

	newFetcher := func(r model.CrawlRequest) (fetch.Fetcher, error) {
		return pc.NewFetcher(fetch.Options{
			RenderJavaScript: r.RenderJavaScript,
			Transport:        transportOpts,
			SettleDelay:      cfg.SettleDelay,
			Timeout:          cfg.Timeout,
			MaxBodySize:      cfg.MaxBodySize,
			Logger:           p.logger,
		})
	}

	converter := convert.NewConverter(
		convert.WithReadability(cfg.Readability),
		convert.WithAbsoluteLinks(cfg.AbsoluteLinks),
		convert.WithLogger(p.logger),
	)

	crawlOpts := []CrawlStepOption{
		WithCrawlLogger(p.logger),
		WithCrawlMaxPages(cfg.MaxPages),
		WithCrawlDelay(cfg.CrawlDelay),
	}
	if cfg.RespectRobots {
		client, err := transport.NewHTTPClient(transportOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create robots.txt client: %w", err)
		}
		crawlOpts = append(crawlOpts, WithCrawlRobots(crawler.NewRobotsChecker(client, cfg.UserAgent, p.logger)))
	}
	if len(site.IgnorePatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlIgnorePatterns(site.IgnorePatterns))
	}
	if len(site.FollowPatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlFollowPatterns(site.FollowPatterns))
	}
	if pc.Progress != nil {
		crawlOpts = append(crawlOpts, WithCrawlProgress(pc.Progress))
	}

	p.AddSteps(
		NewPrepareOutputStep(pc.OutputBase),
		NewCrawlStep(newFetcher, converter, crawlOpts...),
		NewWriteCombinedStep(),
	)
	if pc.History != nil {
		p.AddFinalStep(NewRecordHistoryStep(pc.History))
	}

	return p, nil
}
