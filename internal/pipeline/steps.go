package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/webconv/internal/crawler"
	"github.com/nao1215/webconv/internal/database"
	"github.com/nao1215/webconv/internal/fetch"
	"github.com/nao1215/webconv/internal/model"
	"github.com/nao1215/webconv/internal/output"
)

// PrepareOutputStep resolves the run's output directory and creates it.
type PrepareOutputStep struct {
	// base is the parent of derived output directories.
	base string
}

// NewPrepareOutputStep creates the step. Runs without an explicit output
// directory get {base}/{host}_{timestamp}.
func NewPrepareOutputStep(base string) *PrepareOutputStep {
	return &PrepareOutputStep{base: base}
}

// Name returns the step name.
func (s *PrepareOutputStep) Name() string {
	return "prepare_output"
}

// Do resolves the directory once, using the run's start time.
func (s *PrepareOutputStep) Do(_ context.Context, run *model.ConversionRun) error {
	dir, err := output.ResolveDir(run.Request, s.base, run.StartedAt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	run.OutputDir = dir
	return nil
}

// FetcherFactory creates the fetcher for one run.
type FetcherFactory func(req model.CrawlRequest) (fetch.Fetcher, error)

// CrawlStep crawls the start URL and stores every converted page.
// Per-page files are written as pages arrive; in combined mode pages are
// collected into the run's document.
type CrawlStep struct {
	newFetcher FetcherFactory
	converter  crawler.Converter

	maxPages       int
	delay          time.Duration
	robots         *crawler.RobotsChecker
	ignorePatterns []string
	followPatterns []string

	// progress is called for every page handed to the sink.
	progress func(page *model.PageResult)

	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the maximum pages to fetch. Zero means unlimited.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlDelay sets the minimum delay between fetches.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.delay = d
	}
}

// WithCrawlRobots enables robots.txt checks with the given checker.
func WithCrawlRobots(checker *crawler.RobotsChecker) CrawlStepOption {
	return func(s *CrawlStep) {
		s.robots = checker
	}
}

// WithCrawlIgnorePatterns sets URL path patterns to skip during crawling.
func WithCrawlIgnorePatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.ignorePatterns = patterns
	}
}

// WithCrawlFollowPatterns sets URL path patterns to follow during crawling.
func WithCrawlFollowPatterns(patterns []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.followPatterns = patterns
	}
}

// WithCrawlProgress registers a callback invoked for each stored page.
func WithCrawlProgress(fn func(page *model.PageResult)) CrawlStepOption {
	return func(s *CrawlStep) {
		s.progress = fn
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a crawl step that obtains its fetcher from
// newFetcher and converts pages with converter.
func NewCrawlStep(newFetcher FetcherFactory, converter crawler.Converter, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		newFetcher: newFetcher,
		converter:  converter,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl. The fetcher is closed on every path.
func (s *CrawlStep) Do(ctx context.Context, run *model.ConversionRun) error {
	fetcher, err := s.newFetcher(run.Request)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer func() {
		if closeErr := fetcher.Close(); closeErr != nil {
			s.logger.Warn("failed to close fetcher", "error", closeErr)
		}
	}()

	var writer *output.PageWriter
	var sink crawler.Sink
	if run.Request.Combine {
		sink = output.NewDocumentCollector(run.Document)
	} else {
		writer = output.NewPageWriter(run.OutputDir, run.Request.Format)
		sink = writer
	}
	if s.progress != nil {
		inner := sink
		sink = crawler.SinkFunc(func(page *model.PageResult) error {
			err := inner.Accept(page)
			s.progress(page)
			return err
		})
	}

	spiderOpts := []crawler.SpiderOption{
		crawler.WithLogger(s.logger),
		crawler.WithMaxPages(s.maxPages),
		crawler.WithDelay(s.delay),
	}
	if s.robots != nil {
		spiderOpts = append(spiderOpts, crawler.WithRobots(s.robots))
	}
	if len(s.ignorePatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithIgnorePatterns(s.ignorePatterns))
	}
	if len(s.followPatterns) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithFollowPatterns(s.followPatterns))
	}

	spider := crawler.NewSpider(fetcher, s.converter, spiderOpts...)
	pages, crawlErr := spider.Crawl(ctx, run.Request.StartURL, run.Request.MaxDepth, run.Request.Format, sink)

	for _, page := range pages {
		run.AddPage(page)
	}
	if writer != nil {
		for _, path := range writer.Files() {
			run.AddFile(path)
		}
	}

	if crawlErr != nil {
		if errors.Is(crawlErr, context.Canceled) || errors.Is(crawlErr, context.DeadlineExceeded) {
			run.Cancelled = true
		}
		return crawlErr
	}

	s.logger.Info("crawl completed",
		"url", run.Request.StartURL,
		"pages_converted", run.SucceededCount(),
		"pages_failed", run.FailedCount(),
	)
	return nil
}

// WriteCombinedStep writes the combined document of a single-file run.
type WriteCombinedStep struct{}

// NewWriteCombinedStep creates the step.
func NewWriteCombinedStep() *WriteCombinedStep {
	return &WriteCombinedStep{}
}

// Name returns the step name.
func (s *WriteCombinedStep) Name() string {
	return "write_combined"
}

// Do writes website_content.{md,html}. Runs that do not combine pages are
// left untouched.
func (s *WriteCombinedStep) Do(_ context.Context, run *model.ConversionRun) error {
	if !run.Request.Combine || run.Document == nil {
		return nil
	}
	path, err := output.WriteCombined(run.OutputDir, run.Request.StartURL, run.Request.Format, run.Document)
	if err != nil {
		return err
	}
	run.AddFile(path)
	return nil
}

// RecordHistoryStep saves the run in the history database.
type RecordHistoryStep struct {
	db *database.HistoryDB
}

// NewRecordHistoryStep creates the step.
func NewRecordHistoryStep(db *database.HistoryDB) *RecordHistoryStep {
	return &RecordHistoryStep{db: db}
}

// Name returns the step name.
func (s *RecordHistoryStep) Name() string {
	return "record_history"
}

// Do stores the run and its pages.
func (s *RecordHistoryStep) Do(ctx context.Context, run *model.ConversionRun) error {
	if _, err := s.db.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run history: %w", err)
	}
	return nil
}
