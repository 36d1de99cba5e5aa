package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nao1215/webconv/internal/config"
	"github.com/nao1215/webconv/internal/database"
	"github.com/nao1215/webconv/internal/log"
	"github.com/nao1215/webconv/internal/model"
	"github.com/nao1215/webconv/internal/pipeline"
	"github.com/nao1215/webconv/internal/report"
	"github.com/nao1215/webconv/internal/transport"
)

// errNothingConverted is returned when a run finished without converting
// a single page, for example because the start URL could not be fetched.
var errNothingConverted = errors.New("no page could be converted")

// NewConvertCmd creates the convert command.
func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [url...]",
		Short: "Convert web pages to Markdown or HTML",
		Long: `Convert fetches each start URL, follows links on the same host up to the
given depth and converts every visited page to Markdown or cleaned HTML.

Depth 0 converts only the start page. Each additional level follows the
links of the pages converted in the previous level, up to a depth of 5.
A URL is fetched at most once per run.

Output is written to {Documents}/Converter/WebContent/{host}_{timestamp}
unless --output-dir is given. With --single-file all pages of a run are
combined into website_content.md or website_content.html.

Examples:
  # Convert a single page to Markdown
  webconv convert https://example.com/

  # Convert a documentation site two levels deep into one HTML file
  webconv convert -d 2 -f html --single-file https://docs.example.com/

  # Render JavaScript with headless Chrome and write to ./out
  webconv convert --js -o ./out https://app.example.com/

  # Fetch through a SOCKS5 proxy and print a JSON report
  webconv convert --proxy 127.0.0.1:1080 --json https://example.com/

Configuration file (.webconv) example:
  defaults:
    headers:
      Accept-Language: "en"
  sites:
    docs.example.com:
      depth: 2
      ignorePatterns:
        - "/blog/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runConvertCmd,
	}

	// Crawl flags
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Number of link levels to follow beyond the start page (0-5)")
	cmd.Flags().StringP("format", "f", config.DefaultFormat.String(),
		"Output format: markdown or html")
	cmd.Flags().Bool("js", false,
		"Render pages with headless Chrome before converting")
	cmd.Flags().BoolP("single-file", "s", false,
		"Combine all pages of a run into a single file")
	cmd.Flags().StringP("output-dir", "o", "",
		"Write files to this directory instead of the derived default")
	cmd.Flags().Duration("settle", config.DefaultSettleDelay,
		"Wait after a browser page load before reading the page")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch (0 disables)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("robots", false,
		"Skip URLs disallowed by robots.txt")
	cmd.Flags().Duration("delay", 0,
		"Minimum delay between page fetches")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages per run (0 means unlimited)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().Bool("readability", false,
		"Reduce pages to their main article content")
	cmd.Flags().Bool("absolute-links", false,
		"Rewrite relative links and images to absolute URLs in Markdown output")

	// Transport flags
	cmd.Flags().String("proxy", "",
		"Fetch through a SOCKS5 proxy (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and fetch through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Batch flags
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of start URLs converted at the same time")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webconv in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report-file", "r", "",
		"Write the report to the specified file instead of stdout")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("history-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runConvertCmd executes the convert command.
func runConvertCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), log.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runConvert(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getBoolFlag retrieves a flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.CrawlDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}

	formatName, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	if cfg.Format, err = model.ParseFormat(formatName); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if cfg.RenderJavaScript, err = flags.GetBool("js"); err != nil {
		return nil, err
	}
	if cfg.Combine, err = flags.GetBool("single-file"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
		return nil, err
	}
	cfg.CustomOutputDir = flags.Changed("output-dir")

	if cfg.SettleDelay, err = flags.GetDuration("settle"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = flags.GetBool("robots"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.Readability, err = flags.GetBool("readability"); err != nil {
		return nil, err
	}
	if cfg.AbsoluteLinks, err = flags.GetBool("absolute-links"); err != nil {
		return nil, err
	}

	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	if cfg.HistoryDir, err = flags.GetString("history-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.SiteConfigs, _, err = config.Load(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Targets = make([]string, 0, len(args))
	for _, arg := range args {
		cfg.Targets = append(cfg.Targets, model.NormalizeStartURL(arg))
	}

	return cfg, nil
}

// runConvert executes one conversion run per target and prints the report.
func runConvert(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer, extra ...pipeline.DefaultPipelineOption) error {
	requests := make([]model.CrawlRequest, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		req, err := cfg.Request(target)
		if err != nil {
			return err
		}
		requests = append(requests, req)
	}

	logger.Info("starting conversion",
		"targets", cfg.Targets,
		"depth", cfg.CrawlDepth,
		"format", cfg.Format.String(),
		"javascript", cfg.RenderJavaScript,
		"concurrency", cfg.Concurrency,
	)

	proxyAddress, stopTransport, err := prepareTransport(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer stopTransport()

	db := openHistory(cfg, logger)
	if db != nil {
		defer db.Close()
	}

	prog := newProgress(stderr, !cfg.Verbose && !cfg.LogJSON)
	prog.start(len(requests))
	defer prog.stop()

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineProxy(proxyAddress),
		pipeline.WithPipelineHistory(db),
		pipeline.WithPipelineProgress(prog.page),
	}
	configOpts = append(configOpts, extra...)

	bp := pipeline.NewBatchProcessor(
		func(req model.CrawlRequest) (*pipeline.Pipeline, error) {
			return pipeline.DefaultPipeline(cfg, req, []pipeline.Option{
				pipeline.WithLogger(logger),
				pipeline.WithContinueOnError(false),
			}, configOpts...)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
		pipeline.WithRunCallback(func(run *model.ConversionRun, _ int) {
			prog.runDone(run)
		}),
	)

	runs, batchErr := bp.ProcessBatch(ctx, requests)
	prog.stop()

	if err := outputReport(cfg, runs, stdout); err != nil {
		logger.Error("report failed", "error", err)
	}

	if batchErr != nil {
		return fmt.Errorf("conversion interrupted: %w", batchErr)
	}
	return runsError(runs)
}

// runsError summarizes failed runs into a single error.
func runsError(runs []*model.ConversionRun) error {
	failed := 0
	var last error
	for _, run := range runs {
		switch {
		case run.Status() != model.RunStatusComplete:
			failed++
			last = fmt.Errorf("%s: %s", run.Request.StartURL, run.ErrorText())
		case run.SucceededCount() == 0:
			failed++
			last = fmt.Errorf("%s: %w", run.Request.StartURL, errNothingConverted)
		}
	}
	switch {
	case failed == 0:
		return nil
	case len(runs) == 1:
		return last
	default:
		return fmt.Errorf("%d of %d conversion runs failed (last: %w)", failed, len(runs), last)
	}
}

// prepareTransport verifies the SOCKS5 proxy or starts the embedded Tor
// daemon. It returns the proxy address for the pipelines and a cleanup
// function that is always safe to call.
func prepareTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (string, func(), error) {
	noop := func() {}

	if cfg.UseTor {
		return startEmbeddedTor(ctx, cfg, logger, stderr)
	}

	if cfg.ProxyAddress == "" {
		return "", noop, nil
	}

	address, err := transport.ParseProxyAddress(cfg.ProxyAddress)
	if err != nil {
		return "", noop, err
	}
	if status := transport.CheckProxy(ctx, address); status != transport.ProxyStatusOK {
		return "", noop, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
			status.Err(), address)
	}
	logger.Info("proxy connection verified", "address", address)
	return address, noop, nil
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (string, func(), error) {
	fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
	fmt.Fprintf(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := transport.NewEmbeddedTor(
		transport.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embedded.Start(ctx); err != nil {
		return "", func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	stop := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := embedded.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	opts, err := embedded.Options(transport.Options{})
	if err != nil {
		stop()
		return "", func() {}, err
	}

	if status := transport.CheckProxy(ctx, opts.ProxyAddress); status != transport.ProxyStatusOK {
		stop()
		return "", func() {}, fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
	}

	logger.Info("embedded Tor daemon started", "socksAddr", opts.ProxyAddress)
	return opts.ProxyAddress, stop, nil
}

// openHistory opens the history database. A database that cannot be
// opened disables history for this invocation instead of failing it.
func openHistory(cfg *config.Config, logger *slog.Logger) *database.HistoryDB {
	if !cfg.SaveHistory {
		return nil
	}
	db, err := database.Open(cfg.HistoryDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("history disabled", "dir", cfg.HistoryDir, "error", err)
		return nil
	}
	logger.Debug("history database opened", "path", db.Path())
	return db
}

// outputReport writes the report of the finished runs in the requested
// format to the report file or to stdout.
func outputReport(cfg *config.Config, runs []*model.ConversionRun, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	format := report.FormatText
	switch {
	case cfg.JSONReport:
		format = report.FormatJSON
	case cfg.MarkdownReport:
		format = report.FormatMarkdown
	}

	writer, err := report.NewWriter(output, format, report.Settings{
		Verbose: cfg.Verbose,
		Version: getVersion(),
	})
	if err != nil {
		return err
	}
	_, err = report.WriteRuns(writer, runs)
	return err
}

// progress shows a spinner with the number of converted pages on a terminal.
type progress struct {
	spinner *spinner.Spinner
	pages   atomic.Int64
	runs    atomic.Int64
	total   int
}

// newProgress creates a progress indicator writing to w. The spinner is only
// shown when enabled is true and w is a terminal.
func newProgress(w io.Writer, enabled bool) *progress {
	p := &progress{}
	f, ok := w.(*os.File)
	if !enabled || !ok || !isatty.IsTerminal(f.Fd()) {
		return p
	}
	p.spinner = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(f))
	return p
}

func (p *progress) start(total int) {
	p.total = total
	if p.spinner == nil {
		return
	}
	p.update()
	p.spinner.Start()
}

func (p *progress) page(page *model.PageResult) {
	if !page.Failed() {
		p.pages.Add(1)
	}
	p.update()
}

func (p *progress) runDone(_ *model.ConversionRun) {
	p.runs.Add(1)
	p.update()
}

func (p *progress) update() {
	if p.spinner == nil {
		return
	}
	p.spinner.Lock()
	p.spinner.Suffix = fmt.Sprintf(" converting... %d pages, %d/%d runs done",
		p.pages.Load(), p.runs.Load(), p.total)
	p.spinner.Unlock()
}

func (p *progress) stop() {
	if p.spinner == nil {
		return
	}
	p.spinner.Stop()
}
