package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webconv/internal/config"
	"github.com/nao1215/webconv/internal/model"
)

// Factory builds the pipeline of one request.
type Factory func(req model.CrawlRequest) (*Pipeline, error)

// BatchProcessor converts several start URLs concurrently.
// Each request gets a fresh pipeline, so runs share no crawl state.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each request.
	pipelineFactory Factory

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// onDone is called after each run finishes.
	onDone func(run *model.ConversionRun, index int)

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRunCallback registers fn to be called when a run finishes. It is
// called from the run's goroutine and must be safe for concurrent use.
func WithRunCallback(fn func(run *model.ConversionRun, index int)) BatchOption {
	return func(b *BatchProcessor) {
		b.onDone = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch executes one run per request, at most concurrency at a time.
// The returned runs are in request order and include failed runs; requests
// not started before cancellation are returned as cancelled runs.
// The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, requests []model.CrawlRequest) ([]*model.ConversionRun, error) {
	bp.logger.Debug("starting batch processing",
		"total_runs", len(requests),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	runs := make([]*model.ConversionRun, len(requests))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, req := range requests {
		run := model.NewConversionRun(req)
		runs[i] = run

		g.Go(func() error {
			bp.execute(ctx, run, i, len(requests))
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	bp.logger.Debug("batch processing complete",
		"total_runs", len(requests),
		"elapsed", time.Since(startTime),
	)

	return runs, ctx.Err()
}

func (bp *BatchProcessor) execute(ctx context.Context, run *model.ConversionRun, index, total int) {
	defer func() {
		if bp.onDone != nil {
			bp.onDone(run, index)
		}
	}()

	if err := ctx.Err(); err != nil {
		run.Cancelled = true
		run.Err = err
		run.ErrorMessage = err.Error()
		run.FinishedAt = time.Now()
		return
	}
	run.StartedAt = time.Now()

	bp.logger.Info("converting",
		"url", run.Request.StartURL,
		"index", index+1,
		"total", total,
	)

	p, err := bp.pipelineFactory(run.Request)
	if err != nil {
		run.Err = err
		run.ErrorMessage = err.Error()
		run.FinishedAt = time.Now()
		bp.logger.Warn("failed to build pipeline", "url", run.Request.StartURL, "error", err)
		return
	}

	if err := p.Execute(ctx, run); err != nil {
		bp.logger.Warn("run failed",
			"url", run.Request.StartURL,
			"error", err,
		)
		return
	}

	bp.logger.Info("run completed",
		"url", run.Request.StartURL,
		"output", run.OutputDir,
	)
}
