package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/webconv/internal/model"
)

// Step is one stage of a conversion run. Each step sees the run as the
// previous steps left it.
type Step interface {
	// Do performs the step. A returned error fails the whole run;
	// per-page failures are recorded on the pages instead.
	Do(ctx context.Context, run *model.ConversionRun) error

	// Name identifies the step in logs and in run.PerformedSteps.
	Name() string
}

// Pipeline runs the steps of one conversion run in order.
type Pipeline struct {
	steps []Step

	// finalSteps run after steps, whatever their outcome.
	finalSteps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after a failure.
	continueOnError bool

	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing after a failed step. The first
// error is still recorded on the run and returned.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that runs after the regular steps even when
// one of them failed or the context was cancelled. It receives a context
// that is never cancelled. Its errors are logged, not recorded on the run.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs the steps in order, then the final steps.
// ctx is checked before every step; once it is done the run is marked
// cancelled and ctx.Err() is returned. The first step error is recorded
// on the run and returned.
func (p *Pipeline) Execute(ctx context.Context, run *model.ConversionRun) error {
	err := p.executeSteps(ctx, run)
	run.FinishedAt = p.now()

	final := context.WithoutCancel(ctx)
	for _, step := range p.finalSteps {
		if stepErr := step.Do(final, run); stepErr != nil {
			p.logger.Warn("final step failed",
				"step", step.Name(),
				"url", run.Request.StartURL,
				"error", stepErr,
			)
			continue
		}
		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return err
}

func (p *Pipeline) executeSteps(ctx context.Context, run *model.ConversionRun) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("run cancelled",
				"before_step", step.Name(),
				"url", run.Request.StartURL,
				"reason", err,
			)
			run.Cancelled = true
			p.recordError(run, err)
			return err
		}

		started := p.now()
		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("run step failed",
				"step", step.Name(),
				"url", run.Request.StartURL,
				"error", err,
			)
			p.recordError(run, err)

			if !p.continueOnError {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		} else {
			p.logger.Debug("run step done",
				"step", step.Name(),
				"url", run.Request.StartURL,
				"elapsed", p.now().Sub(started),
			)
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return firstErr
}

// recordError stores err on the run unless an earlier error is present.
func (p *Pipeline) recordError(run *model.ConversionRun, err error) {
	if run.Err != nil {
		return
	}
	run.Err = err
	run.ErrorMessage = err.Error()
}

// StepCount returns the number of regular and final steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames lists the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range slices.Concat(p.steps, p.finalSteps) {
		names = append(names, step.Name())
	}
	return names
}
