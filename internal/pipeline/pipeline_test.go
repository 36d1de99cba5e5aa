package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/webconv/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, run *model.ConversionRun) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, run *model.ConversionRun) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, run)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestRun() *model.ConversionRun {
	return model.NewConversionRun(model.CrawlRequest{
		StartURL: "https://example.com/",
		Format:   model.FormatMarkdown,
	})
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "one"})
	p.AddSteps(&mockStep{name: "two"}, &mockStep{name: "three"})
	p.AddFinalStep(&mockStep{name: "final"})

	want := []string{"one", "two", "three", "final"}
	if got := p.StepNames(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if p.StepCount() != 4 {
		t.Errorf("expected 4 steps, got %d", p.StepCount())
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		record := func(name string) *mockStep {
			return &mockStep{name: name, doFunc: func(context.Context, *model.ConversionRun) error {
				order = append(order, name)
				return nil
			}}
		}

		p := New()
		p.AddSteps(record("a"), record("b"))
		p.AddFinalStep(record("c"))

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(order, []string{"a", "b", "c"}) {
			t.Errorf("unexpected order %v", order)
		}
		if !slices.Equal(run.PerformedSteps, []string{"a", "b", "c"}) {
			t.Errorf("unexpected performed steps %v", run.PerformedSteps)
		}
		if run.FinishedAt.IsZero() {
			t.Error("expected FinishedAt to be set")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		errStep := errors.New("step failed")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.ConversionRun) error {
			return errStep
		}}
		after := &mockStep{name: "after"}
		final := &mockStep{name: "final"}

		p := New()
		p.AddSteps(failing, after)
		p.AddFinalStep(final)

		run := newTestRun()
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, errStep) {
			t.Errorf("expected step error, got %v", err)
		}
		if after.callCount != 0 {
			t.Error("expected later step to be skipped")
		}
		if final.callCount != 1 {
			t.Error("expected final step to run after a failure")
		}
		if !errors.Is(run.Err, errStep) || run.ErrorMessage != "step failed" {
			t.Errorf("expected error recorded on run, got %v %q", run.Err, run.ErrorMessage)
		}
		if run.Status() != model.RunStatusError {
			t.Errorf("expected error status, got %q", run.Status())
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		errFirst := errors.New("first")
		p := New(WithContinueOnError(true))
		after := &mockStep{name: "after"}
		p.AddSteps(
			&mockStep{name: "first", doFunc: func(context.Context, *model.ConversionRun) error { return errFirst }},
			&mockStep{name: "second", doFunc: func(context.Context, *model.ConversionRun) error { return errors.New("second") }},
			after,
		)

		run := newTestRun()
		err := p.Execute(context.Background(), run)
		if !errors.Is(err, errFirst) {
			t.Errorf("expected first error, got %v", err)
		}
		if after.callCount != 1 {
			t.Error("expected remaining steps to run")
		}
		if run.ErrorMessage != "first" {
			t.Errorf("expected first error recorded, got %q", run.ErrorMessage)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "step"}
		var finalCtxErr error
		final := &mockStep{name: "final", doFunc: func(ctx context.Context, _ *model.ConversionRun) error {
			finalCtxErr = ctx.Err()
			return nil
		}}
		p := New()
		p.AddStep(step)
		p.AddFinalStep(final)

		run := newTestRun()
		err := p.Execute(ctx, run)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("expected step not to run")
		}
		if !run.Cancelled {
			t.Error("expected run to be marked cancelled")
		}
		if final.callCount != 1 || finalCtxErr != nil {
			t.Errorf("expected final step with live context, got calls=%d err=%v", final.callCount, finalCtxErr)
		}
	})

	t.Run("final step errors are not recorded", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddFinalStep(&mockStep{name: "final", doFunc: func(context.Context, *model.ConversionRun) error {
			return errors.New("database locked")
		}})

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if run.Err != nil || len(run.PerformedSteps) != 0 {
			t.Errorf("expected clean run, got err=%v steps=%v", run.Err, run.PerformedSteps)
		}
	})
}
