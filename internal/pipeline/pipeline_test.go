package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nao1215/sitemapper/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, result *model.CrawlResult) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, result *model.CrawlResult) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, result)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newTestResult() *model.CrawlResult {
	result := model.NewCrawlResult("https://example.com/", time.Now())
	result.Finished = time.Now()
	result.Complete = true
	result.Scores.Record("https://example.com/", 1.0)
	return result
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(nil))
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}
	expected := []string{"first", "second", "third"}
	for i, name := range p.StepNames() {
		if name != expected[i] {
			t.Errorf("step %d: got %q, expected %q", i, name, expected[i])
		}
	}
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		executionOrder := make([]string, 0)
		record := func(name string) func(context.Context, *model.CrawlResult) error {
			return func(_ context.Context, _ *model.CrawlResult) error {
				executionOrder = append(executionOrder, name)
				return nil
			}
		}

		p := New(WithLogger(slog.New(slog.DiscardHandler)))
		p.AddStep(&mockStep{name: "step-1", doFunc: record("step-1")})
		p.AddStep(&mockStep{name: "step-2", doFunc: record("step-2")})

		if err := p.Execute(context.Background(), newTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executionOrder) != 2 || executionOrder[0] != "step-1" || executionOrder[1] != "step-2" {
			t.Errorf("wrong execution order: %v", executionOrder)
		}
		if got := p.Performed(); len(got) != 2 {
			t.Errorf("Performed() = %v, want 2 steps", got)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New(WithLogger(slog.New(slog.DiscardHandler)))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.CrawlResult) error {
				return expectedErr
			},
		})
		p.AddStep(second)

		err := p.Execute(context.Background(), newTestResult())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if len(p.Performed()) != 0 {
			t.Errorf("Performed() = %v, want none", p.Performed())
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("step failed")
		second := &mockStep{name: "should-run"}

		p := New(WithContinueOnError(true), WithLogger(slog.New(slog.DiscardHandler)))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.CrawlResult) error {
				return expectedErr
			},
		})
		p.AddStep(second)

		err := p.Execute(context.Background(), newTestResult())
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected first error to be returned, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
		if got := p.Performed(); len(got) != 1 || got[0] != "should-run" {
			t.Errorf("Performed() = %v", got)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New(WithLogger(slog.New(slog.DiscardHandler)))
		p.AddStep(step)

		if err := p.Execute(ctx, newTestResult()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
	})
}
