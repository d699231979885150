package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/picobot/picobot/internal/directive"
	"github.com/picobot/picobot/internal/logger"
)

// Dispatcher runs the extract-execute-reduce cycle for one model reply.
type Dispatcher struct {
	extractor *directive.Extractor
	registry  *Registry
	timeout   time.Duration
	log       *logger.Logger
	metrics   *Metrics
}

// New creates a Dispatcher. timeout bounds each handler execution; zero
// means no limit.
func New(extractor *directive.Extractor, registry *Registry, timeout time.Duration, log *logger.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		extractor: extractor,
		registry:  registry,
		timeout:   timeout,
		log:       log,
		metrics:   metrics,
	}
}

// Process extracts directives from the raw model text, executes them
// strictly in source order, and reduces the outcomes. It returns the
// residual user-visible text, the per-directive outcomes, and whether any
// outcome requires a follow-up model turn. The residual text is delivered
// to the user regardless of the follow-up decision.
func (d *Dispatcher) Process(ctx context.Context, rawText string, now time.Time) (string, []Outcome, bool) {
	directives, residual := d.extractor.Extract(rawText)
	if len(directives) == 0 {
		return residual, nil, false
	}

	batchID := uuid.NewString()
	d.log.DebugCtx(ctx, "directive batch",
		logger.Field{Key: "batch_id", Value: batchID},
		logger.Field{Key: "count", Value: len(directives)})

	outcomes := make([]Outcome, 0, len(directives))
	needsFollowUp := false
	for _, dir := range directives {
		outcome := d.execute(ctx, dir, now)
		outcomes = append(outcomes, outcome)

		if dir.Kind.NeedsFollowUp() {
			needsFollowUp = true
		}

		d.metrics.RecordDirective(string(dir.Kind), outcome.Success)
		if !outcome.Success {
			d.log.WarnCtx(ctx, "directive failed",
				logger.Field{Key: "batch_id", Value: batchID},
				logger.Field{Key: "kind", Value: string(dir.Kind)},
				logger.Field{Key: "detail", Value: outcome.Detail})
		}
	}

	return residual, outcomes, needsFollowUp
}

// execute routes one directive to its handler under the execution limit.
// A later directive may depend on an earlier one's effect, so execution is
// synchronous; the goroutine below exists only to enforce the timeout.
func (d *Dispatcher) execute(ctx context.Context, dir directive.Directive, now time.Time) Outcome {
	handler, ok := d.registry.Get(dir.Kind)
	if !ok {
		return Outcome{
			Directive: dir,
			Success:   false,
			Detail:    fmt.Sprintf("unsupported directive: %s", dir.Head),
		}
	}

	execCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resultChan := make(chan Outcome, 1)
	go func() {
		resultChan <- handler.Handle(execCtx, dir, now)
	}()

	select {
	case outcome := <-resultChan:
		outcome.Directive = dir
		return outcome
	case <-execCtx.Done():
		if execCtx.Err() == context.DeadlineExceeded {
			return Outcome{
				Directive: dir,
				Success:   false,
				Detail:    fmt.Sprintf("directive timed out after %v", d.timeout),
				TimedOut:  true,
			}
		}
		return Outcome{
			Directive: dir,
			Success:   false,
			Detail:    fmt.Sprintf("directive cancelled: %v", execCtx.Err()),
		}
	}
}
