// Package pipeline runs an ordered list of confirmation steps with
// compensation. Workflow ordering — decrement stock, then apply discounts,
// then accounting — is declared by the caller as a slice of steps, so the
// sequence is visible configuration rather than a consequence of type
// composition.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/shopkit/internal/order/confirmlog"
)

// Step represents a single unit of work in a confirmation pipeline.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Runner executes a collection of Steps in declared order.
type Runner struct {
	id    string
	steps []Step
	log   confirmlog.Repository // nil-safe: logging skipped if nil
}

// New builds a runner. id is recorded in the confirmation log, typically the
// order ID. logRepo may be nil — transitions are then not persisted.
func New(id string, steps []Step, logRepo confirmlog.Repository) *Runner {
	return &Runner{id: id, steps: steps, log: logRepo}
}

// Run executes the steps sequentially. If a step fails, the compensation of
// all previously successful steps runs in reverse (LIFO) order and the
// original step error is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.record(ctx, confirmlog.StatusStarted, "", nil)

	var done []Step
	for _, step := range r.steps {
		slog.InfoContext(ctx, "executing confirmation step", "pipeline_id", r.id, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.ErrorContext(ctx, "confirmation step failed, compensating",
				"pipeline_id", r.id, "step", step.Name(), "error", err)
			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			r.record(ctx, confirmlog.StatusCompensating, step.Name(), errs)
			errs = append(errs, r.rollback(ctx, done)...)
			r.record(ctx, confirmlog.StatusFailed, step.Name(), errs)
			return err
		}
		done = append(done, step)
		r.record(ctx, confirmlog.StatusStepDone, step.Name(), nil)
	}

	r.record(ctx, confirmlog.StatusCompleted, "", nil)
	return nil
}

// rollback compensates already-executed steps in reverse order. Compensation
// errors are collected for the log but do not stop the remaining
// compensations.
func (r *Runner) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating confirmation step", "pipeline_id", r.id, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step",
				"pipeline_id", r.id, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (r *Runner) record(ctx context.Context, status confirmlog.Status, step string, errs []string) {
	if r.log == nil {
		return
	}
	entry := confirmlog.NewEntry(ctx, r.id, status, step, "", errs)
	if err := r.log.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to save confirmation log entry",
			"pipeline_id", r.id, "error", err)
	}
}
