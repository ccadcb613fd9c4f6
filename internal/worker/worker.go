// Package worker drives the periodic background passes: materializing
// due recurring transactions, applying scheduled auto-contributions,
// and publishing bill reminders.
package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type Worker struct {
	processor *services.RecurringProcessor
	interval  time.Duration
	logger    *applog.Logger
}

func New(processor *services.RecurringProcessor, interval time.Duration, logger *applog.Logger) *Worker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Worker{
		processor: processor,
		interval:  interval,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// Run executes one pass immediately and then ticks until the context
// is cancelled. Pass failures are logged and the loop keeps going; a
// transient store error on one tick must not kill the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Worker started", "interval", w.interval.String())

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Worker stopping", applog.FieldOperation, applog.OpShutdown)
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce runs the three passes concurrently. They touch disjoint
// rows (recurring templates, goals, bills) so there is no ordering
// dependency between them.
func (w *Worker) runOnce(ctx context.Context) {
	start := time.Now()
	var recurring, contributions, reminders int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := w.processor.ProcessRecurringTransactions(gctx)
		recurring = n
		return err
	})
	g.Go(func() error {
		n, err := w.processor.ProcessAutoContributions(gctx)
		contributions = n
		return err
	})
	g.Go(func() error {
		n, err := w.processor.PublishBillReminders(gctx)
		reminders = n
		return err
	})

	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Worker pass failed", "error", err,
			"transactions_created", recurring,
			"contributions_applied", contributions,
			"reminders_published", reminders)
		return
	}

	w.logger.InfoContext(ctx, "Worker pass complete",
		"transactions_created", recurring,
		"contributions_applied", contributions,
		"reminders_published", reminders,
		"duration_ms", time.Since(start).Milliseconds())
}
