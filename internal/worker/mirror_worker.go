package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// MirrorWorker copies the full expense table to an external mirror. It runs
// on every change event and on a fixed interval as a backstop for lost
// messages.
type MirrorWorker struct {
	store  storage.Store
	mirror sheets.ExpenseMirror
	logger *applog.Logger

	// serializes Sync so concurrent triggers never interleave writes
	mu       sync.Mutex
	lastSync time.Time
}

func NewMirrorWorker(store storage.Store, mirror sheets.ExpenseMirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Sync rewrites the mirror from the current store contents.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	expenses, err := w.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read expenses: %w", err)
	}

	ref, err := w.mirror.ReplaceExpenses(ctx, expenses)
	if err != nil {
		return fmt.Errorf("mirror expenses: %w", err)
	}

	w.lastSync = time.Now()
	w.logger.InfoContext(ctx, "Mirror synchronized",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldCount, len(expenses),
		applog.FieldSheetsRef, ref)
	return nil
}

// HandleEvent is the AMQP consumer callback. Every event type triggers a full
// resync, so out-of-order delivery cannot leave the mirror stale.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	w.logger.DebugContext(ctx, "Processing expense event",
		applog.FieldEventType, ev.Type,
		applog.FieldExpenseID, ev.ID)
	return w.Sync(ctx)
}

// RunPeriodic syncs once immediately and then every interval until ctx is
// done. Failures are logged and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid mirror interval %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic mirror sync failed", applog.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// LastSync returns the completion time of the most recent successful sync.
func (w *MirrorWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}
