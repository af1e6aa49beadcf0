package services

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// EventPublisher announces committed changes to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense operations across the store, the
// aggregator and the optional change-event publisher.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
	logger    *applog.Logger
}

// NewExpenseService wires a service. publisher may be nil.
func NewExpenseService(store storage.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    applog.FromContext(context.Background()).WithComponent(applog.ComponentExpense),
	}
}

func (s *ExpenseService) WithLogger(l *applog.Logger) *ExpenseService {
	s.logger = l.WithComponent(applog.ComponentExpense)
	return s
}

// AddExpense stores a new expense and returns the persisted record.
func (s *ExpenseService) AddExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	id, err := s.store.Add(ctx, in)
	if err != nil {
		return core.Expense{}, s.fail(ctx, applog.OpCreate, err)
	}
	s.publish(ctx, amqp.EventCreated, id)

	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, s.fail(ctx, applog.OpRead, err)
	}
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, applog.OpList, err)
	}
	return all, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, s.fail(ctx, applog.OpRead, err)
	}
	return e, nil
}

// UpdateExpense overwrites the mutable fields of id and returns the result.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error) {
	if err := s.store.Update(ctx, id, in); err != nil {
		return core.Expense{}, s.fail(ctx, applog.OpUpdate, err)
	}
	s.publish(ctx, amqp.EventUpdated, id)

	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, s.fail(ctx, applog.OpRead, err)
	}
	return e, nil
}

// DeleteExpense removes id. Deleting a missing id succeeds and publishes
// nothing.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return s.fail(ctx, applog.OpDelete, err)
	}
	if deleted {
		s.publish(ctx, amqp.EventDeleted, id)
	}
	return nil
}

// ClearExpenses removes every expense and restarts id numbering.
func (s *ExpenseService) ClearExpenses(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return s.fail(ctx, applog.OpClear, err)
	}
	s.publish(ctx, amqp.EventCleared, 0)
	return nil
}

func (s *ExpenseService) CategoryTotals(ctx context.Context) ([]core.CategoryAmount, error) {
	all, err := s.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.TotalsByCategory(all), nil
}

func (s *ExpenseService) DailyTotals(ctx context.Context) ([]core.DailyAmount, error) {
	all, err := s.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.DailyTotals(all), nil
}

// Summary recomputes every aggregate from a single read of the store.
func (s *ExpenseService) Summary(ctx context.Context) (core.Summary, error) {
	all, err := s.ListExpenses(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return aggregate.Summarize(all), nil
}

func (s *ExpenseService) fail(ctx context.Context, op string, err error) error {
	if core.IsStorage(err) {
		s.logger.ErrorContext(ctx, "Expense storage operation failed",
			applog.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	}
	return err
}

func (s *ExpenseService) publish(ctx context.Context, t amqp.EventType, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewExpenseEvent(t, id)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			applog.FieldEventType, t,
			applog.FieldExpenseID, id,
			applog.FieldError, err)
	}
}

// Close releases the store and, when it owns one, the publisher connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
