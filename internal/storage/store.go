// Package storage persists expense records.
//
// Every Store implementation enforces the same contract: ids are assigned by
// the store and never reused until ClearAll, created_at is written once, and
// each write is atomic. The behaviour is pinned down by storagetest.Run.
package storage

import (
	"context"

	"expensetracker/internal/core"
)

// Store is the durable collection of expense records.
type Store interface {
	// Initialize ensures the schema exists. Safe to call on every start.
	Initialize(ctx context.Context) error

	// Add validates and persists a new expense, returning its id.
	Add(ctx context.Context, in core.ExpenseInput) (int64, error)

	// GetAll returns every expense ordered by date descending, then by id.
	GetAll(ctx context.Context) ([]core.Expense, error)

	// Get returns a single expense or a *core.NotFoundError.
	Get(ctx context.Context, id int64) (core.Expense, error)

	// Update overwrites the mutable fields of an existing expense.
	Update(ctx context.Context, id int64, in core.ExpenseInput) error

	// DeleteByID removes an expense and reports whether it existed. Missing
	// ids are not an error.
	DeleteByID(ctx context.Context, id int64) (bool, error)

	// ClearAll removes every expense and restarts id numbering at 1.
	ClearAll(ctx context.Context) error

	Close() error
}
