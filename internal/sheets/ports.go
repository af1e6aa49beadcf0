package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps an external copy of the full expense table.
	ExpenseMirror interface {
		// ReplaceExpenses overwrites the mirror with expenses, in order, and
		// returns a reference to the written range.
		ReplaceExpenses(ctx context.Context, expenses []core.Expense) (rowRef string, err error)
	}
)
