package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const (
	insertExpenseSQL = `INSERT INTO expenses (expense_date, amount, category, description, created_at)
VALUES (?, ?, ?, ?, ?) RETURNING id`
	selectExpensesSQL = `SELECT id, expense_date, amount, category, description, created_at
FROM expenses`
	updateExpenseSQL = `UPDATE expenses
SET expense_date = ?, amount = ?, category = ?, description = ?
WHERE id = ?`
	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ?`
)

// Repository is the SQL-backed Store shared by the SQLite and PostgreSQL
// backends.
type Repository struct {
	db      *sqlx.DB
	dsn     string
	dialect dialect
	now     func() time.Time
}

var _ Store = (*Repository)(nil)

// expenseRow is the raw column layout; it is decoded once into core.Expense.
type expenseRow struct {
	ID          int64           `db:"id"`
	ExpenseDate string          `db:"expense_date"`
	Amount      decimal.Decimal `db:"amount"`
	Category    string          `db:"category"`
	Description sql.NullString  `db:"description"`
	CreatedAt   string          `db:"created_at"`
}

func (r expenseRow) toExpense() (core.Expense, error) {
	date, err := core.ParseDate(r.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense_date %q of expense %d: %w", r.ExpenseDate, r.ID, err)
	}
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode created_at %q of expense %d: %w", r.CreatedAt, r.ID, err)
	}
	return core.Expense{
		ID:          r.ID,
		Date:        date,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description.String,
		CreatedAt:   createdAt,
	}, nil
}

func openRepository(dsn string, d dialect) (*Repository, error) {
	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.name, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &Repository{
		db:      db,
		dsn:     dsn,
		dialect: d,
		now:     time.Now,
	}

	if err := repo.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// WithClock replaces the clock used for created_at. Intended for tests.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Initialize applies pending schema migrations.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := runMigrations(r.dsn, r.dialect); err != nil {
		return storageErr("initialize", err)
	}
	slog.DebugContext(ctx, "Schema is up to date",
		applog.FieldComponent, applog.ComponentStorage,
		"dialect", r.dialect.name)
	return nil
}

func (r *Repository) Add(ctx context.Context, in core.ExpenseInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.withTx(ctx, applog.OpCreate, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, r.db.Rebind(insertExpenseSQL),
			in.Date.String(),
			in.Amount,
			in.Category,
			in.Description,
			r.dialect.timeArg(r.now()),
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id,
		applog.FieldExpenseDate, in.Date.String(),
		applog.FieldAmount, in.Amount.String(),
		applog.FieldCategory, in.Category)

	return id, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]core.Expense, error) {
	var rows []expenseRow
	q := selectExpensesSQL + ` ORDER BY expense_date DESC, id ASC`
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, storageErr(applog.OpList, err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toExpense()
		if err != nil {
			return nil, storageErr(applog.OpList, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (core.Expense, error) {
	var row expenseRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectExpensesSQL+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	if err != nil {
		return core.Expense{}, storageErr(applog.OpRead, err)
	}

	e, err := row.toExpense()
	if err != nil {
		return core.Expense{}, storageErr(applog.OpRead, err)
	}
	return e, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in core.ExpenseInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	err := r.withTx(ctx, applog.OpUpdate, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.Rebind(updateExpenseSQL),
			in.Date.String(),
			in.Amount,
			in.Category,
			in.Description,
			id,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense updated",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id)
	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.withTx(ctx, applog.OpDelete, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.Rebind(deleteExpenseSQL), id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}

	if n == 0 {
		slog.DebugContext(ctx, "Delete of missing expense ignored",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldExpenseID, id)
		return false, nil
	}
	slog.InfoContext(ctx, "Expense deleted",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id)
	return true, nil
}

func (r *Repository) ClearAll(ctx context.Context) error {
	err := r.withTx(ctx, applog.OpClear, func(tx *sqlx.Tx) error {
		for _, stmt := range r.dialect.clearSQL {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.WarnContext(ctx, "All expenses cleared and id sequence reset",
		applog.FieldComponent, applog.ComponentStorage)
	return nil
}

// withTx runs fn inside a transaction. Any error rolls the transaction back;
// errors that are not already typed domain errors become *core.StorageError.
func (r *Repository) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr(op, fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.ErrorContext(ctx, "Rollback failed",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, op,
				applog.FieldError, rbErr)
		}
		if core.IsNotFound(err) || core.IsValidation(err) {
			return err
		}
		return storageErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func storageErr(op string, err error) error {
	var serr *core.StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}
