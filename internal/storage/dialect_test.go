package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []string{
		"2024-01-02T03:04:05Z",
		"2024-01-02 03:04:05+00:00",
		"2024-01-02 03:04:05",
		"2024-01-02T03:04:05",
		"2024-01-02T05:04:05+02:00",
	}
	for _, in := range cases {
		got, err := parseTimestamp(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}

func TestSQLiteTimeArgRoundTrips(t *testing.T) {
	in := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("CET", 3600))
	formatted, ok := sqliteDialect.timeArg(in).(string)
	if !ok {
		t.Fatalf("sqlite time argument should be a string")
	}
	got, err := parseTimestamp(formatted)
	if err != nil {
		t.Fatalf("parse %q: %v", formatted, err)
	}
	if !got.Equal(in) {
		t.Fatalf("got %v, want %v", got, in)
	}
}

func TestSQLiteStoresAmountAsText(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	amount := decimal.RequireFromString("999999999999.99")
	id, err := repo.Add(ctx, core.ExpenseInput{Date: core.NewDate(2024, 1, 2), Amount: amount, Category: "Food"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	var kind string
	if err := repo.db.GetContext(ctx, &kind, `SELECT typeof(amount) FROM expenses WHERE id = ?`, id); err != nil {
		t.Fatalf("typeof: %v", err)
	}
	if kind != "text" {
		t.Fatalf("amount stored as %s, want text", kind)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(amount) {
		t.Fatalf("amount = %s, want %s", got.Amount, amount)
	}

	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO expenses (expense_date, amount, category, created_at) VALUES ('2024-01-02', '0', 'Food', '2024-01-02 00:00:00')`); err == nil {
		t.Fatalf("zero amount should violate the check constraint")
	}
}
