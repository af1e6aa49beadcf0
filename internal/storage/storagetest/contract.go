// Package storagetest holds the behavioural contract every storage.Store
// implementation must satisfy.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Factory returns a fresh, empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"AddThenGetAll", testAddThenGetAll},
		{"GetAllEmpty", testGetAllEmpty},
		{"GetAllOrdering", testGetAllOrdering},
		{"GetMissing", testGetMissing},
		{"AddRejectsInvalidInput", testAddRejectsInvalidInput},
		{"UpdateOverwritesFields", testUpdateOverwritesFields},
		{"UpdateMissing", testUpdateMissing},
		{"UpdateRejectsInvalidAmount", testUpdateRejectsInvalidAmount},
		{"DeleteByIDIsIdempotent", testDeleteByIDIsIdempotent},
		{"IDsNotReusedAfterDelete", testIDsNotReusedAfterDelete},
		{"ClearAllResetsIDs", testClearAllResetsIDs},
		{"InitializeIsIdempotent", testInitializeIsIdempotent},
		{"ConcurrentAddsGetUniqueIDs", testConcurrentAdds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(day, amount, category, description string) core.ExpenseInput {
	d, err := core.ParseDate(day)
	if err != nil {
		panic(err)
	}
	return core.ExpenseInput{
		Date:        d,
		Amount:      dec(amount),
		Category:    category,
		Description: description,
	}
}

func mustAdd(t *testing.T, s storage.Store, in core.ExpenseInput) int64 {
	t.Helper()
	id, err := s.Add(context.Background(), in)
	require.NoError(t, err)
	return id
}

func ids(expenses []core.Expense) []int64 {
	out := make([]int64, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func testAddThenGetAll(t *testing.T, s storage.Store) {
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	id := mustAdd(t, s, input("2024-01-15", "12.34", "Food", "groceries"))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, id, got.ID)
	assert.Positive(t, got.ID)
	assert.Equal(t, "2024-01-15", got.Date.String())
	assert.True(t, got.Amount.Equal(dec("12.34")), "amount = %s", got.Amount)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, "groceries", got.Description)
	assert.False(t, got.CreatedAt.IsZero())
	assert.WithinDuration(t, before, got.CreatedAt, time.Minute)

	byID, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, got.Date, byID.Date)
	assert.True(t, byID.Amount.Equal(got.Amount))
}

func testGetAllEmpty(t *testing.T, s storage.Store) {
	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func testGetAllOrdering(t *testing.T, s storage.Store) {
	a := mustAdd(t, s, input("2024-01-01", "1", "Food", ""))
	b := mustAdd(t, s, input("2024-01-03", "2", "Food", ""))
	c := mustAdd(t, s, input("2024-01-02", "3", "Care", ""))
	d := mustAdd(t, s, input("2024-01-03", "4", "Other", ""))

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{b, d, c, a}, ids(all))
}

func testGetMissing(t *testing.T, s storage.Store) {
	_, err := s.Get(context.Background(), 4242)
	assert.True(t, core.IsNotFound(err), "expected not found, got %v", err)
}

func testAddRejectsInvalidInput(t *testing.T, s storage.Store) {
	ctx := context.Background()
	bad := []core.ExpenseInput{
		input("2024-01-01", "0", "Food", ""),
		input("2024-01-01", "-5", "Food", ""),
		input("2024-01-01", "5", "", ""),
		{Amount: dec("5"), Category: "Food"},
	}
	for i, in := range bad {
		_, err := s.Add(ctx, in)
		assert.True(t, core.IsValidation(err), "case %d: expected validation error, got %v", i, err)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected input must not be persisted")
}

func testUpdateOverwritesFields(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id := mustAdd(t, s, input("2024-01-01", "10", "Food", "lunch"))

	original, err := s.Get(ctx, id)
	require.NoError(t, err)

	err = s.Update(ctx, id, input("2024-02-02", "99.95", "Shopping", "shoes"))
	require.NoError(t, err)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "2024-02-02", got.Date.String())
	assert.True(t, got.Amount.Equal(dec("99.95")), "amount = %s", got.Amount)
	assert.Equal(t, "Shopping", got.Category)
	assert.Equal(t, "shoes", got.Description)
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt),
		"created_at changed from %v to %v", original.CreatedAt, got.CreatedAt)
}

func testUpdateMissing(t *testing.T, s storage.Store) {
	err := s.Update(context.Background(), 77, input("2024-01-01", "1", "Food", ""))
	assert.True(t, core.IsNotFound(err), "expected not found, got %v", err)
}

func testUpdateRejectsInvalidAmount(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id := mustAdd(t, s, input("2024-01-01", "10", "Food", ""))

	err := s.Update(ctx, id, input("2024-01-05", "0", "Care", "changed"))
	require.True(t, core.IsValidation(err), "expected validation error, got %v", err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got.Date.String())
	assert.True(t, got.Amount.Equal(dec("10")))
	assert.Equal(t, "Food", got.Category)
}

func testDeleteByIDIsIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	keep := mustAdd(t, s, input("2024-01-01", "1", "Food", ""))
	drop := mustAdd(t, s, input("2024-01-02", "2", "Food", ""))

	deleted, err := s.DeleteByID(ctx, drop)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteByID(ctx, drop)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteByID(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, deleted)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{keep}, ids(all))
}

func testIDsNotReusedAfterDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	first := mustAdd(t, s, input("2024-01-01", "1", "Food", ""))
	second := mustAdd(t, s, input("2024-01-01", "2", "Food", ""))
	require.Greater(t, second, first)

	_, err := s.DeleteByID(ctx, second)
	require.NoError(t, err)
	third := mustAdd(t, s, input("2024-01-01", "3", "Food", ""))
	assert.Greater(t, third, second)
}

func testClearAllResetsIDs(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		mustAdd(t, s, input("2024-01-01", "1", "Food", ""))
	}

	require.NoError(t, s.ClearAll(ctx))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	id := mustAdd(t, s, input("2024-03-01", "5", "Care", ""))
	assert.Equal(t, int64(1), id)

	require.NoError(t, s.ClearAll(ctx), "clearing an empty store is allowed")
}

func testInitializeIsIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id := mustAdd(t, s, input("2024-01-01", "7.50", "Food", ""))

	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Initialize(ctx))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("7.50")))
}

func testConcurrentAdds(t *testing.T, s storage.Store) {
	const workers = 20
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		g    errgroup.Group
	)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			id, err := s.Add(ctx, input("2024-01-01", "1", "Food", "concurrent"))
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("id %d assigned twice", id)
			}
			seen[id] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, workers)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, workers)
}
