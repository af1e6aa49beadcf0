// Package memory is an in-process Store with the same contract as the SQL
// repositories. Data lives only as long as the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Expense
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID: 1,
		items:  make(map[int64]core.Expense),
		now:    time.Now,
	}
}

// WithClock replaces the clock used for created_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) Initialize(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Add(_ context.Context, in core.ExpenseInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.items[id] = core.Expense{
		ID:          id,
		Date:        in.Date,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	return id, nil
}

func (s *Store) GetAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	return e, nil
}

func (s *Store) Update(_ context.Context, id int64, in core.ExpenseInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	if !ok {
		return &core.NotFoundError{ID: id}
	}
	e.Date = in.Date
	e.Amount = in.Amount
	e.Category = in.Category
	e.Description = in.Description
	s.items[id] = e
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	delete(s.items, id)
	return ok, nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[int64]core.Expense)
	s.nextID = 1
	return nil
}
