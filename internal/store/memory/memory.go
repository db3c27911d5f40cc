package memory

import (
	"context"
	"fmt"
	"sync"

	"hishab/internal/core"
)

// Store is an in-memory Event Store, the default backend and the one tests
// run against. Guarded by a single mutex; snapshots are copied out so callers
// never see later mutations.
type Store struct {
	mu       sync.Mutex
	meals    []core.MealEntry
	expenses []core.ExpenseEntry
}

func New() *Store {
	return &Store{}
}

func (s *Store) ListMeals(_ context.Context) ([]core.MealEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MealEntry(nil), s.meals...), nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseEntry(nil), s.expenses...), nil
}

func (s *Store) FindMeal(_ context.Context, member string, day core.Date) (*core.MealEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meals {
		if s.meals[i].Member == member && s.meals[i].Day.Key() == day.Key() {
			e := s.meals[i]
			return &e, nil
		}
	}
	return nil, nil
}

// UpsertMeal overwrites the existing (member, day) entry in place or appends a
// new one. The store never holds two entries for the same key.
func (s *Store) UpsertMeal(_ context.Context, e core.MealEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.meals {
		if s.meals[i].Member == e.Member && s.meals[i].Day.Key() == e.Day.Key() {
			s.meals[i] = e
			return fmt.Sprintf("mem:meal:%d", i+1), nil
		}
	}
	s.meals = append(s.meals, e)
	return fmt.Sprintf("mem:meal:%d", len(s.meals)), nil
}

func (s *Store) AppendExpense(_ context.Context, e core.ExpenseEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return fmt.Sprintf("mem:expense:%d", len(s.expenses)), nil
}

func (s *Store) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meals = nil
	s.expenses = nil
	return nil
}
