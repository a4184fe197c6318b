package planner

import (
	"context"
	"errors"
	"fmt"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

// ErrNotFound is returned when an operation addresses a day, meal type or
// index that does not exist. The plan is left untouched.
var ErrNotFound = errors.New("plan slot not found")

// Store is the single source of truth for the current week's plan. Every
// mutation is written through to the key-value store. Callers serialise
// access; Store itself is not safe for concurrent use.
type Store struct {
	kv   storage.KeyValueStore
	log  *logger.Logger
	plan PlanState
}

// NewStore creates a store holding an empty plan.
func NewStore(kv storage.KeyValueStore, log *logger.Logger) *Store {
	return &Store{
		kv:   kv,
		log:  log.WithComponent("plan-store"),
		plan: NewPlanState(),
	}
}

// Load replaces the in-memory plan with the persisted one. Missing or corrupt
// data leaves an empty plan.
func (s *Store) Load(ctx context.Context) error {
	var state PlanState
	found, err := storage.GetJSON(ctx, s.kv, storage.KeyPlan, &state)
	if err != nil {
		s.log.Warn("Failed to load saved plan, starting empty", "key", storage.KeyPlan, "error", err)
	}
	if err != nil || !found {
		s.plan = NewPlanState()
		return nil
	}
	s.plan = PlanState{Lunch: state.Lunch.sanitize(), Dinner: state.Dinner.sanitize()}
	return nil
}

// Snapshot returns a deep copy of the plan. Later mutations do not affect it.
func (s *Store) Snapshot() PlanState {
	return s.plan.Clone()
}

// Items returns a copy of one day slot.
func (s *Store) Items(day shared.Day, meal shared.MealType) []shared.PlacedItem {
	return append([]shared.PlacedItem(nil), s.plan.Items(day, meal)...)
}

// AddItem appends item to the slot. Capacity is the caller's concern.
func (s *Store) AddItem(ctx context.Context, day shared.Day, meal shared.MealType, item shared.PlacedItem) error {
	if err := checkSlot(day, meal); err != nil {
		return err
	}
	items := s.plan.Items(day, meal)
	next := make([]shared.PlacedItem, len(items), len(items)+1)
	copy(next, items)
	s.swap(day, meal, append(next, item))
	return s.persist(ctx)
}

// RemoveItem removes the item at index.
func (s *Store) RemoveItem(ctx context.Context, day shared.Day, meal shared.MealType, index int) error {
	items, err := s.slot(day, meal, index)
	if err != nil {
		return err
	}
	next := make([]shared.PlacedItem, 0, len(items)-1)
	next = append(next, items[:index]...)
	s.swap(day, meal, append(next, items[index+1:]...))
	return s.persist(ctx)
}

// ReorderItem moves the item at from to position to, shifting the items in
// between. Both indices must address the current list.
func (s *Store) ReorderItem(ctx context.Context, day shared.Day, meal shared.MealType, from, to int) error {
	items, err := s.slot(day, meal, from)
	if err != nil {
		return err
	}
	if to < 0 || to >= len(items) {
		return fmt.Errorf("%w: %s %s index %d", ErrNotFound, day, meal, to)
	}
	if from == to {
		return nil
	}

	moved := items[from]
	next := make([]shared.PlacedItem, 0, len(items))
	next = append(next, items[:from]...)
	next = append(next, items[from+1:]...)
	next = append(next[:to], append([]shared.PlacedItem{moved}, next[to:]...)...)
	s.swap(day, meal, next)
	return s.persist(ctx)
}

// ToggleLock flips the locked flag of the item at index and returns the new state.
func (s *Store) ToggleLock(ctx context.Context, day shared.Day, meal shared.MealType, index int) (bool, error) {
	items, err := s.slot(day, meal, index)
	if err != nil {
		return false, err
	}
	next := append([]shared.PlacedItem(nil), items...)
	next[index].Locked = !next[index].Locked
	s.swap(day, meal, next)
	return next[index].Locked, s.persist(ctx)
}

// ClearMealType removes every item of meal on every day, locked or not.
func (s *Store) ClearMealType(ctx context.Context, meal shared.MealType) error {
	if !meal.Valid() {
		return fmt.Errorf("%w: meal type %q", ErrNotFound, meal)
	}
	s.plan.setMeal(meal, DayMap{})
	return s.persist(ctx)
}

// ClearDay removes the unlocked items of one slot and returns how many were
// removed. Locked items keep their relative order.
func (s *Store) ClearDay(ctx context.Context, day shared.Day, meal shared.MealType) (int, error) {
	if err := checkSlot(day, meal); err != nil {
		return 0, err
	}
	items := s.plan.Items(day, meal)
	var kept []shared.PlacedItem
	for _, item := range items {
		if item.Locked {
			kept = append(kept, item)
		}
	}
	removed := len(items) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.swap(day, meal, kept)
	return removed, s.persist(ctx)
}

// SetPlan replaces the whole plan with a copy of state.
func (s *Store) SetPlan(ctx context.Context, state PlanState) error {
	state = state.Clone()
	s.plan = PlanState{Lunch: state.Lunch.sanitize(), Dinner: state.Dinner.sanitize()}
	return s.persist(ctx)
}

func (s *Store) slot(day shared.Day, meal shared.MealType, index int) ([]shared.PlacedItem, error) {
	if err := checkSlot(day, meal); err != nil {
		return nil, err
	}
	items := s.plan.Items(day, meal)
	if index < 0 || index >= len(items) {
		return nil, fmt.Errorf("%w: %s %s index %d", ErrNotFound, day, meal, index)
	}
	return items, nil
}

// swap installs a freshly built list, so a failed step never leaves a
// half-modified slice behind.
func (s *Store) swap(day shared.Day, meal shared.MealType, items []shared.PlacedItem) {
	m := s.plan.Meal(meal)
	if m == nil {
		m = DayMap{}
		s.plan.setMeal(meal, m)
	}
	if len(items) == 0 {
		delete(m, day)
		return
	}
	m[day] = items
}

func (s *Store) persist(ctx context.Context) error {
	if err := storage.Persist(ctx, s.kv, storage.KeyPlan, s.plan); err != nil {
		s.log.Error("Failed to save plan", "key", storage.KeyPlan, "error", err)
		return err
	}
	return nil
}

func checkSlot(day shared.Day, meal shared.MealType) error {
	if !day.Valid() {
		return fmt.Errorf("%w: day %q", ErrNotFound, day)
	}
	if !meal.Valid() {
		return fmt.Errorf("%w: meal type %q", ErrNotFound, meal)
	}
	return nil
}
