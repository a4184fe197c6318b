package planner

import (
	"context"
	"errors"
	"testing"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

type failingStore struct{ *storage.MemoryStore }

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func item(name string, category shared.Category) shared.PlacedItem {
	return shared.Place(shared.FoodItem{Name: name, Emoji: "🍽️", Category: category})
}

func names(items []shared.PlacedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestStore(t *testing.T, dinner ...string) (*Store, storage.KeyValueStore) {
	t.Helper()
	kv := storage.NewMemoryStore()
	s := NewStore(kv, logger.Nop())
	for _, name := range dinner {
		if err := s.AddItem(context.Background(), shared.Monday, shared.Dinner, item(name, shared.CategoryOther)); err != nil {
			t.Fatalf("AddItem(%s) failed: %v", name, err)
		}
	}
	return s, kv
}

func TestStore_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t, "Rice", "Kai Lan", "Chicken")

	before := names(s.Items(shared.Monday, shared.Dinner))
	removed := s.Items(shared.Monday, shared.Dinner)[2]
	if err := s.RemoveItem(ctx, shared.Monday, shared.Dinner, 2); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if err := s.AddItem(ctx, shared.Monday, shared.Dinner, removed); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if got := names(s.Items(shared.Monday, shared.Dinner)); !equalNames(got, before) {
		t.Errorf("Expected %v after remove and re-add, got %v", before, got)
	}

	t.Run("Persisted", func(t *testing.T) {
		reloaded := NewStore(kv, logger.Nop())
		if err := reloaded.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if got := names(reloaded.Items(shared.Monday, shared.Dinner)); !equalNames(got, before) {
			t.Errorf("Reloaded plan = %v, want %v", got, before)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		for _, idx := range []int{-1, 3, 10} {
			if err := s.RemoveItem(ctx, shared.Monday, shared.Dinner, idx); !errors.Is(err, ErrNotFound) {
				t.Errorf("RemoveItem(%d): expected ErrNotFound, got %v", idx, err)
			}
		}
		if got := len(s.Items(shared.Monday, shared.Dinner)); got != 3 {
			t.Errorf("Plan changed after failed removes: %d items", got)
		}
	})

	t.Run("UnknownSlot", func(t *testing.T) {
		if err := s.RemoveItem(ctx, shared.Day("funday"), shared.Dinner, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown day, got %v", err)
		}
		if err := s.RemoveItem(ctx, shared.Tuesday, shared.MealType("brunch"), 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown meal, got %v", err)
		}
		if err := s.RemoveItem(ctx, shared.Tuesday, shared.Dinner, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound for empty day, got %v", err)
		}
	})
}

func TestStore_ReorderItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "A", "B", "C", "D")
	original := names(s.Items(shared.Monday, shared.Dinner))

	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 3, []string{"B", "C", "D", "A"}},
		{3, 1, []string{"A", "D", "B", "C"}},
		{1, 2, []string{"A", "C", "B", "D"}},
		{2, 2, []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		if err := s.ReorderItem(ctx, shared.Monday, shared.Dinner, tt.from, tt.to); err != nil {
			t.Fatalf("ReorderItem(%d, %d) failed: %v", tt.from, tt.to, err)
		}
		if got := names(s.Items(shared.Monday, shared.Dinner)); !equalNames(got, tt.want) {
			t.Errorf("ReorderItem(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
		if err := s.ReorderItem(ctx, shared.Monday, shared.Dinner, tt.to, tt.from); err != nil {
			t.Fatal(err)
		}
		if got := names(s.Items(shared.Monday, shared.Dinner)); !equalNames(got, original) {
			t.Errorf("Reverse move did not restore order: %v", got)
		}
	}

	if err := s.ReorderItem(ctx, shared.Monday, shared.Dinner, 0, 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for target past the end, got %v", err)
	}
	if err := s.ReorderItem(ctx, shared.Friday, shared.Dinner, 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a day without a list, got %v", err)
	}
}

func TestStore_LocksAndClearing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "A", "B", "C", "D")

	locked, err := s.ToggleLock(ctx, shared.Monday, shared.Dinner, 1)
	if err != nil || !locked {
		t.Fatalf("ToggleLock = %v, %v; want true", locked, err)
	}
	if _, err := s.ToggleLock(ctx, shared.Monday, shared.Dinner, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleLock(ctx, shared.Monday, shared.Dinner, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	t.Run("ClearDayKeepsLocked", func(t *testing.T) {
		removed, err := s.ClearDay(ctx, shared.Monday, shared.Dinner)
		if err != nil {
			t.Fatal(err)
		}
		if removed != 2 {
			t.Errorf("Expected 2 removed, got %d", removed)
		}
		got := s.Items(shared.Monday, shared.Dinner)
		if !equalNames(names(got), []string{"B", "D"}) {
			t.Errorf("Expected locked B, D in order, got %v", names(got))
		}
		for _, it := range got {
			if !it.Locked {
				t.Errorf("%s should still be locked", it.Name)
			}
		}
	})

	t.Run("ClearMealTypeIgnoresLocks", func(t *testing.T) {
		if err := s.AddItem(ctx, shared.Tuesday, shared.Lunch, item("Laksa", shared.CategoryNoodles)); err != nil {
			t.Fatal(err)
		}
		if err := s.ClearMealType(ctx, shared.Dinner); err != nil {
			t.Fatal(err)
		}
		plan := s.Snapshot()
		if plan.Dinner.Count() != 0 {
			t.Errorf("Expected empty dinner, got %d items", plan.Dinner.Count())
		}
		if plan.Lunch.Count() != 1 {
			t.Errorf("Lunch should be untouched, got %d items", plan.Lunch.Count())
		}
	})
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "A", "B")

	snap := s.Snapshot()
	if _, err := s.ToggleLock(ctx, shared.Monday, shared.Dinner, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveItem(ctx, shared.Monday, shared.Dinner, 1); err != nil {
		t.Fatal(err)
	}

	got := snap.Items(shared.Monday, shared.Dinner)
	if len(got) != 2 || got[0].Locked {
		t.Errorf("Snapshot changed after mutation: %+v", got)
	}

	snap.Dinner[shared.Monday][0].Name = "Mutated"
	if s.Items(shared.Monday, shared.Dinner)[0].Name != "A" {
		t.Error("Mutating a snapshot changed the store")
	}
}

func TestStore_SetPlan(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	state := NewPlanState()
	state.Lunch[shared.Wednesday] = []shared.PlacedItem{item("Porridge", shared.CategoryRice)}
	state.Dinner[shared.Day("someday")] = []shared.PlacedItem{item("Ghost", shared.CategoryOther)}
	if err := s.SetPlan(ctx, state); err != nil {
		t.Fatal(err)
	}

	state.Lunch[shared.Wednesday][0].Name = "Changed"
	if got := s.Items(shared.Wednesday, shared.Lunch); len(got) != 1 || got[0].Name != "Porridge" {
		t.Errorf("SetPlan should copy its input, got %+v", got)
	}
	if s.Snapshot().Dinner.Count() != 0 {
		t.Error("Unknown days should be dropped")
	}

	reloaded := NewStore(kv, logger.Nop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Items(shared.Wednesday, shared.Lunch); len(got) != 1 {
		t.Errorf("Expected persisted lunch, got %+v", got)
	}
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing", func(t *testing.T) {
		s := NewStore(storage.NewMemoryStore(), logger.Nop())
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if !s.Snapshot().IsEmpty() {
			t.Error("Expected empty plan")
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		kv.Set(ctx, storage.KeyPlan, []byte(`{"lunch": [`))
		s := NewStore(kv, logger.Nop())
		if err := s.Load(ctx); err != nil {
			t.Fatalf("Load should tolerate corrupt data, got %v", err)
		}
		if !s.Snapshot().IsEmpty() {
			t.Error("Expected empty plan")
		}
	})

	t.Run("WireFormat", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		raw := `{"lunch":{"monday":[{"name":"Bee Hoon","emoji":"🍜","category":"noodles","locked":true}]},"dinner":{}}`
		kv.Set(ctx, storage.KeyPlan, []byte(raw))
		s := NewStore(kv, logger.Nop())
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		got := s.Items(shared.Monday, shared.Lunch)
		if len(got) != 1 || got[0].Name != "Bee Hoon" || !got[0].Locked {
			t.Errorf("Unexpected lunch %+v", got)
		}
	})
}

func TestStore_PersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingStore{storage.NewMemoryStore()}, logger.Nop())

	err := s.AddItem(ctx, shared.Monday, shared.Lunch, item("Laksa", shared.CategoryNoodles))
	if !errors.Is(err, storage.ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if got := s.Items(shared.Monday, shared.Lunch); len(got) != 1 {
		t.Errorf("In-memory plan should keep the item, got %+v", got)
	}
}
