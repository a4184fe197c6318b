package planner

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

type staticDishes map[shared.MealType][]shared.FoodItem

func (d staticDishes) Items(meal shared.MealType) []shared.FoodItem {
	return d[meal]
}

func food(name string, category shared.Category) shared.FoodItem {
	return shared.FoodItem{Name: name, Category: category}
}

func newSuggester(t *testing.T, dishes staticDishes, seed uint64) (*Suggester, *Store) {
	t.Helper()
	store := NewStore(storage.NewMemoryStore(), logger.Nop())
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return NewSuggester(store, dishes, rng, logger.Nop()), store
}

func TestAutoSuggest_DinnerScenario(t *testing.T) {
	dishes := staticDishes{
		shared.Dinner: {
			food("Rice", shared.CategoryRice),
			food("KaiLan", shared.CategoryVegetables),
			food("Chicken", shared.CategoryChicken),
			food("CornSoup", shared.CategorySoup),
		},
	}

	sawSoup, sawNoSoup := false, false
	for seed := uint64(1); seed <= 20; seed++ {
		s, store := newSuggester(t, dishes, seed)
		if _, err := s.AutoSuggest(context.Background(), shared.Dinner); err != nil {
			t.Fatalf("AutoSuggest failed: %v", err)
		}

		for _, day := range shared.Days {
			got := names(store.Items(day, shared.Dinner))
			switch {
			case equalNames(got, []string{"Rice", "KaiLan", "Chicken"}):
				sawNoSoup = true
			case equalNames(got, []string{"Rice", "KaiLan", "Chicken", "CornSoup"}):
				sawSoup = true
			default:
				t.Fatalf("seed %d %s: unexpected dinner %v", seed, day, got)
			}
		}
	}
	if !sawSoup || !sawNoSoup {
		t.Errorf("Expected both soup outcomes across seeds, soup=%v noSoup=%v", sawSoup, sawNoSoup)
	}
}

func TestAutoSuggest_DinnerComposition(t *testing.T) {
	dishes := staticDishes{
		shared.Dinner: {
			food("Brown Rice", shared.CategoryRice),
			food("Kai Lan", shared.CategoryVegetables),
			food("Broccoli", shared.CategoryVegetables),
			food("Chicken Wings", shared.CategoryChicken),
			food("Steamed Fish", shared.CategoryFish),
			food("Steamed Egg", shared.CategoryEggs),
			food("Rice", shared.CategoryRice),
			food("Tofu", shared.CategoryOther),
		},
	}

	s, store := newSuggester(t, dishes, 42)
	if _, err := s.AutoSuggest(context.Background(), shared.Dinner); err != nil {
		t.Fatal(err)
	}

	for _, day := range shared.Days {
		var rice, veg, protein int
		got := store.Items(day, shared.Dinner)
		for _, it := range got {
			switch {
			case it.Category == shared.CategoryRice:
				rice++
			case it.Category == shared.CategoryVegetables:
				veg++
			case it.Category.IsProtein():
				protein++
			case it.Name == "Tofu":
				t.Errorf("%s: other-category dish should never be suggested", day)
			}
		}
		if rice != 1 || veg != 1 || protein != 1 {
			t.Errorf("%s: rice=%d veg=%d protein=%d, want 1 each", day, rice, veg, protein)
		}
		if got[0].Name != "Rice" {
			t.Errorf("%s: expected the dish named Rice first, got %s", day, got[0].Name)
		}
	}
}

func TestAutoSuggest_RiceFallback(t *testing.T) {
	dishes := staticDishes{
		shared.Dinner: {
			food("Kai Lan", shared.CategoryVegetables),
			food("Brown Rice", shared.CategoryRice),
			food("Red Rice", shared.CategoryRice),
		},
	}
	for seed := uint64(1); seed <= 5; seed++ {
		s, store := newSuggester(t, dishes, seed)
		if _, err := s.AutoSuggest(context.Background(), shared.Dinner); err != nil {
			t.Fatal(err)
		}
		for _, day := range shared.Days {
			got := names(store.Items(day, shared.Dinner))
			if !equalNames(got, []string{"Brown Rice", "Kai Lan"}) {
				t.Fatalf("seed %d %s: got %v", seed, day, got)
			}
		}
	}
}

func TestAutoSuggest_Lunch(t *testing.T) {
	ctx := context.Background()

	t.Run("OnePerDay", func(t *testing.T) {
		dishes := staticDishes{shared.Lunch: {food("Laksa", shared.CategoryNoodles), food("Porridge", shared.CategoryRice)}}
		s, store := newSuggester(t, dishes, 7)
		placed, err := s.AutoSuggest(ctx, shared.Lunch)
		if err != nil {
			t.Fatal(err)
		}
		if placed != 7 {
			t.Errorf("Expected 7 dishes placed, got %d", placed)
		}
		for _, day := range shared.Days {
			if got := store.Items(day, shared.Lunch); len(got) != 1 {
				t.Errorf("%s: expected one lunch, got %v", day, names(got))
			}
		}
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		s, store := newSuggester(t, staticDishes{}, 7)
		store.AddItem(ctx, shared.Monday, shared.Lunch, item("Old", shared.CategoryOther))

		placed, err := s.AutoSuggest(ctx, shared.Lunch)
		if err != nil {
			t.Fatalf("AutoSuggest on empty catalog failed: %v", err)
		}
		if placed != 0 {
			t.Errorf("Expected nothing placed, got %d", placed)
		}
		for _, day := range shared.Days {
			if got := store.Items(day, shared.Lunch); len(got) != 0 {
				t.Errorf("%s: expected empty, got %v", day, names(got))
			}
		}
	})
}

func TestAutoSuggest_WipesLockedItems(t *testing.T) {
	ctx := context.Background()
	dishes := staticDishes{shared.Lunch: {food("Laksa", shared.CategoryNoodles)}}
	s, store := newSuggester(t, dishes, 3)

	store.AddItem(ctx, shared.Monday, shared.Lunch, item("Pinned", shared.CategoryOther))
	store.ToggleLock(ctx, shared.Monday, shared.Lunch, 0)

	if _, err := s.AutoSuggest(ctx, shared.Lunch); err != nil {
		t.Fatal(err)
	}
	if got := names(store.Items(shared.Monday, shared.Lunch)); !equalNames(got, []string{"Laksa"}) {
		t.Errorf("Expected the locked dish to be replaced, got %v", got)
	}
}

func TestAutoSuggest_PersistFailure(t *testing.T) {
	store := NewStore(failingStore{storage.NewMemoryStore()}, logger.Nop())
	dishes := staticDishes{shared.Lunch: {food("Laksa", shared.CategoryNoodles)}}
	s := NewSuggester(store, dishes, rand.New(rand.NewPCG(1, 2)), logger.Nop())

	placed, err := s.AutoSuggest(context.Background(), shared.Lunch)
	if !errors.Is(err, storage.ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if placed != 7 || store.Snapshot().Lunch.Count() != 7 {
		t.Errorf("Generation should finish in memory, placed=%d", placed)
	}
}

func TestAutoSuggest_UnknownMeal(t *testing.T) {
	s, _ := newSuggester(t, staticDishes{}, 1)
	if _, err := s.AutoSuggest(context.Background(), shared.MealType("supper")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
