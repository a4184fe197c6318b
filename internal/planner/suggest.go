package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

// preferredRice is always served first on a generated dinner day when present.
const preferredRice = "Rice"

// soupChance is the probability of a soup on a generated dinner day.
const soupChance = 0.5

// DishSource supplies the selectable dishes of a meal type.
type DishSource interface {
	Items(meal shared.MealType) []shared.FoodItem
}

// Suggester fills a week of one meal type with random dishes following
// per-meal composition rules.
type Suggester struct {
	store  *Store
	dishes DishSource
	rng    *rand.Rand
	log    *logger.Logger
}

// NewSuggester creates a suggester. rng may be seeded for reproducible weeks.
func NewSuggester(store *Store, dishes DishSource, rng *rand.Rand, log *logger.Logger) *Suggester {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Suggester{
		store:  store,
		dishes: dishes,
		rng:    rng,
		log:    log.WithComponent("suggester"),
	}
}

// AutoSuggest wipes every day of meal, locked items included, and fills each
// day afresh. Lunch gets one random dish. Dinner gets rice, one vegetable,
// one protein and sometimes a soup. Empty pools leave days shorter.
// It returns the number of dishes placed.
//
// Write failures do not stop generation; the first one is returned at the end.
func (s *Suggester) AutoSuggest(ctx context.Context, meal shared.MealType) (int, error) {
	var persistErr error
	keep := func(err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrPersist) {
			if persistErr == nil {
				persistErr = err
			}
			return nil
		}
		return err
	}

	if err := keep(s.store.ClearMealType(ctx, meal)); err != nil {
		return 0, err
	}

	items := s.dishes.Items(meal)
	placed := 0
	for _, day := range shared.Days {
		var picks []shared.FoodItem
		switch meal {
		case shared.Lunch:
			if item, ok := s.pick(items); ok {
				picks = append(picks, item)
			}
		case shared.Dinner:
			picks = s.dinner(items)
		}

		for _, item := range picks {
			if err := keep(s.store.AddItem(ctx, day, meal, shared.Place(item))); err != nil {
				return placed, fmt.Errorf("placing %s on %s: %w", item.Name, day, err)
			}
			placed++
		}
	}

	s.log.Info("Generated meal suggestions", "meal", meal, "dishes", placed)
	return placed, persistErr
}

// dinner picks one day's dinner: rice, vegetable, protein, optional soup.
func (s *Suggester) dinner(items []shared.FoodItem) []shared.FoodItem {
	var rice, veg, protein, soup []shared.FoodItem
	for _, item := range items {
		switch {
		case item.Category == shared.CategoryRice:
			rice = append(rice, item)
		case item.Category == shared.CategoryVegetables:
			veg = append(veg, item)
		case item.Category.IsProtein():
			protein = append(protein, item)
		case item.Category == shared.CategorySoup:
			soup = append(soup, item)
		}
	}

	var picks []shared.FoodItem
	if item, ok := chooseRice(rice); ok {
		picks = append(picks, item)
	}
	if item, ok := s.pick(veg); ok {
		picks = append(picks, item)
	}
	if item, ok := s.pick(protein); ok {
		picks = append(picks, item)
	}
	if len(soup) > 0 && s.rng.Float64() < soupChance {
		item, _ := s.pick(soup)
		picks = append(picks, item)
	}
	return picks
}

// chooseRice prefers the dish named exactly "Rice", then the first rice dish.
func chooseRice(pool []shared.FoodItem) (shared.FoodItem, bool) {
	for _, item := range pool {
		if item.Name == preferredRice {
			return item, true
		}
	}
	if len(pool) > 0 {
		return pool[0], true
	}
	return shared.FoodItem{}, false
}

func (s *Suggester) pick(pool []shared.FoodItem) (shared.FoodItem, bool) {
	if len(pool) == 0 {
		return shared.FoodItem{}, false
	}
	return pool[s.rng.IntN(len(pool))], true
}
