package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

var (
	ErrDuplicateName = errors.New("a dish with that name already exists")
	ErrNotFound      = errors.New("dish not found")
	ErrInvalidDish   = errors.New("invalid dish")
)

// Catalog is the selectable dish list per meal type: the built-in seed plus
// user-added custom dishes, without duplicate names.
type Catalog struct {
	mu      sync.RWMutex
	kv      storage.KeyValueStore
	log     *logger.Logger
	builtin Seed
	custom  map[shared.MealType][]shared.FoodItem
	items   map[shared.MealType][]shared.FoodItem
}

// New creates a catalog holding only the built-in seed. Call Load to merge
// persisted custom dishes.
func New(kv storage.KeyValueStore, seed Seed, log *logger.Logger) *Catalog {
	c := &Catalog{
		kv:      kv,
		log:     log.WithComponent("catalog"),
		builtin: seed,
		custom:  map[shared.MealType][]shared.FoodItem{},
	}
	c.merge()
	return c
}

// Load reads the custom dish record and merges it into the catalog. A missing
// or unreadable record leaves only the built-in dishes.
func (c *Catalog) Load(ctx context.Context) error {
	custom := map[shared.MealType][]shared.FoodItem{}
	if _, err := storage.GetJSON(ctx, c.kv, storage.KeyCustomDishes, &custom); err != nil {
		c.log.Warn("Failed to load custom dishes, starting without them", "error", err)
		custom = map[shared.MealType][]shared.FoodItem{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for meal, items := range custom {
		if !meal.Valid() {
			delete(custom, meal)
			continue
		}
		for i := range items {
			items[i].IsCustom = true
		}
	}
	c.custom = custom
	c.merge()
	return nil
}

// ReloadSeed swaps the built-in dishes, keeping custom dishes merged in.
func (c *Catalog) ReloadSeed(seed Seed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builtin = seed
	c.merge()
}

// merge rebuilds items from builtin and custom. Custom dishes whose exact name
// is already present are skipped. Callers hold c.mu.
func (c *Catalog) merge() {
	items := make(map[shared.MealType][]shared.FoodItem, len(shared.MealTypes))
	for _, meal := range shared.MealTypes {
		merged := append([]shared.FoodItem(nil), c.builtin[meal]...)
		for _, item := range c.custom[meal] {
			if indexOf(merged, item.Name) < 0 {
				merged = append(merged, item)
			}
		}
		items[meal] = merged
	}
	c.items = items
}

// Items returns a copy of the merged catalog for meal.
func (c *Catalog) Items(meal shared.MealType) []shared.FoodItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]shared.FoodItem(nil), c.items[meal]...)
}

// CustomItems returns a copy of the user-added dishes for meal.
func (c *Catalog) CustomItems(meal shared.MealType) []shared.FoodItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]shared.FoodItem(nil), c.custom[meal]...)
}

// Find looks a dish up by exact name first, then case-insensitively.
func (c *Catalog) Find(meal shared.MealType, name string) (shared.FoodItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := c.items[meal]
	if i := indexOf(items, name); i >= 0 {
		return items[i], true
	}
	if i := indexFold(items, name); i >= 0 {
		return items[i], true
	}
	return shared.FoodItem{}, false
}

// Categories lists the distinct categories of meal in first-seen order.
func (c *Catalog) Categories(meal shared.MealType) []shared.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[shared.Category]bool{}
	var out []shared.Category
	for _, item := range c.items[meal] {
		if !seen[item.Category] {
			seen[item.Category] = true
			out = append(out, item.Category)
		}
	}
	return out
}

// AddCustomDish appends a user dish to meal's catalog and persists the custom
// list. Names clash case-insensitively with any dish already in that catalog.
func (c *Catalog) AddCustomDish(ctx context.Context, name, emoji string, meal shared.MealType, category shared.Category) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidDish)
	}
	if !meal.Valid() {
		return fmt.Errorf("%w: unknown meal type %q", ErrInvalidDish, meal)
	}
	if category == "" {
		category = shared.CategoryOther
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if indexFold(c.items[meal], name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	item := shared.FoodItem{Name: name, Emoji: strings.TrimSpace(emoji), Category: category, IsCustom: true}
	c.custom[meal] = append(c.custom[meal], item)
	c.items[meal] = append(c.items[meal], item)

	return c.persist(ctx)
}

// RemoveCustomDish deletes a custom dish by exact name. Built-in dishes are never removed.
func (c *Catalog) RemoveCustomDish(ctx context.Context, meal shared.MealType, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := indexOf(c.custom[meal], name)
	if i < 0 {
		return fmt.Errorf("%w: custom %s dish %q", ErrNotFound, meal, name)
	}
	c.custom[meal] = removeAt(c.custom[meal], i)

	kept := c.items[meal][:0:0]
	for _, item := range c.items[meal] {
		if item.IsCustom && item.Name == name {
			continue
		}
		kept = append(kept, item)
	}
	c.items[meal] = kept

	return c.persist(ctx)
}

func (c *Catalog) persist(ctx context.Context) error {
	if err := storage.Persist(ctx, c.kv, storage.KeyCustomDishes, c.custom); err != nil {
		c.log.Error("Failed to save custom dishes", "key", storage.KeyCustomDishes, "error", err)
		return err
	}
	return nil
}

func indexOf(items []shared.FoodItem, name string) int {
	for i, item := range items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

func indexFold(items []shared.FoodItem, name string) int {
	name = strings.TrimSpace(name)
	for i, item := range items {
		if strings.EqualFold(item.Name, name) {
			return i
		}
	}
	return -1
}

func removeAt(items []shared.FoodItem, i int) []shared.FoodItem {
	out := make([]shared.FoodItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
