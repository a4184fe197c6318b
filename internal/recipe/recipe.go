package recipe

import (
	"context"
	"errors"
	"sort"
	"strings"

	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/storage"
)

// ErrNotFound is returned when a dish has no recipe.
var ErrNotFound = errors.New("recipe not found")

// Book maps dish names to recipe text. Recipes are shared by lunch and dinner.
type Book struct {
	kv  storage.KeyValueStore
	log *logger.Logger
}

// NewBook creates a recipe book backed by kv.
func NewBook(kv storage.KeyValueStore, log *logger.Logger) *Book {
	return &Book{kv: kv, log: log.WithComponent("recipes")}
}

// All returns every stored recipe. Unreadable data reads as empty.
func (b *Book) All(ctx context.Context) (map[string]string, error) {
	recipes := map[string]string{}
	if _, err := storage.GetJSON(ctx, b.kv, storage.KeyRecipes, &recipes); err != nil {
		b.log.Warn("Failed to load recipes", "key", storage.KeyRecipes, "error", err)
		return map[string]string{}, nil
	}
	return recipes, nil
}

// Dishes returns the names of dishes with a recipe, sorted.
func (b *Book) Dishes(ctx context.Context) ([]string, error) {
	recipes, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(recipes))
	for name := range recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the recipe of dish.
func (b *Book) Get(ctx context.Context, dish string) (string, error) {
	recipes, err := b.All(ctx)
	if err != nil {
		return "", err
	}
	text, ok := recipes[dish]
	if !ok {
		return "", ErrNotFound
	}
	return text, nil
}

// Set stores the recipe of dish. Blank text removes it.
func (b *Book) Set(ctx context.Context, dish, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return b.Delete(ctx, dish)
	}
	recipes, err := b.All(ctx)
	if err != nil {
		return err
	}
	recipes[dish] = text
	return b.persist(ctx, recipes)
}

// Delete removes the recipe of dish. Missing recipes are ignored.
func (b *Book) Delete(ctx context.Context, dish string) error {
	recipes, err := b.All(ctx)
	if err != nil {
		return err
	}
	if _, ok := recipes[dish]; !ok {
		return nil
	}
	delete(recipes, dish)
	return b.persist(ctx, recipes)
}

func (b *Book) persist(ctx context.Context, recipes map[string]string) error {
	if err := storage.Persist(ctx, b.kv, storage.KeyRecipes, recipes); err != nil {
		b.log.Error("Failed to save recipes", "key", storage.KeyRecipes, "error", err)
		return err
	}
	return nil
}
