package app

import (
	"context"
	"errors"
	"fmt"

	"weekly-meal-planner/internal/recipe"
	"weekly-meal-planner/internal/shared"
)

// Recipe returns the recipe of dish.
func (a *App) Recipe(ctx context.Context, dish string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recipes.Get(ctx, dish)
}

// RecipeDishes lists the dishes that have a recipe.
func (a *App) RecipeDishes(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recipes.Dishes(ctx)
}

// SetRecipe stores the recipe of dish. Blank text removes it.
func (a *App) SetRecipe(ctx context.Context, dish, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recipes.Set(ctx, dish, text)
}

// DeleteRecipe removes the recipe of dish.
func (a *App) DeleteRecipe(ctx context.Context, dish string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recipes.Delete(ctx, dish)
}

// DraftRecipe returns the stored recipe of dish, asking the LLM to write and
// store one when there is none.
func (a *App) DraftRecipe(ctx context.Context, meal shared.MealType, dish string) (string, error) {
	if a.drafter == nil {
		return "", fmt.Errorf("%w: no LLM provider", ErrUnavailable)
	}

	a.mu.Lock()
	text, err := a.recipes.Get(ctx, dish)
	item, _ := a.catalog.Find(meal, dish)
	a.mu.Unlock()
	if err == nil {
		return text, nil
	}
	if !errors.Is(err, recipe.ErrNotFound) {
		return "", err
	}

	// The LLM call runs outside the turn lock so the plan stays usable.
	text, err = a.draft(ctx, recipe.DraftRequest{Name: dish, Category: item.Category})
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return text, a.recipes.Set(ctx, dish, text)
}

// ClipRecipe fetches a recipe page and stores it as the recipe of dish. Pages
// without ingredient or step lists are summarised by the LLM when one is configured.
func (a *App) ClipRecipe(ctx context.Context, dish, url string) (string, error) {
	if a.clipper == nil {
		return "", fmt.Errorf("%w: no recipe clipper", ErrUnavailable)
	}

	page, err := a.clipper.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text := page.RecipeText()
	if len(page.Ingredients) == 0 && len(page.Steps) == 0 && a.drafter != nil {
		drafted, err := a.draft(ctx, recipe.DraftRequest{Name: dish, Notes: page.Text})
		if err != nil {
			a.log.Warn("Recipe summary failed, storing page text", "dish", dish, "error", err)
		} else {
			text = drafted + "\n\nSource: " + url
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return text, a.recipes.Set(ctx, dish, text)
}

func (a *App) draft(ctx context.Context, req recipe.DraftRequest) (string, error) {
	text, meta, err := a.drafter.Draft(ctx, req)
	if a.metrics != nil {
		if mErr := a.metrics.RecordMeta(ctx, meta); mErr != nil {
			a.log.Warn("Failed to record metrics", "agent", meta.AgentName, "error", mErr)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to draft recipe for %q: %w", req.Name, err)
	}
	return text, nil
}
