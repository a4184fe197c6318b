package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/logger"
	"weekly-meal-planner/internal/shared"
	"weekly-meal-planner/internal/storage"
)

// mockTextGenerator is a mock implementation of llm.TextGenerator for testing.
type mockTextGenerator struct {
	response    string
	shouldError bool
	lastPrompt  string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.lastPrompt = prompt
	if m.shouldError {
		return llm.ContentResponse{}, errors.New("LLM error")
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 50, CompletionTokens: 20, Model: "mock"},
	}, nil
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	b := NewBook(storage.NewMemoryStore(), logger.Nop())

	if _, err := b.Get(ctx, "Laksa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := b.Set(ctx, "Laksa", "  Boil noodles.\n"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := b.Set(ctx, "Chicken Rice", "Poach chicken."); err != nil {
		t.Fatal(err)
	}

	text, err := b.Get(ctx, "Laksa")
	if err != nil || text != "Boil noodles." {
		t.Errorf("Get = %q, %v", text, err)
	}

	dishes, _ := b.Dishes(ctx)
	if strings.Join(dishes, ",") != "Chicken Rice,Laksa" {
		t.Errorf("Unexpected dishes %v", dishes)
	}

	t.Run("BlankRemoves", func(t *testing.T) {
		if err := b.Set(ctx, "Laksa", "   "); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Get(ctx, "Laksa"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected recipe removed, got %v", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		if err := b.Delete(ctx, "Nothing"); err != nil {
			t.Errorf("Delete of a missing recipe failed: %v", err)
		}
	})
}

func TestDrafter(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock := &mockTextGenerator{response: "```text\nIngredients:\n- 200g noodles\n```"}
		d := NewDrafter(mock)

		text, meta, err := d.Draft(ctx, DraftRequest{Name: "Laksa", Category: shared.CategoryNoodles, Notes: "spicy"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if text != "Ingredients:\n- 200g noodles" {
			t.Errorf("Unexpected recipe %q", text)
		}
		if meta.AgentName != "RecipeDrafter" || meta.Usage.PromptTokens != 50 {
			t.Errorf("Unexpected meta %+v", meta)
		}
		for _, want := range []string{"Dish: Laksa", "Category: noodles", "spicy"} {
			if !strings.Contains(mock.lastPrompt, want) {
				t.Errorf("Prompt missing %q", want)
			}
		}
	})

	t.Run("LLMError", func(t *testing.T) {
		d := NewDrafter(&mockTextGenerator{shouldError: true})
		if _, _, err := d.Draft(ctx, DraftRequest{Name: "Laksa"}); err == nil {
			t.Fatal("Expected an error")
		}
	})

	t.Run("EmptyResponse", func(t *testing.T) {
		d := NewDrafter(&mockTextGenerator{response: "  "})
		_, meta, err := d.Draft(ctx, DraftRequest{Name: "Laksa"})
		if err == nil {
			t.Fatal("Expected an error for an empty recipe")
		}
		if meta.Usage.CompletionTokens != 20 {
			t.Error("Usage should be reported even when the response is unusable")
		}
	})
}
