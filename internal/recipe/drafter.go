package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/shared"
)

//go:embed drafter_prompt.md
var drafterPrompt string

var drafterTmpl = template.Must(template.New("drafter").Parse(drafterPrompt))

const drafterAgent = "RecipeDrafter"

// DraftRequest describes the dish to write a recipe for.
type DraftRequest struct {
	Name     string
	Category shared.Category
	Notes    string // free text, e.g. a clipped web page
}

// Drafter writes short recipes with an LLM.
type Drafter struct {
	textGen llm.TextGenerator
}

// NewDrafter creates a drafter.
func NewDrafter(textGen llm.TextGenerator) *Drafter {
	return &Drafter{textGen: textGen}
}

// Draft asks the model for a recipe. The returned meta carries token usage
// even when the response is unusable.
func (d *Drafter) Draft(ctx context.Context, req DraftRequest) (string, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: drafterAgent}

	prompt, err := buildDrafterPrompt(req)
	if err != nil {
		return "", meta, err
	}

	resp, err := d.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)

	text := cleanResponse(resp.Content)
	if text == "" {
		return "", meta, fmt.Errorf("LLM returned an empty recipe for %q", req.Name)
	}
	return text, meta, nil
}

func buildDrafterPrompt(req DraftRequest) (string, error) {
	if req.Category == "" {
		req.Category = shared.CategoryOther
	}
	var buf bytes.Buffer
	if err := drafterTmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to build drafter prompt: %w", err)
	}
	return buf.String(), nil
}

// cleanResponse strips code fences some models add despite instructions.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
