package export

import (
	"strings"
	"time"

	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/shared"
)

const (
	// Title heads the summary and names shared posts.
	Title = "📅 Weekly Menus"

	separatorWidth = 30
	defaultEmoji   = "🍽️"
	notPlanned     = "(not planned)"
	footer         = "🍽️ Made with Weekly Meal Planner"
	dateLayout     = "02 Jan 06"
)

// Summary renders the share text of plan for the week containing ref. It
// reports false when nothing is planned.
func Summary(plan planner.PlanState, ref time.Time) (string, bool) {
	if plan.IsEmpty() {
		return "", false
	}

	monday := shared.MondayOf(ref)
	separator := strings.Repeat("═", separatorWidth)

	var sb strings.Builder
	sb.WriteString(Title + "\n")
	sb.WriteString(monday.Format(dateLayout) + " - " + shared.DateOf(monday, shared.Sunday).Format(dateLayout) + "\n")
	sb.WriteString(separator + "\n\n")

	for _, day := range shared.Days {
		sb.WriteString("📆 " + day.Short() + " (" + shared.DateOf(monday, day).Format(dateLayout) + ")\n")
		sb.WriteString("  ☀️ Lunch: " + dishList(plan.Items(day, shared.Lunch)) + "\n")
		sb.WriteString("  🌙 Dinner: " + dishList(plan.Items(day, shared.Dinner)) + "\n")
		sb.WriteString("\n")
	}

	sb.WriteString(separator + "\n")
	sb.WriteString(footer)
	return sb.String(), true
}

func dishList(items []shared.PlacedItem) string {
	if len(items) == 0 {
		return notPlanned
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = label(item.FoodItem)
	}
	return strings.Join(parts, ", ")
}

func label(item shared.FoodItem) string {
	emoji := item.Emoji
	if emoji == "" {
		emoji = defaultEmoji
	}
	return emoji + " " + item.Name
}
