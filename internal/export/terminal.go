package export

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/shared"
)

var (
	dayStyle    = lipgloss.NewStyle().Bold(true).Width(5).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cellStyle   = lipgloss.NewStyle().Width(36).PaddingRight(2)
	emptyStyle  = cellStyle.Foreground(lipgloss.Color("241"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// RenderTerminal renders plan as a bordered week grid. Locked dishes are marked with 🔒.
func RenderTerminal(plan planner.PlanState) string {
	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			dayStyle.Render(""),
			cellStyle.Inherit(headerStyle).Render("☀️ Lunch"),
			cellStyle.Inherit(headerStyle).Render("🌙 Dinner"),
		),
	}

	for _, day := range shared.Days {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			dayStyle.Render(day.Short()),
			renderCell(plan.Items(day, shared.Lunch)),
			renderCell(plan.Items(day, shared.Dinner)),
		))
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderCell(items []shared.PlacedItem) string {
	if len(items) == 0 {
		return emptyStyle.Render(notPlanned)
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = label(item.FoodItem)
		if item.Locked {
			lines[i] += " 🔒"
		}
	}
	return cellStyle.Render(strings.Join(lines, "\n"))
}
