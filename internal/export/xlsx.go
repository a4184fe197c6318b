package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/shared"
)

const sheetName = "Week"

// WriteXLSX writes plan as a one-sheet workbook with a row per day.
func WriteXLSX(w io.Writer, plan planner.PlanState, ref time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	// Column widths must be set before the first row is streamed.
	if err := sw.SetColWidth(1, 2, 12); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := sw.SetColWidth(3, 4, 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	header := []interface{}{
		excelize.Cell{StyleID: bold, Value: "Day"},
		excelize.Cell{StyleID: bold, Value: "Date"},
		excelize.Cell{StyleID: bold, Value: "Lunch"},
		excelize.Cell{StyleID: bold, Value: "Dinner"},
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	monday := shared.MondayOf(ref)
	for i, day := range shared.Days {
		row := []interface{}{
			day.Short(),
			shared.DateOf(monday, day).Format("2006-01-02"),
			cellText(plan.Items(day, shared.Lunch)),
			cellText(plan.Items(day, shared.Dinner)),
		}
		cellAddr, _ := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err := sw.SetRow(cellAddr, row); err != nil {
			return fmt.Errorf("failed to write %s: %w", day, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellText(items []shared.PlacedItem) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}
