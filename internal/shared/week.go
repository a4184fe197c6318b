package shared

import "time"

// MondayOf returns midnight of the Monday starting the week that contains t.
func MondayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// NextMonday returns midnight of the first Monday strictly after t's date.
// On a Monday it rolls a full week forward.
func NextMonday(t time.Time) time.Time {
	return MondayOf(t).AddDate(0, 0, 7)
}

// DateOf returns the calendar date of day in the week starting at monday.
func DateOf(monday time.Time, day Day) time.Time {
	return monday.AddDate(0, 0, day.Index())
}
