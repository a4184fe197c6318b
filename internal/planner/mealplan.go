package planner

import "weekly-meal-planner/internal/shared"

// DayMap holds the ordered placed items of each day. An absent day is an empty list.
type DayMap map[shared.Day][]shared.PlacedItem

// Clone returns a deep copy that shares no slices with d.
func (d DayMap) Clone() DayMap {
	out := make(DayMap, len(d))
	for day, items := range d {
		if len(items) == 0 {
			continue
		}
		out[day] = append([]shared.PlacedItem(nil), items...)
	}
	return out
}

// Count returns the number of placed items across the week.
func (d DayMap) Count() int {
	n := 0
	for _, items := range d {
		n += len(items)
	}
	return n
}

// sanitize drops unknown days and empty lists.
func (d DayMap) sanitize() DayMap {
	out := make(DayMap, len(d))
	for day, items := range d {
		if day.Valid() && len(items) > 0 {
			out[day] = items
		}
	}
	return out
}

// PlanState is the current week's plan for both meal types.
type PlanState struct {
	Lunch  DayMap `json:"lunch"`
	Dinner DayMap `json:"dinner"`
}

// NewPlanState returns an empty plan.
func NewPlanState() PlanState {
	return PlanState{Lunch: DayMap{}, Dinner: DayMap{}}
}

// Meal returns the day map for meal. Unknown meal types read as empty.
func (p PlanState) Meal(meal shared.MealType) DayMap {
	switch meal {
	case shared.Lunch:
		return p.Lunch
	case shared.Dinner:
		return p.Dinner
	}
	return nil
}

func (p *PlanState) setMeal(meal shared.MealType, d DayMap) {
	switch meal {
	case shared.Lunch:
		p.Lunch = d
	case shared.Dinner:
		p.Dinner = d
	}
}

// Items returns the list of one day slot. The slice must not be modified.
func (p PlanState) Items(day shared.Day, meal shared.MealType) []shared.PlacedItem {
	return p.Meal(meal)[day]
}

// Clone returns a deep, independent copy.
func (p PlanState) Clone() PlanState {
	return PlanState{Lunch: p.Lunch.Clone(), Dinner: p.Dinner.Clone()}
}

// IsEmpty reports whether nothing is planned for either meal.
func (p PlanState) IsEmpty() bool {
	return p.Lunch.Count() == 0 && p.Dinner.Count() == 0
}

// Capacities is the per-day item limit of each meal type.
type Capacities map[shared.MealType]int

// DefaultCapacities is one lunch dish and up to four dinner dishes a day.
func DefaultCapacities() Capacities {
	return Capacities{shared.Lunch: 1, shared.Dinner: 4}
}

// Of returns the capacity of meal, zero for unknown meal types.
func (c Capacities) Of(meal shared.MealType) int {
	return c[meal]
}
