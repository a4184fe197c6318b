package shared

import "strings"

// MealType identifies which of the two daily meals a slot belongs to.
type MealType string

const (
	Lunch  MealType = "lunch"
	Dinner MealType = "dinner"
)

// MealTypes lists every meal type in display order.
var MealTypes = []MealType{Lunch, Dinner}

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	return m == Lunch || m == Dinner
}

// ParseMealType normalizes user input such as "Dinner" into a MealType.
func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Day is a weekday. Weeks always start on Monday.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days is the fixed Monday-first order of a planning week.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether d is one of the seven weekdays.
func (d Day) Valid() bool {
	return d.Index() >= 0
}

// Index returns the Monday-based position of d, or -1 for an unknown day.
func (d Day) Index() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return -1
}

// Short returns the three letter label used in summaries ("Mon").
func (d Day) Short() string {
	if !d.Valid() {
		return string(d)
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:3]
}

// ParseDay accepts full names and three letter prefixes in any case.
func ParseDay(s string) (Day, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return "", false
	}
	for _, d := range Days {
		if strings.HasPrefix(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// Category groups dishes for filtering and for the dinner composition rules.
type Category string

const (
	CategoryNoodles    Category = "noodles"
	CategoryRice       Category = "rice"
	CategoryVegetables Category = "vegetables"
	CategoryChicken    Category = "chicken"
	CategoryFish       Category = "fish"
	CategoryPork       Category = "pork"
	CategoryEggs       Category = "eggs"
	CategoryPrawn      Category = "prawn"
	CategorySoup       Category = "soup"
	CategoryPasta      Category = "pasta"
	CategoryOther      Category = "other"
)

// ProteinCategories are the categories that satisfy a dinner's protein dish.
var ProteinCategories = []Category{CategoryChicken, CategoryFish, CategoryPork, CategoryEggs, CategoryPrawn}

// IsProtein reports whether c is one of ProteinCategories.
func (c Category) IsProtein() bool {
	for _, p := range ProteinCategories {
		if c == p {
			return true
		}
	}
	return false
}

// ParseCategory lowercases s; blank input maps to CategoryOther. The set is open,
// so unknown categories are kept as given.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther
	}
	return Category(s)
}

// FoodItem is a selectable dish in a meal type's catalog.
type FoodItem struct {
	Name     string   `json:"name"`
	Emoji    string   `json:"emoji"`
	Category Category `json:"category"`
	IsCustom bool     `json:"isCustom,omitempty"`
}

// PlacedItem is a FoodItem placed on a day slot.
type PlacedItem struct {
	FoodItem
	Locked bool `json:"locked"`
}

// Place wraps a catalog item as an unlocked PlacedItem.
func Place(item FoodItem) PlacedItem {
	return PlacedItem{FoodItem: item}
}
