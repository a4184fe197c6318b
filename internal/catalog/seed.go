package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"weekly-meal-planner/internal/shared"
)

// Seed is the built-in dish list per meal type.
type Seed map[shared.MealType][]shared.FoodItem

func dish(name, emoji string, category shared.Category) shared.FoodItem {
	return shared.FoodItem{Name: name, Emoji: emoji, Category: category}
}

// DefaultSeed returns the dishes the planner ships with.
func DefaultSeed() Seed {
	return Seed{
		shared.Lunch: {
			dish("Rigatoni", "🍝", shared.CategoryPasta),
			dish("Cheesy Rigatoni", "🧀", shared.CategoryPasta),
			dish("Chicken Pasta and Broccoli", "🥦", shared.CategoryPasta),
			dish("Chicken Rice", "🍗", shared.CategoryRice),
			dish("Soy Chicken and Chye Sim", "🥬", shared.CategoryRice),
			dish("Chicken and Mushroom Rice", "🍄", shared.CategoryRice),
			dish("Crispy Noodle", "🍜", shared.CategoryNoodles),
			dish("Bee Hoon", "🍜", shared.CategoryNoodles),
			dish("Bee Hoon and Seaweed Chicken", "🌿", shared.CategoryNoodles),
			dish("Mee Sua Soup", "🍜", shared.CategoryNoodles),
			dish("Kway Teow Soup", "🍲", shared.CategoryNoodles),
			dish("Porridge", "🥣", shared.CategoryRice),
			dish("Fish Ball Noodle", "🍜", shared.CategoryNoodles),
			dish("Fried Rice", "🍚", shared.CategoryRice),
		},
		shared.Dinner: {
			dish("Rice", "🍚", shared.CategoryRice),
			dish("Kai Lan", "🥬", shared.CategoryVegetables),
			dish("Baby Spinach", "🥬", shared.CategoryVegetables),
			dish("Red Spinach", "🥬", shared.CategoryVegetables),
			dish("Kang Kong", "🥬", shared.CategoryVegetables),
			dish("Cabbage", "🥬", shared.CategoryVegetables),
			dish("WaWa Vegetable", "🥬", shared.CategoryVegetables),
			dish("Broccoli", "🥦", shared.CategoryVegetables),
			dish("Baby Kailan", "🥬", shared.CategoryVegetables),
			dish("Kailan", "🥬", shared.CategoryVegetables),
			dish("Sliced Fish with Ginger", "🐟", shared.CategoryFish),
			dish("Claypot Sliced Fish with Eggplant", "🍆", shared.CategoryFish),
			dish("Fried Seabass", "🐟", shared.CategoryFish),
			dish("Fried Salmon", "🍣", shared.CategoryFish),
			dish("Steam Fish Pomfret", "🐟", shared.CategoryFish),
			dish("Steam Fish White Pomfret", "🐟", shared.CategoryFish),
			dish("Fish and Fish Soup", "🍲", shared.CategoryFish),
			dish("Steam Fish (Ginger/Spring Onion)", "🐟", shared.CategoryFish),
			dish("Egg with Onion", "🥚", shared.CategoryEggs),
			dish("Egg with Carrot", "🥕", shared.CategoryEggs),
			dish("Egg with Tomato", "🍅", shared.CategoryEggs),
			dish("Claypot Tofu", "🧈", shared.CategoryEggs),
			dish("Corn Soup", "🌽", shared.CategoryEggs),
			dish("Steamed Chicken with Mushrooms", "🍄", shared.CategoryChicken),
			dish("Chicken with Salted Bean Paste", "🍗", shared.CategoryChicken),
			dish("Curry Chicken", "🍛", shared.CategoryChicken),
			dish("Fried Chicken Wing", "🍗", shared.CategoryChicken),
			dish("Steamed Minced Pork", "🥩", shared.CategoryPork),
			dish("Sliced Pork with Parsley", "🥩", shared.CategoryPork),
			dish("Sliced Pork with Sichuan Veg", "🌶️", shared.CategoryPork),
			dish("Pork with Egg and Tau Pok", "🥚", shared.CategoryPork),
			dish("Japanese Pork Cutlet", "🍖", shared.CategoryPork),
			dish("Pork Rib Soup", "🍲", shared.CategoryPork),
			dish("Crispy Prawn Ball", "🦐", shared.CategoryPrawn),
			dish("Prawn with Glass Noodle", "🦐", shared.CategoryPrawn),
			dish("Cheesy Rigatoni", "🧀", shared.CategoryPasta),
		},
	}
}

// LoadSeedCSV reads a seed file with the header meal,name,emoji,category.
func LoadSeedCSV(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	return ParseSeedCSV(f)
}

// ParseSeedCSV parses seed rows. Rows for unknown meal types are rejected.
func ParseSeedCSV(r io.Reader) (Seed, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	expected := []string{"meal", "name", "emoji", "category"}
	if len(header) != len(expected) {
		return nil, fmt.Errorf("invalid header format: expected %v, got %v", expected, header)
	}
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) != expected[i] {
			return nil, fmt.Errorf("invalid header format: expected %v, got %v", expected, header)
		}
	}

	seed := Seed{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}

		meal, ok := shared.ParseMealType(record[0])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown meal type %q", line, record[0])
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			return nil, fmt.Errorf("line %d: dish name is empty", line)
		}

		seed[meal] = append(seed[meal], dish(name, strings.TrimSpace(record[2]), shared.ParseCategory(record[3])))
	}

	return seed, nil
}
