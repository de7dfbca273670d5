// Package rules compares nutrient targets with average daily intake and
// produces caregiver alerts and suggestions.
package rules

import (
	"fmt"
	"strconv"

	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/nutrition"
)

// Thresholds on intake/target ratios. All comparisons are strict.
const (
	CaloriesLowRatio  = 0.85
	CaloriesHighRatio = 1.20
	ProteinLowRatio   = 0.85
	VitaminLowRatio   = 0.70
)

// DefaultFoodSuggestion is offered for vitamins without a specific food.
const DefaultFoodSuggestion = "berries, leafy greens, legumes"

var foodSuggestions = map[string]string{
	"Vitamin C (mg)":  "fresh citrus, guava, or steamed broccoli",
	"Calcium (mg)":    "tofu, small fish with bones, soy milk",
	"Vitamin D (mcg)": "sunlight exposure and fortified milk or fish",
}

// FoodFor returns the suggested foods for a nutrient label.
func FoodFor(label string) string {
	if food, ok := foodSuggestions[label]; ok {
		return food
	}
	return DefaultFoodSuggestion
}

// Findings are the alerts and suggestions raised by an evaluation, in the
// order they were triggered. Entries are never sorted or deduplicated.
type Findings struct {
	Alerts      []string `json:"alerts"`
	Suggestions []string `json:"suggestions"`
}

func (f *Findings) add(alert, suggestion string) {
	f.Alerts = append(f.Alerts, alert)
	f.Suggestions = append(f.Suggestions, suggestion)
}

// Evaluate checks calories, then protein, then each vitamin present in both
// targets and intake.
func Evaluate(targets nutrition.Targets, avg map[string]float64) Findings {
	f := Findings{Alerts: []string{}, Suggestions: []string{}}

	calTarget := targets.CalorieTarget()
	calIntake := avg[intake.KeyCalories]
	switch r := ratio(calIntake, calTarget); {
	case r < CaloriesLowRatio:
		f.add(
			fmt.Sprintf("Average daily calories intake is low (%d kcal vs target %d kcal).", int(calIntake), int(calTarget)),
			"Offer high-calorie nutrient-dense snacks (e.g., milk, soy-sauce braised tofu, peanut paste).",
		)
	case r > CaloriesHighRatio:
		f.add(
			"Average daily intake is high.",
			"Consider reducing high-fat snacks or portion sizes.",
		)
	}

	protTarget := targets.ProteinTarget()
	protIntake := avg[intake.KeyProtein]
	if ratio(protIntake, protTarget) < ProteinLowRatio {
		f.add(
			fmt.Sprintf("Average protein is low (%dg vs target %dg).", int(protIntake), int(protTarget)),
			"Add extra protein at meals: 1 egg, 50g tofu, or 20g powdered milk per serving.",
		)
	}

	for _, label := range nutrition.OrderedKeys(targets.Vitamins, nutrition.VitaminLabels) {
		got, ok := avg[label]
		if !ok {
			continue
		}
		want := targets.Vitamins[label]
		if ratio(got, want) < VitaminLowRatio {
			f.add(
				fmt.Sprintf("Low %s: %s vs target %s.", label, formatAmount(got), formatAmount(want)),
				fmt.Sprintf("Provide %s.", FoodFor(label)),
			)
		}
	}

	return f
}

func ratio(intake, target float64) float64 {
	if target == 0 {
		return 0
	}
	return intake / target
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(nutrition.Round2(v), 'f', -1, 64)
}
