package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/rules"
)

// targets with round numbers: 2000 kcal, 100 g protein minimum.
func testTargets() nutrition.Targets {
	return nutrition.Targets{
		EER: 2000,
		Macros: nutrition.Macros{
			Protein: nutrition.MacroRange{Min: 100, Max: 175},
		},
		Vitamins: map[string]float64{
			"Vitamin A (mcg RAE)": 900,
			"Vitamin C (mg)":      100,
			"Vitamin D (mcg)":     20,
		},
		Minerals: map[string]float64{"Calcium (mg)": 1000},
	}
}

// adequate returns intake that triggers nothing.
func adequate() map[string]float64 {
	return map[string]float64{
		"calories": 2000,
		"protein":  100,
	}
}

func TestEvaluate_NoFindings(t *testing.T) {
	f := rules.Evaluate(testTargets(), adequate())

	assert.Empty(t, f.Alerts)
	assert.Empty(t, f.Suggestions)
	assert.NotNil(t, f.Alerts)
}

func TestEvaluate_CalorieBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		calories float64
		alert    string
	}{
		{name: "just below low threshold", calories: 1699.8, alert: "Average daily calories intake is low (1699 kcal vs target 2000 kcal)."},
		{name: "exactly low threshold", calories: 1700},
		{name: "just above low threshold", calories: 1700.2},
		{name: "just below high threshold", calories: 2399.8},
		{name: "exactly high threshold", calories: 2400},
		{name: "just above high threshold", calories: 2400.2, alert: "Average daily intake is high."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := adequate()
			avg["calories"] = tt.calories

			f := rules.Evaluate(testTargets(), avg)
			if tt.alert == "" {
				assert.Empty(t, f.Alerts)
				return
			}
			require.Len(t, f.Alerts, 1)
			assert.Equal(t, tt.alert, f.Alerts[0])
			assert.Len(t, f.Suggestions, 1)
		})
	}
}

func TestEvaluate_ProteinBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		protein float64
		alert   bool
	}{
		{name: "just below threshold", protein: 84.99, alert: true},
		{name: "exactly threshold", protein: 85},
		{name: "just above threshold", protein: 85.01},
		{name: "far above max is not flagged", protein: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := adequate()
			avg["protein"] = tt.protein

			f := rules.Evaluate(testTargets(), avg)
			if !tt.alert {
				assert.Empty(t, f.Alerts)
				return
			}
			require.Len(t, f.Alerts, 1)
			assert.Equal(t, "Average protein is low (84g vs target 100g).", f.Alerts[0])
			assert.Equal(t, "Add extra protein at meals: 1 egg, 50g tofu, or 20g powdered milk per serving.", f.Suggestions[0])
		})
	}
}

func TestEvaluate_VitaminBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		vitaminC  float64
		wantAlert bool
	}{
		{name: "just below threshold", vitaminC: 69.99, wantAlert: true},
		{name: "exactly threshold", vitaminC: 70},
		{name: "just above threshold", vitaminC: 70.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg := adequate()
			avg["Vitamin C (mg)"] = tt.vitaminC

			f := rules.Evaluate(testTargets(), avg)
			if !tt.wantAlert {
				assert.Empty(t, f.Alerts)
				return
			}
			require.Len(t, f.Alerts, 1)
			assert.Equal(t, "Low Vitamin C (mg): 69.99 vs target 100.", f.Alerts[0])
			assert.Equal(t, "Provide fresh citrus, guava, or steamed broccoli.", f.Suggestions[0])
		})
	}
}

func TestEvaluate_OnlyVitaminsPresentInIntake(t *testing.T) {
	avg := adequate()
	avg["Vitamin A (mcg RAE)"] = 100
	avg["Calcium (mg)"] = 10

	f := rules.Evaluate(testTargets(), avg)

	require.Len(t, f.Alerts, 1)
	assert.Contains(t, f.Alerts[0], "Vitamin A (mcg RAE)")
	assert.Equal(t, "Provide "+rules.DefaultFoodSuggestion+".", f.Suggestions[0])
}

func TestEvaluate_FixedOrdering(t *testing.T) {
	avg := map[string]float64{
		"calories":            100,
		"protein":             1,
		"Vitamin D (mcg)":     1,
		"Vitamin A (mcg RAE)": 1,
		"Vitamin C (mg)":      1,
	}

	f := rules.Evaluate(testTargets(), avg)

	require.Len(t, f.Alerts, 5)
	require.Len(t, f.Suggestions, 5)
	assert.Contains(t, f.Alerts[0], "calories")
	assert.Contains(t, f.Alerts[1], "protein")
	assert.Contains(t, f.Alerts[2], "Vitamin A")
	assert.Contains(t, f.Alerts[3], "Vitamin C")
	assert.Contains(t, f.Alerts[4], "Vitamin D")
	assert.Equal(t, "Provide sunlight exposure and fortified milk or fish.", f.Suggestions[4])
}

func TestEvaluate_ZeroTargetCountsAsLow(t *testing.T) {
	targets := testTargets()
	targets.EER = 0

	f := rules.Evaluate(targets, adequate())

	require.Len(t, f.Alerts, 1)
	assert.Contains(t, f.Alerts[0], "calories intake is low")
}

func TestEvaluate_Deterministic(t *testing.T) {
	avg := map[string]float64{"calories": 10, "protein": 1, "Vitamin C (mg)": 1, "Vitamin D (mcg)": 1}

	first := rules.Evaluate(testTargets(), avg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, rules.Evaluate(testTargets(), avg))
	}
}

func TestFoodFor(t *testing.T) {
	assert.Equal(t, "tofu, small fish with bones, soy milk", rules.FoodFor("Calcium (mg)"))
	assert.Equal(t, rules.DefaultFoodSuggestion, rules.FoodFor("Folate (mcg)"))
}

func TestEvaluate_ZeroIntakeMicronutrientAlerts(t *testing.T) {
	avg := adequate()
	avg["Vitamin C (mg)"] = 0

	f := rules.Evaluate(testTargets(), avg)

	require.Len(t, f.Alerts, 1)
	assert.Equal(t, "Low Vitamin C (mg): 0 vs target 100.", f.Alerts[0])
	assert.Equal(t, "Provide fresh citrus, guava, or steamed broccoli.", f.Suggestions[0])
}
