package recommendation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nutricare/nutricare/internal/nutrition"
)

// Meal is a single meal described by name and consumed weight.
type Meal struct {
	Name            string   `json:"meal_name"`
	ConsumedWeightG *float64 `json:"consumed_weight_g,omitempty"`
}

// MealQuestion composes the channel question for one meal: the patient data,
// the computed targets and the meal description.
func MealQuestion(p nutrition.Profile, meal Meal, t nutrition.Targets) (string, error) {
	data, err := json.Marshal(struct {
		nutrition.Profile
		Meal Meal `json:"meal"`
	}{p, meal})
	if err != nil {
		return "", fmt.Errorf("encode patient data: %w", err)
	}
	dri, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode targets: %w", err)
	}

	weight := "unknown"
	if meal.ConsumedWeightG != nil {
		weight = strconv.FormatFloat(*meal.ConsumedWeightG, 'f', -1, 64)
	}

	return fmt.Sprintf(
		"This is the patient's data: %s. Here is the patient's calculated DRIs: %s. "+
			"This is the patient's meal data: Meal name: %s, Consumed weight (g): %s.",
		data, dri, meal.Name, weight,
	), nil
}

// ContextQuestion renders a generation context as the question answered by
// the retrieval pipeline.
func ContextQuestion(gc GenerationContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PATIENT: %s, age %d, %s\n", orNA(gc.User.Name), gc.User.Age, orNA(gc.User.Sex))
	fmt.Fprintf(&b, "PERIOD: %s (%s to %s)\n\n", gc.Period, gc.DateRange.Start, gc.DateRange.End)

	b.WriteString("DAILY TARGETS:\n")
	fmt.Fprintf(&b, "Calories: %s kcal\n", num(gc.Targets.Calories))
	fmt.Fprintf(&b, "Protein: %s-%s g\n", num(gc.Targets.Macros.Protein.Min), num(gc.Targets.Macros.Protein.Max))
	fmt.Fprintf(&b, "Fat: %s-%s g\n", num(gc.Targets.Macros.Fat.Min), num(gc.Targets.Macros.Fat.Max))
	fmt.Fprintf(&b, "Carbohydrates: %s-%s g\n", num(gc.Targets.Macros.Carbohydrate.Min), num(gc.Targets.Macros.Carbohydrate.Max))
	for _, k := range nutrition.OrderedKeys(gc.Targets.Vitamins, nutrition.VitaminLabels) {
		fmt.Fprintf(&b, "%s: %s\n", k, num(gc.Targets.Vitamins[k]))
	}
	for _, k := range nutrition.OrderedKeys(gc.Targets.Minerals, nutrition.MineralLabels) {
		fmt.Fprintf(&b, "%s: %s\n", k, num(gc.Targets.Minerals[k]))
	}

	b.WriteString("\nAVERAGE DAILY INTAKE:\n")
	if len(gc.IntakeAvg) == 0 {
		b.WriteString("No meals logged\n")
	}
	keys := make([]string, 0, len(gc.IntakeAvg))
	for k := range gc.IntakeAvg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, num(gc.IntakeAvg[k]))
	}

	b.WriteString("\nRULE-BASED ALERTS:\n")
	writeList(&b, gc.RuleCandidates.Alerts)
	b.WriteString("\nRULE-BASED SUGGESTIONS:\n")
	writeList(&b, gc.RuleCandidates.Suggestions)

	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
