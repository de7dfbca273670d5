package nutrition

import "sort"

// Vitamin and mineral labels, in reporting order.
var (
	VitaminLabels = []string{
		"Vitamin A (mcg RAE)",
		"Vitamin C (mg)",
		"Vitamin D (mcg)",
		"Vitamin E (mg)",
		"Vitamin K (mcg)",
		"Vitamin B12 (mcg)",
		"Folate (mcg)",
	}
	MineralLabels = []string{
		"Calcium (mg)",
		"Iron (mg)",
		"Magnesium (mg)",
		"Potassium (mg)",
		"Zinc (mg)",
		"Sodium (mg)",
	}
)

// MicronutrientRDA returns the vitamin and mineral reference values for an
// adult of the given age and sex.
func MicronutrientRDA(age int, sex string) (vitamins, minerals map[string]float64, err error) {
	s, err := ParseSex(sex)
	if err != nil {
		return nil, nil, err
	}
	male := s == SexMale

	vitamins = map[string]float64{
		"Vitamin A (mcg RAE)": bySex(male, 900, 700),
		"Vitamin C (mg)":      bySex(male, 90, 75),
		"Vitamin D (mcg)":     20,
		"Vitamin E (mg)":      15,
		"Vitamin K (mcg)":     bySex(male, 120, 90),
		"Vitamin B12 (mcg)":   2.4,
		"Folate (mcg)":        400,
	}

	calcium := 1000.0
	if age >= 70 {
		calcium = 1200
	}
	minerals = map[string]float64{
		"Calcium (mg)":   calcium,
		"Iron (mg)":      bySex(male, 8, 18),
		"Magnesium (mg)": bySex(male, 420, 320),
		"Potassium (mg)": bySex(male, 3400, 2600),
		"Zinc (mg)":      bySex(male, 11, 8),
		"Sodium (mg)":    1500,
	}
	return vitamins, minerals, nil
}

func bySex(male bool, m, f float64) float64 {
	if male {
		return m
	}
	return f
}

// OrderedKeys returns the keys of m with known labels first, in the order of
// labels, followed by any remaining keys sorted alphabetically.
func OrderedKeys(m map[string]float64, labels []string) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if _, ok := m[l]; ok {
			keys = append(keys, l)
			seen[l] = true
		}
	}

	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
