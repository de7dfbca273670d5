package collaborator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Value is a scalar field from the backend rendered as text. Numbers and
// strings are both accepted; null and absent fields render as "N/A".
type Value struct {
	text  string
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler for Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{text: s, valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Value{text: n.String(), valid: true}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("unsupported value %s", data)
	}
	*v = Value{text: fmt.Sprint(b), valid: true}
	return nil
}

// String returns the text or "N/A".
func (v Value) String() string {
	if !v.valid {
		return "N/A"
	}
	return v.text
}

// Capitalized upper-cases the first letter and lower-cases the rest.
func (v Value) Capitalized() string {
	if !v.valid || v.text == "" {
		return v.String()
	}
	r, size := utf8.DecodeRuneInString(v.text)
	return string(unicode.ToUpper(r)) + strings.ToLower(v.text[size:])
}

// Patient is the backend patient document.
type Patient struct {
	Name            Value            `json:"name"`
	Age             Value            `json:"age"`
	Sex             Value            `json:"sex"`
	HeightCM        Value            `json:"height_cm"`
	WeightKG        Value            `json:"weight_kg"`
	BMI             Value            `json:"bmi"`
	HeartRate       Value            `json:"heart_rate"`
	SystolicBP      Value            `json:"systolic_bp"`
	DiastolicBP     Value            `json:"diastolic_bp"`
	ActivityLevel   Value            `json:"activity_level"`
	MealAssignments []MealAssignment `json:"meal_assignments"`
}

// MealAssignment links a patient to a meal.
type MealAssignment struct {
	Meal Value `json:"meal"`
}

// Meal is the backend meal document.
type Meal struct {
	Name Value `json:"meal_name"`
}

// Intake is the nutritional_recommendations object keyed by nutrient.
type Intake map[string]Value

var intakeLines = []struct {
	key, label, unit string
}{
	{"daily_caloric_needs", "Calories", "kcal"},
	{"protein", "Protein", "g"},
	{"carbohydrate", "Carbohydrates", "g"},
	{"fat", "Fat", "g"},
	{"total_fiber", "Total Fiber", "g"},
	{"alpha_linolenic_acid", "Alpha Linolenic Acid", "g"},
	{"linoleic_acid", "Linoleic Acid", "g"},
	{"total_water", "Total Water", "L"},
}

// ComposeQuery renders the PATIENT DETAILS, RECOMMENDED DAILY INTAKE and
// MEAL INTAKES blocks. Known intake keys come first with their units; any
// other keys follow in key order.
func ComposeQuery(p *Patient, in Intake, meals []string) string {
	var b strings.Builder

	b.WriteString("PATIENT DETAILS:\n")
	fmt.Fprintf(&b, "Patient Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Age: %s\n", p.Age)
	fmt.Fprintf(&b, "Gender: %s\n", p.Sex.Capitalized())
	fmt.Fprintf(&b, "Height: %s cm\n", p.HeightCM)
	fmt.Fprintf(&b, "Weight: %s kg\n", p.WeightKG)
	fmt.Fprintf(&b, "BMI: %s\n", p.BMI)
	fmt.Fprintf(&b, "Heart Rate: %s bpm\n", p.HeartRate)
	fmt.Fprintf(&b, "Blood Pressure: %s/%s mmHg\n", p.SystolicBP, p.DiastolicBP)
	fmt.Fprintf(&b, "Activity Level: %s\n", p.ActivityLevel.Capitalized())

	b.WriteString("\nRECOMMENDED DAILY INTAKE:\n")
	known := make(map[string]bool, len(intakeLines))
	for _, l := range intakeLines {
		known[l.key] = true
		fmt.Fprintf(&b, "%s: %s %s\n", l.label, in[l.key], l.unit)
	}
	extra := make([]string, 0)
	for k := range in {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(&b, "%s: %s\n", k, in[k])
	}

	b.WriteString("\nMEAL INTAKES:\n")
	for i, name := range meals {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Meal %d: %s", i+1, name)
	}
	return b.String()
}
