// Package nutrition computes nutrient targets (BMI, EER, AMDR and
// micronutrient reference values) from patient attributes.
package nutrition

import (
	"math"
	"strings"
)

// Sex is the biological sex used by the energy and RDA equations.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex matches s case-insensitively against male and female.
func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToLower(s)) {
	case SexMale:
		return SexMale, nil
	case SexFemale:
		return SexFemale, nil
	default:
		return "", InvalidField("sex", "must be male or female")
	}
}

// Energy densities in kcal per gram.
const (
	kcalPerGramProtein      = 4.0
	kcalPerGramFat          = 9.0
	kcalPerGramCarbohydrate = 4.0
)

// MacroRange is a daily gram range for one macronutrient.
type MacroRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Macros holds the AMDR gram ranges.
type Macros struct {
	Protein      MacroRange `json:"protein_g"`
	Fat          MacroRange `json:"fat_g"`
	Carbohydrate MacroRange `json:"carbs_g"`
}

// BMI returns weight_kg / height_m², rounded to two decimals.
func BMI(weightKG, heightCM float64) (float64, error) {
	if heightCM <= 0 {
		return 0, InvalidField("height_cm", "must be greater than 0")
	}
	if weightKG <= 0 {
		return 0, InvalidField("weight_kg", "must be greater than 0")
	}
	heightM := heightCM / 100
	return Round2(weightKG / (heightM * heightM)), nil
}

// EER returns the estimated energy requirement in kcal/day.
func EER(age int, sex string, weightKG, heightCM, activityLevel float64) (float64, error) {
	s, err := ParseSex(sex)
	if err != nil {
		return 0, err
	}

	a := float64(age)
	if s == SexMale {
		return 662 - 9.53*a + activityLevel*(15.91*weightKG+5.396*heightCM), nil
	}
	return 354 - 6.91*a + activityLevel*(9.36*weightKG+7.26*heightCM), nil
}

// AMDR derives macronutrient gram ranges from an energy requirement.
func AMDR(eer float64) Macros {
	return Macros{
		Protein:      gramRange(eer, 0.10, 0.35, kcalPerGramProtein),
		Fat:          gramRange(eer, 0.20, 0.35, kcalPerGramFat),
		Carbohydrate: gramRange(eer, 0.45, 0.65, kcalPerGramCarbohydrate),
	}
}

func gramRange(eer, lowShare, highShare, kcalPerGram float64) MacroRange {
	return MacroRange{
		Min: Round2(eer * lowShare / kcalPerGram),
		Max: Round2(eer * highShare / kcalPerGram),
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
