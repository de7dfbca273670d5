package nutrition

// Profile holds the five scalar patient inputs a target calculation uses.
type Profile struct {
	Sex           string  `json:"sex"`
	Age           int     `json:"age"`
	HeightCM      float64 `json:"height_cm"`
	WeightKG      float64 `json:"weight_kg"`
	ActivityLevel float64 `json:"activity_level"`
}

// Validate checks the profile ranges.
func (p Profile) Validate() error {
	if _, err := ParseSex(p.Sex); err != nil {
		return err
	}
	if p.Age < 0 {
		return InvalidField("age", "must be 0 or greater")
	}
	if p.HeightCM <= 0 {
		return InvalidField("height_cm", "must be greater than 0")
	}
	if p.WeightKG <= 0 {
		return InvalidField("weight_kg", "must be greater than 0")
	}
	if p.ActivityLevel <= 0 {
		return InvalidField("activity_level", "must be greater than 0")
	}
	return nil
}

// Targets is the full set of daily nutrient targets for a profile. Macro
// ranges are flattened into the JSON object as protein_g, fat_g and carbs_g.
type Targets struct {
	BMI float64 `json:"bmi"`
	EER float64 `json:"eer"`
	Macros
	Vitamins map[string]float64 `json:"vitamins"`
	Minerals map[string]float64 `json:"minerals"`
}

// CalorieTarget is the daily energy target in kcal.
func (t Targets) CalorieTarget() float64 {
	return t.EER
}

// ProteinTarget is the lower bound of the protein AMDR in grams.
func (t Targets) ProteinTarget() float64 {
	return t.Macros.Protein.Min
}

// Compute derives targets from a profile. Nothing is cached; every call
// recomputes from the inputs.
func Compute(p Profile) (Targets, error) {
	if err := p.Validate(); err != nil {
		return Targets{}, err
	}

	bmi, err := BMI(p.WeightKG, p.HeightCM)
	if err != nil {
		return Targets{}, err
	}
	eer, err := EER(p.Age, p.Sex, p.WeightKG, p.HeightCM, p.ActivityLevel)
	if err != nil {
		return Targets{}, err
	}
	vitamins, minerals, err := MicronutrientRDA(p.Age, p.Sex)
	if err != nil {
		return Targets{}, err
	}

	return Targets{
		BMI:      bmi,
		EER:      eer,
		Macros:   AMDR(eer),
		Vitamins: vitamins,
		Minerals: minerals,
	}, nil
}
