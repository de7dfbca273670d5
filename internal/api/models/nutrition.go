package models

import (
	"github.com/nutricare/nutricare/internal/nutrition"
)

// DRIRequest is the body of POST /dri.
type DRIRequest struct {
	Sex           string   `json:"sex" validate:"required,sex"`
	Age           *int     `json:"age" validate:"required,gte=0,lte=130"`
	HeightCM      *float64 `json:"height_cm" validate:"required,gt=0,lte=300"`
	WeightKG      *float64 `json:"weight_kg" validate:"required,gt=0,lte=500"`
	ActivityLevel *float64 `json:"activity_level" validate:"required,gt=0,lte=3"`
}

// Profile converts the request to calculator input. Call after validation.
func (r DRIRequest) Profile() nutrition.Profile {
	p := nutrition.Profile{Sex: r.Sex}
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.HeightCM != nil {
		p.HeightCM = *r.HeightCM
	}
	if r.WeightKG != nil {
		p.WeightKG = *r.WeightKG
	}
	if r.ActivityLevel != nil {
		p.ActivityLevel = *r.ActivityLevel
	}
	return p
}

// MealInput describes a consumed meal.
type MealInput struct {
	MealName        string   `json:"meal_name" validate:"required,max=200"`
	ConsumedWeightG *float64 `json:"consumed_weight_g,omitempty" validate:"omitempty,gte=0"`
}

// GenerateRecommendationRequest is the body of POST /recommendations/generate.
type GenerateRecommendationRequest struct {
	DRIRequest
	Meal *MealInput `json:"meal" validate:"required"`
}

// GenerateRecommendationResponse pairs the computed targets with the
// recommendation text returned over the channel.
type GenerateRecommendationResponse struct {
	DRIResults     nutrition.Targets `json:"dri_results"`
	Recommendation string            `json:"recommendation"`
}
