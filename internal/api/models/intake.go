package models

import (
	"github.com/nutricare/nutricare/internal/intake"
)

// IntakeCalculateRequest is the body of POST /intake/calculate.
type IntakeCalculateRequest struct {
	MenuItemID       string   `json:"menu_item_id" validate:"required,max=64"`
	ConsumedWeightG  *float64 `json:"consumed_weight_g,omitempty" validate:"omitempty,gte=0"`
	ConsumedVolumeML *float64 `json:"consumed_volume_ml,omitempty" validate:"omitempty,gte=0"`
}

// Portion returns the consumed amount.
func (r IntakeCalculateRequest) Portion() intake.Portion {
	return intake.Portion{WeightG: r.ConsumedWeightG, VolumeML: r.ConsumedVolumeML}
}

// IntakeCalculateResponse is the scaled nutrient breakdown of one portion.
type IntakeCalculateResponse struct {
	MenuItemID          string           `json:"menu_item_id"`
	MealName            string           `json:"meal_name"`
	CalculatedNutrients intake.Nutrients `json:"calculated_nutrients"`
}

// IntakeRecordRequest is the body of POST /intake/records. ConsumedAt
// defaults to now.
type IntakeRecordRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	IntakeCalculateRequest
	ConsumedAt *Timestamp `json:"consumed_at,omitempty"`
}
