// Package intake scales menu nutrients to consumed portions, stores intake
// records and aggregates them over date windows.
package intake

import (
	"errors"
	"time"
)

var (
	// ErrMenuItemNotFound is returned when a menu item does not exist.
	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrRecordNotFound is returned when an intake record does not exist.
	ErrRecordNotFound = errors.New("intake record not found")
)

// Nutrient keys used in calculated nutrients and aggregates.
const (
	KeyCalories = "calories"
	KeyProtein  = "protein"
	KeyFat      = "fat"
	KeyCarbs    = "carbs"
)

// MenuItem is a catalogued meal with nutrients for its base portion.
type MenuItem struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	WeightG  *float64           `json:"weight_g,omitempty"`
	VolumeML *float64           `json:"volume_ml,omitempty"`
	Calories float64            `json:"calories"`
	Protein  float64            `json:"protein"`
	Fat      float64            `json:"fat"`
	Carbs    float64            `json:"carbs"`
	Vitamins map[string]float64 `json:"vitamins,omitempty"`
	Minerals map[string]float64 `json:"minerals,omitempty"`
}

// Nutrients are the nutrients of a consumed portion.
type Nutrients struct {
	Calories float64            `json:"calories"`
	Protein  float64            `json:"protein"`
	Fat      float64            `json:"fat"`
	Carbs    float64            `json:"carbs"`
	Vitamins map[string]float64 `json:"vitamins,omitempty"`
	Minerals map[string]float64 `json:"minerals,omitempty"`
}

// Flatten returns the nutrients as a single map. Vitamin and mineral labels
// become top-level keys; colliding keys are summed.
func (n Nutrients) Flatten() map[string]float64 {
	flat := map[string]float64{
		KeyCalories: n.Calories,
		KeyProtein:  n.Protein,
		KeyFat:      n.Fat,
		KeyCarbs:    n.Carbs,
	}
	for k, v := range n.Vitamins {
		flat[k] += v
	}
	for k, v := range n.Minerals {
		flat[k] += v
	}
	return flat
}

// Record is one logged meal. Records are never modified after creation.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	MenuItemID       string    `json:"menu_item_id"`
	ConsumedWeightG  *float64  `json:"consumed_weight_g,omitempty"`
	ConsumedVolumeML *float64  `json:"consumed_volume_ml,omitempty"`
	Nutrients        Nutrients `json:"calculated_nutrients"`
	ConsumedAt       time.Time `json:"consumed_at"`
	CreatedAt        time.Time `json:"created_at"`
}
