package intake

import (
	"github.com/nutricare/nutricare/internal/nutrition"
)

// Portion is the consumed amount of a menu item. At most one of the fields
// drives scaling; weight wins when both are set.
type Portion struct {
	WeightG  *float64
	VolumeML *float64
}

// ScaleFactor returns the ratio of the consumed portion to the item's base
// portion, or 1.0 when no amount was supplied.
func ScaleFactor(item *MenuItem, p Portion) (float64, error) {
	switch {
	case p.WeightG != nil:
		if *p.WeightG < 0 {
			return 0, nutrition.InvalidField("consumed_weight_g", "must not be negative")
		}
		if item.WeightG == nil || *item.WeightG <= 0 {
			return 0, nutrition.InvalidField("consumed_weight_g", "menu item has no base weight")
		}
		return *p.WeightG / *item.WeightG, nil
	case p.VolumeML != nil:
		if *p.VolumeML < 0 {
			return 0, nutrition.InvalidField("consumed_volume_ml", "must not be negative")
		}
		if item.VolumeML == nil || *item.VolumeML <= 0 {
			return 0, nutrition.InvalidField("consumed_volume_ml", "menu item has no base volume")
		}
		return *p.VolumeML / *item.VolumeML, nil
	default:
		return 1.0, nil
	}
}

// Calculate scales the item's nutrients to the consumed portion, rounding
// each amount to two decimals.
func Calculate(item *MenuItem, p Portion) (Nutrients, error) {
	factor, err := ScaleFactor(item, p)
	if err != nil {
		return Nutrients{}, err
	}

	return Nutrients{
		Calories: nutrition.Round2(item.Calories * factor),
		Protein:  nutrition.Round2(item.Protein * factor),
		Fat:      nutrition.Round2(item.Fat * factor),
		Carbs:    nutrition.Round2(item.Carbs * factor),
		Vitamins: scaleMap(item.Vitamins, factor),
		Minerals: scaleMap(item.Minerals, factor),
	}, nil
}

func scaleMap(m map[string]float64, factor float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = nutrition.Round2(v * factor)
	}
	return out
}
