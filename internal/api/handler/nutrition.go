package handler

import (
	"net/http"

	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/nutrition"
)

// NutritionHandler serves nutrient target calculations.
type NutritionHandler struct{}

// NewNutritionHandler creates a new NutritionHandler.
func NewNutritionHandler() *NutritionHandler {
	return &NutritionHandler{}
}

// DRI handles POST /dri.
func (h *NutritionHandler) DRI(w http.ResponseWriter, r *http.Request) {
	var req models.DRIRequest
	if !decode(w, r, &req) {
		return
	}

	targets, err := nutrition.Compute(req.Profile())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, targets)
}
