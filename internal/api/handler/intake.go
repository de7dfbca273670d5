package handler

import (
	"net/http"

	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/intake"
)

// IntakeHandler handles meal intake endpoints.
type IntakeHandler struct {
	intakeService *intake.Service
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(intakeService *intake.Service) *IntakeHandler {
	return &IntakeHandler{intakeService: intakeService}
}

// Calculate handles POST /intake/calculate.
func (h *IntakeHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req models.IntakeCalculateRequest
	if !decode(w, r, &req) {
		return
	}

	calc, err := h.intakeService.Calculate(r.Context(), req.MenuItemID, req.Portion())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.IntakeCalculateResponse{
		MenuItemID:          calc.MenuItem.ID,
		MealName:            calc.MenuItem.Name,
		CalculatedNutrients: calc.Nutrients,
	})
}

// CreateRecord handles POST /intake/records.
func (h *IntakeHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req models.IntakeRecordRequest
	if !decode(w, r, &req) {
		return
	}

	in := intake.LogInput{
		UserID:     req.UserID,
		MenuItemID: req.MenuItemID,
		Portion:    req.Portion(),
	}
	if req.ConsumedAt != nil {
		in.ConsumedAt = req.ConsumedAt.Time()
	}

	rec, err := h.intakeService.Log(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, r, "/intake/records/"+rec.ID, rec)
}
