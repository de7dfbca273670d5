package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/recommendation"
)

// Asker sends one question over the duplex channel and waits for the answer.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Orchestrator generates and lists periodic recommendations.
type Orchestrator interface {
	Generate(ctx context.Context, userID, period string, ref time.Time) (*recommendation.Result, error)
	History(ctx context.Context, userID string, limit int) ([]*recommendation.Recommendation, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// RecommendationHandler handles recommendation endpoints.
type RecommendationHandler struct {
	channel      Asker
	orchestrator Orchestrator
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(channel Asker, orchestrator Orchestrator) *RecommendationHandler {
	return &RecommendationHandler{channel: channel, orchestrator: orchestrator}
}

// Generate handles POST /recommendations/generate. The targets are computed
// locally and the meal question is answered over the channel.
func (h *RecommendationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRecommendationRequest
	if !decode(w, r, &req) {
		return
	}

	profile := req.Profile()
	targets, err := nutrition.Compute(profile)
	if err != nil {
		writeError(w, r, err)
		return
	}

	question, err := recommendation.MealQuestion(profile, recommendation.Meal{
		Name:            req.Meal.MealName,
		ConsumedWeightG: req.Meal.ConsumedWeightG,
	}, targets)
	if err != nil {
		writeError(w, r, err)
		return
	}

	answer, err := h.channel.Ask(r.Context(), question)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log := middleware.GetLogger(r.Context())
	log.Info().
		Str("meal", req.Meal.MealName).
		Int("answer_bytes", len(answer)).
		Msg("meal recommendation answered")

	response.JSON(w, r, http.StatusOK, models.GenerateRecommendationResponse{
		DRIResults:     targets,
		Recommendation: answer,
	})
}

// Periodic handles POST /recommendations/periodic.
func (h *RecommendationHandler) Periodic(w http.ResponseWriter, r *http.Request) {
	var req models.PeriodicRequest
	if !decode(w, r, &req) {
		return
	}

	var ref time.Time
	if req.Date != nil {
		ref = req.Date.Time()
	}

	result, err := h.orchestrator.Generate(r.Context(), req.UserID, req.Period, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

// History handles GET /users/{userId}/recommendations.
func (h *RecommendationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			response.BadRequest(w, r, "invalid_input", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100", Code: "range"},
			})
			return
		}
		limit = n
	}

	recs, err := h.orchestrator.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*recommendation.Recommendation{}
	}
	response.JSON(w, r, http.StatusOK, models.RecommendationList{Items: recs})
}
