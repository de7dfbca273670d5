package handler

import (
	"context"
	"net/http"

	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/recommendation"
)

// Summarizer answers a question with the summarized report.
type Summarizer interface {
	Recommend(ctx context.Context, question string) (string, error)
}

// GenerationHandler serves the recommendation-generation service.
type GenerationHandler struct {
	pipeline Summarizer
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(pipeline Summarizer) *GenerationHandler {
	return &GenerationHandler{pipeline: pipeline}
}

// Generate handles POST /generate.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req recommendation.GenerationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PromptType != recommendation.PromptTypeRecommendation {
		response.BadRequest(w, r, "invalid_input", []models.FieldError{{
			Field:   "prompt_type",
			Message: "must be " + recommendation.PromptTypeRecommendation,
			Code:    "oneof",
		}})
		return
	}

	text, err := h.pipeline.Recommend(r.Context(), recommendation.ContextQuestion(req.Context))
	if err != nil {
		writeError(w, r, err)
		return
	}

	log := middleware.GetLogger(r.Context())
	log.Info().
		Str("user_id", req.Context.User.ID).
		Str("period", req.Context.Period).
		Msg("recommendation text generated")

	response.JSON(w, r, http.StatusOK, recommendation.GenerationResponse{
		PromptType: req.PromptType,
		Text:       text,
	})
}
