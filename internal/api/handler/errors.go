package handler

import (
	"errors"
	"net/http"

	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/channel"
	"github.com/nutricare/nutricare/internal/collaborator"
	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/llm"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/rag"
)

// writeError maps a domain error to its problem response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(response.TraceID(r), err).WithCause(err)

	log := middleware.GetLogger(r.Context())
	if p.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("detail", p.Detail).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("detail", p.Detail).Msg("request rejected")
	}

	response.Error(w, r, p)
}

func problemFor(traceID string, err error) *models.Problem {
	var inputErr *nutrition.InputError
	switch {
	case errors.As(err, &inputErr):
		return models.NewBadRequest(traceID, "invalid_input", []models.FieldError{
			{Field: inputErr.Field, Message: inputErr.Reason, Code: "invalid"},
		})
	case errors.Is(err, nutrition.ErrInvalidInput):
		return models.NewBadRequest(traceID, "invalid_input", nil)
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, intake.ErrMenuItemNotFound),
		errors.Is(err, intake.ErrRecordNotFound):
		return models.NewNotFound(traceID, "not_found")
	case errors.Is(err, channel.ErrChannelTimeout):
		return models.NewGatewayTimeout(traceID, "channel_timeout")
	case errors.Is(err, channel.ErrChannelUnavailable):
		return models.NewServiceUnavailable(traceID, "channel_unavailable")
	// Query embedding failures carry a generation error too; retrieval wins.
	case errors.Is(err, rag.ErrRetrievalFailure):
		return models.NewInternalError(traceID, "retrieval_failure")
	case errors.Is(err, llm.ErrGenerationTimeout):
		return models.NewGatewayTimeout(traceID, "generation_unavailable")
	case errors.Is(err, llm.ErrGenerationUnavailable):
		return models.NewServiceUnavailable(traceID, "generation_unavailable")
	case errors.Is(err, collaborator.ErrUpstreamFailure):
		return models.NewInternalError(traceID, "upstream_failure")
	default:
		return models.NewInternalError(traceID, "internal_error")
	}
}
