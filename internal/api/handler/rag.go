package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
)

// Recommender runs the two-pass retrieval pipeline.
type Recommender interface {
	Recommend(ctx context.Context, question string) (string, error)
	RecommendTranslated(ctx context.Context, question string) (string, error)
}

// PatientQuerier composes a query from a patient's collaborator records.
type PatientQuerier interface {
	PatientQuery(ctx context.Context, patientID string) (string, error)
}

// RAGHandler handles retrieval-augmented generation endpoints.
type RAGHandler struct {
	pipeline Recommender
	patients PatientQuerier
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(pipeline Recommender, patients PatientQuerier) *RAGHandler {
	return &RAGHandler{pipeline: pipeline, patients: patients}
}

// Query handles POST /rag/query.
func (h *RAGHandler) Query(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, h.pipeline.Recommend)
}

// QueryTranslated handles POST /rag/query/tr-cn.
func (h *RAGHandler) QueryTranslated(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, h.pipeline.RecommendTranslated)
}

// Patient handles GET|POST /rag/recommendations/patient/{patientId}.
func (h *RAGHandler) Patient(w http.ResponseWriter, r *http.Request) {
	h.patient(w, r, h.pipeline.Recommend)
}

// PatientTranslated handles GET|POST /rag/recommendations/patient/{patientId}/tr-cn.
func (h *RAGHandler) PatientTranslated(w http.ResponseWriter, r *http.Request) {
	h.patient(w, r, h.pipeline.RecommendTranslated)
}

type chain func(ctx context.Context, question string) (string, error)

func (h *RAGHandler) query(w http.ResponseWriter, r *http.Request, run chain) {
	var req models.RAGQueryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.BadRequest(w, r, "missing_query", []models.FieldError{
			{Field: "query", Message: "is required", Code: "required"},
		})
		return
	}
	h.answer(w, r, run, req.Query)
}

func (h *RAGHandler) patient(w http.ResponseWriter, r *http.Request, run chain) {
	patientID := chi.URLParam(r, "patientId")

	question, err := h.patients.PatientQuery(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.answer(w, r, run, question)
}

func (h *RAGHandler) answer(w http.ResponseWriter, r *http.Request, run chain, question string) {
	text, err := run(r.Context(), question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.RAGResponse{Recommendation: text})
}
