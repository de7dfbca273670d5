package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/api"
	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/channel"
	"github.com/nutricare/nutricare/internal/collaborator"
	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/llm"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/provider/resilience"
	"github.com/nutricare/nutricare/internal/rag"
	"github.com/nutricare/nutricare/internal/recommendation"
)

type fakeAsker struct {
	mu       sync.Mutex
	answer   string
	err      error
	question string
}

func (a *fakeAsker) Ask(_ context.Context, q string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.question = q
	return a.answer, a.err
}

type fakePipeline struct {
	err       error
	questions []string
}

func (p *fakePipeline) Recommend(_ context.Context, q string) (string, error) {
	p.questions = append(p.questions, q)
	return "summary: " + q, p.err
}

func (p *fakePipeline) RecommendTranslated(_ context.Context, q string) (string, error) {
	p.questions = append(p.questions, q)
	return "translated: " + q, p.err
}

type fakePatients struct {
	err error
}

func (f fakePatients) PatientQuery(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "PATIENT DETAILS: " + id, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(_ context.Context, gc recommendation.GenerationContext) (*recommendation.GenerationResponse, error) {
	return &recommendation.GenerationResponse{
		PromptType: recommendation.PromptTypeRecommendation,
		Text:       "plan for " + gc.User.Name,
	}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testEnv struct {
	router   http.Handler
	asker    *fakeAsker
	pipeline *fakePipeline
	patients *fakePatients
}

func weight(v float64) *float64 { return &v }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		asker:    &fakeAsker{answer: "Summary: eat more fish"},
		pipeline: &fakePipeline{},
		patients: &fakePatients{},
	}

	profile := nutrition.Profile{Sex: "male", Age: 76, HeightCM: 175, WeightKG: 71, ActivityLevel: 1.2}
	intakeService := intake.NewService(
		intake.NewInMemoryRepository(),
		intake.NewInMemoryMenuRepository(&intake.MenuItem{
			ID: "m1", Name: "Congee", WeightG: weight(200),
			Calories: 300, Protein: 10, Fat: 4, Carbs: 56,
		}),
	)
	orch := recommendation.NewOrchestrator(recommendation.OrchestratorConfig{
		Patients:   patient.NewInMemoryStore(&patient.Patient{ID: "p1", Name: "Chen", Profile: profile}),
		Intake:     intakeService,
		Generator:  fakeGenerator{},
		Repository: recommendation.NewInMemoryRepository(),
		Logger:     zerolog.Nop(),
	})

	env.router = api.NewRouter(api.RouterConfig{
		Version:       "test",
		BuildTime:     "2026-01-01T00:00:00Z",
		Logger:        zerolog.New(io.Discard),
		Registry:      resilience.NewRegistry(),
		IntakeService: intakeService,
		Channel:       env.asker,
		Orchestrator:  orch,
		Pipeline:      env.pipeline,
		Patients:      env.patients,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) models.Problem {
	t.Helper()
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	var p models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.NotEmpty(t, p.TraceID)
	return p
}

var referenceDRI = map[string]interface{}{
	"sex": "male", "age": 76, "height_cm": 175, "weight_kg": 71, "activity_level": 1.2,
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "test", health.Details["version"])
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/ready", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck_DatabaseDown(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Logger:   zerolog.Nop(),
		DB:       failingPinger{},
		Registry: resilience.NewRegistry(),
	})

	req := httptest.NewRequest(http.MethodGet, "/ops/ready", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusFail, health.Status)
	assert.Equal(t, "connection refused", health.Details["database"])
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, "database", status.Subsystems[0].Name)
	assert.NotNil(t, status.Providers)
}

func TestRouter_DRI(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/dri", referenceDRI)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var targets nutrition.Targets
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &targets))
	assert.InDelta(t, 23.18, targets.BMI, 1e-9)
	assert.InDelta(t, 2426.41, targets.EER, 0.01)
	assert.InDelta(t, 60.66, targets.Protein.Min, 1e-9)
	assert.InDelta(t, 212.31, targets.Protein.Max, 1e-9)
	assert.InDelta(t, 53.92, targets.Fat.Min, 1e-9)
	assert.InDelta(t, 394.29, targets.Carbohydrate.Max, 1e-9)
	assert.NotEmpty(t, targets.Vitamins)
	assert.NotEmpty(t, targets.Minerals)
}

func TestRouter_DRI_SexIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/dri", map[string]interface{}{
		"sex": "Female", "age": 70, "height_cm": 160, "weight_kg": 55, "activity_level": 1.0,
	})

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRouter_DRI_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/dri", map[string]interface{}{
		"sex": "unknown", "height_cm": 175, "weight_kg": -1, "activity_level": 1.2,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "invalid_input", p.Detail)
	assert.Equal(t, "/dri", p.Instance)

	fields := map[string]string{}
	for _, fe := range p.Errors {
		fields[fe.Field] = fe.Code
	}
	assert.Equal(t, map[string]string{"sex": "sex", "age": "required", "weight_kg": "gt"}, fields)
}

func TestRouter_DRI_UnknownField(t *testing.T) {
	env := newTestEnv(t)

	body := `{"sex":"male","age":76,"height_cm":175,"weight_kg":71,"activity_level":1.2,"bmi":30}`
	w := env.do(t, http.MethodPost, "/dri", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, "invalid_json", p.Detail)
	assert.Contains(t, p.Error, "unknown field")
}

func TestRouter_DRI_UnsupportedMediaType(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/dri", strings.NewReader("sex=male"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_GenerateRecommendation(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]interface{}{
		"sex": "male", "age": 76, "height_cm": 175, "weight_kg": 71, "activity_level": 1.2,
		"meal": map[string]interface{}{"meal_name": "Congee", "consumed_weight_g": 250},
	}
	w := env.do(t, http.MethodPost, "/recommendations/generate", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.GenerateRecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Summary: eat more fish", resp.Recommendation)
	assert.InDelta(t, 2426.41, resp.DRIResults.EER, 0.01)

	assert.Contains(t, env.asker.question, "Meal name: Congee")
	assert.Contains(t, env.asker.question, "Consumed weight (g): 250")
}

func TestRouter_GenerateRecommendation_MissingMeal(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/recommendations/generate", referenceDRI)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "meal", p.Errors[0].Field)
	assert.Empty(t, env.asker.question, "channel must not be contacted on invalid input")
}

func TestRouter_GenerateRecommendation_ChannelErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"unavailable", fmt.Errorf("%w: dial: refused", channel.ErrChannelUnavailable), http.StatusServiceUnavailable, "channel_unavailable"},
		{"timeout", fmt.Errorf("%w: receive", channel.ErrChannelTimeout), http.StatusGatewayTimeout, "channel_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.asker.err = tt.err

			body := map[string]interface{}{
				"sex": "male", "age": 76, "height_cm": 175, "weight_kg": 71, "activity_level": 1.2,
				"meal": map[string]interface{}{"meal_name": "Congee"},
			}
			w := env.do(t, http.MethodPost, "/recommendations/generate", body)

			assert.Equal(t, tt.status, w.Code)
			p := decodeProblem(t, w)
			assert.Equal(t, tt.detail, p.Detail)
			assert.Equal(t, tt.err.Error(), p.Error)
		})
	}
}

func TestRouter_PeriodicAndHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/recommendations/periodic", map[string]interface{}{
		"user_id": "p1", "period": "weekly", "date": "2026-10-17",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result recommendation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "plan for Chen", result.Recommendation.Text)
	assert.True(t, strings.HasPrefix(result.SavedID, "rec_"))

	w = env.do(t, http.MethodGet, "/users/p1/recommendations", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []recommendation.Recommendation `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, result.SavedID, list.Items[0].ID)
	assert.Equal(t, "weekly", list.Items[0].Period)
}

func TestRouter_Periodic_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/recommendations/periodic", map[string]interface{}{
		"user_id": "nobody", "period": "daily",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeProblem(t, w).Detail)
}

func TestRouter_Periodic_InvalidDate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/recommendations/periodic", map[string]interface{}{
		"user_id": "p1", "period": "daily", "date": "17/10/2026",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decodeProblem(t, w).Detail)
}

func TestRouter_History_Empty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/users/p1/recommendations", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestRouter_History_BadLimit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/users/p1/recommendations?limit=0", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_IntakeCalculate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/intake/calculate", map[string]interface{}{
		"menu_item_id": "m1", "consumed_weight_g": 100,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.IntakeCalculateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "m1", resp.MenuItemID)
	assert.Equal(t, "Congee", resp.MealName)
	assert.InDelta(t, 150, resp.CalculatedNutrients.Calories, 1e-9)
	assert.InDelta(t, 28, resp.CalculatedNutrients.Carbs, 1e-9)
}

func TestRouter_IntakeCalculate_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/intake/calculate", map[string]interface{}{"menu_item_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/intake/calculate", map[string]interface{}{
		"menu_item_id": "m1", "consumed_volume_ml": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	p := decodeProblem(t, w)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "consumed_volume_ml", p.Errors[0].Field)
}

func TestRouter_IntakeRecord(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/intake/records", map[string]interface{}{
		"user_id": "p1", "menu_item_id": "m1", "consumed_weight_g": 400,
		"consumed_at": "2026-10-17T08:30:00Z",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec intake.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.True(t, strings.HasPrefix(rec.ID, "int_"))
	assert.Equal(t, "/intake/records/"+rec.ID, w.Header().Get("Location"))
	assert.InDelta(t, 600, rec.Nutrients.Calories, 1e-9)
	assert.Equal(t, 2026, rec.ConsumedAt.Year())
}

func TestRouter_RAGQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/rag/query", map[string]string{"query": "low protein"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recommendation":"summary: low protein"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/rag/query/tr-cn", map[string]string{"query": "low protein"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recommendation":"translated: low protein"}`, w.Body.String())
}

func TestRouter_RAGQuery_MissingQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/rag/query", map[string]string{"query": "  "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_query", decodeProblem(t, w).Detail)
	assert.Empty(t, env.pipeline.questions)
}

func TestRouter_RAGQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"generation timeout", &llm.GenerationError{Op: "generate", Timeout: true, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "generation_unavailable"},
		{"generation down", llm.Unavailable("generate", errors.New("connection refused")), http.StatusServiceUnavailable, "generation_unavailable"},
		{"retrieval", fmt.Errorf("%w: search: dimension mismatch", rag.ErrRetrievalFailure), http.StatusInternalServerError, "retrieval_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.pipeline.err = tt.err

			w := env.do(t, http.MethodPost, "/rag/query", map[string]string{"query": "q"})

			assert.Equal(t, tt.status, w.Code)
			p := decodeProblem(t, w)
			assert.Equal(t, tt.detail, p.Detail)
			assert.NotEmpty(t, p.Error)
		})
	}
}

func TestRouter_RAGPatient(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/rag/recommendations/patient/42", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"recommendation":"summary: PATIENT DETAILS: 42"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/rag/recommendations/patient/42/tr-cn", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"recommendation":"translated: PATIENT DETAILS: 42"}`, w.Body.String())
}

func TestRouter_RAGPatient_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.patients.err = fmt.Errorf("%w: unexpected status 502 from /patients/42/", collaborator.ErrUpstreamFailure)

	w := env.do(t, http.MethodGet, "/rag/recommendations/patient/42", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, "upstream_failure", p.Detail)
	assert.Contains(t, p.Error, "502")
	assert.Empty(t, env.pipeline.questions)
}

type failingEmbedder struct{ err error }

func (e failingEmbedder) Embed(context.Context, []string) ([][]float32, error) { return nil, e.err }

func TestRouter_RAGQuery_QueryEmbeddingFailureIsRetrievalFailure(t *testing.T) {
	index := &rag.Index{Model: "m", Dimension: 2, Chunks: []rag.Chunk{{ID: "a#0", Text: "iron", Embedding: []float32{1, 0}}}}
	var generated bool
	pipeline := rag.NewPipeline(rag.PipelineConfig{
		Retriever: rag.NewIndexRetriever(index,
			failingEmbedder{err: llm.Unavailable("embed", context.DeadlineExceeded)},
			rag.DefaultSearchParams()),
		Generator: llm.GeneratorFunc(func(context.Context, string) (string, error) {
			generated = true
			return "", nil
		}),
		Logger: zerolog.Nop(),
	})
	router := api.NewRouter(api.RouterConfig{
		Logger:   zerolog.Nop(),
		Registry: resilience.NewRegistry(),
		Pipeline: pipeline,
		Patients: &fakePatients{},
	})

	req := httptest.NewRequest(http.MethodPost, "/rag/query", strings.NewReader(`{"query":"iron"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, "retrieval_failure", p.Detail)
	assert.Contains(t, p.Error, "embed query")
	assert.False(t, generated)
}
