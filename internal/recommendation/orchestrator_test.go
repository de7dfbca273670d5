package recommendation_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/recommendation"
)

type fakeGenerator struct {
	resp  *recommendation.GenerationResponse
	err   error
	calls atomic.Int32
	last  recommendation.GenerationContext
}

func (g *fakeGenerator) Generate(_ context.Context, gc recommendation.GenerationContext) (*recommendation.GenerationResponse, error) {
	g.calls.Add(1)
	g.last = gc
	return g.resp, g.err
}

type fixture struct {
	orch    *recommendation.Orchestrator
	gen     *fakeGenerator
	repo    *recommendation.InMemoryRepository
	records *intake.InMemoryRepository
}

func newFixture(t *testing.T, gen *fakeGenerator) *fixture {
	t.Helper()
	patients := patient.NewInMemoryStore(&patient.Patient{ID: "p1", Name: "Chen", Profile: referenceProfile})
	records := intake.NewInMemoryRepository()
	repo := recommendation.NewInMemoryRepository()

	orch := recommendation.NewOrchestrator(recommendation.OrchestratorConfig{
		Patients:   patients,
		Intake:     intake.NewService(records, intake.NewInMemoryMenuRepository()),
		Generator:  gen,
		Repository: repo,
		Logger:     zerolog.Nop(),
	})
	return &fixture{orch: orch, gen: gen, repo: repo, records: records}
}

func (f *fixture) logMeal(t *testing.T, at time.Time, n intake.Nutrients) {
	t.Helper()
	require.NoError(t, f.records.Create(context.Background(), &intake.Record{
		ID:         "int_" + at.Format(time.RFC3339),
		UserID:     "p1",
		Nutrients:  n,
		ConsumedAt: at,
	}))
}

func TestOrchestrator_Generate(t *testing.T) {
	gen := &fakeGenerator{resp: &recommendation.GenerationResponse{
		PromptType: recommendation.PromptTypeRecommendation,
		Text:       "Summary: intake is low.",
	}}
	f := newFixture(t, gen)
	f.logMeal(t, time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC), intake.Nutrients{Calories: 7000, Protein: 350})
	f.logMeal(t, time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC), intake.Nutrients{Calories: 9999})

	res, err := f.orch.Generate(context.Background(), "p1", recommendation.PeriodWeekly, date(2026, time.October, 17))

	require.NoError(t, err)
	assert.Equal(t, "Summary: intake is low.", res.Recommendation.Text)
	assert.True(t, strings.HasPrefix(res.SavedID, "rec_"))
	assert.Len(t, res.SavedID, 26)

	gc := gen.last
	assert.Equal(t, "Chen", gc.User.Name)
	assert.Equal(t, "weekly", gc.Period)
	assert.Equal(t, recommendation.DateRange{Start: "2026-10-11", End: "2026-10-17"}, gc.DateRange)
	assert.Equal(t, 2426.41, gc.Targets.Calories)
	assert.Equal(t, 1000.0, gc.IntakeAvg["calories"])
	assert.Equal(t, 50.0, gc.IntakeAvg["protein"])
	assert.Equal(t, []string{
		"Average daily calories intake is low (1000 kcal vs target 2426 kcal).",
		"Average protein is low (50g vs target 60g).",
	}, gc.RuleCandidates.Alerts)

	saved, err := f.repo.ListByUser(context.Background(), "p1", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, res.SavedID, saved[0].ID)
	assert.Equal(t, "Summary: intake is low.", saved[0].Text)
	assert.Equal(t, "weekly", saved[0].Period)
}

func TestOrchestrator_GenerationTimeoutFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	f := newFixture(t, gen)

	res, err := f.orch.Generate(context.Background(), "p1", recommendation.PeriodDaily, date(2026, time.October, 17))

	require.NoError(t, err)
	assert.True(t, res.Recommendation.Fallback)
	assert.Equal(t,
		"Offer high-calorie nutrient-dense snacks (e.g., milk, soy-sauce braised tofu, peanut paste).\n"+
			"Add extra protein at meals: 1 egg, 50g tofu, or 20g powdered milk per serving.\n"+
			recommendation.FallbackNote,
		res.Recommendation.Text)
	require.NotNil(t, res.Recommendation.Structured)
	assert.Len(t, res.Recommendation.Structured.Alerts, 2)

	saved, err := f.repo.ListByUser(context.Background(), "p1", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, res.Recommendation.Text, saved[0].Text)
}

func TestOrchestrator_EmptyServiceTextPersistsSuggestions(t *testing.T) {
	gen := &fakeGenerator{resp: &recommendation.GenerationResponse{}}
	f := newFixture(t, gen)

	_, err := f.orch.Generate(context.Background(), "p1", recommendation.PeriodDaily, date(2026, time.October, 17))
	require.NoError(t, err)

	saved, err := f.repo.ListByUser(context.Background(), "p1", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t,
		"Offer high-calorie nutrient-dense snacks (e.g., milk, soy-sauce braised tofu, peanut paste).\n"+
			"Add extra protein at meals: 1 egg, 50g tofu, or 20g powdered milk per serving.",
		saved[0].Text)
}

func TestOrchestrator_UnknownPeriodIsSingleDay(t *testing.T) {
	gen := &fakeGenerator{resp: &recommendation.GenerationResponse{Text: "ok"}}
	f := newFixture(t, gen)
	f.logMeal(t, time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC), intake.Nutrients{Calories: 500})

	_, err := f.orch.Generate(context.Background(), "p1", "yearly", date(2026, time.October, 17))

	require.NoError(t, err)
	assert.Equal(t, recommendation.DateRange{Start: "2026-10-17", End: "2026-10-17"}, gen.last.DateRange)
	assert.Empty(t, gen.last.IntakeAvg)
}

func TestOrchestrator_PatientNotFound(t *testing.T) {
	gen := &fakeGenerator{}
	f := newFixture(t, gen)

	_, err := f.orch.Generate(context.Background(), "nobody", recommendation.PeriodDaily, time.Time{})

	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestOrchestrator_MissingUser(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	_, err := f.orch.Generate(context.Background(), "", recommendation.PeriodDaily, time.Time{})

	assert.ErrorIs(t, err, nutrition.ErrInvalidInput)
}

func TestOrchestrator_InvalidProfileAborts(t *testing.T) {
	gen := &fakeGenerator{}
	f := newFixture(t, gen)
	f2 := patient.NewInMemoryStore(&patient.Patient{ID: "bad", Profile: nutrition.Profile{Sex: "other", Age: 50, HeightCM: 170, WeightKG: 70, ActivityLevel: 1}})
	orch := recommendation.NewOrchestrator(recommendation.OrchestratorConfig{
		Patients:   f2,
		Intake:     intake.NewService(intake.NewInMemoryRepository(), intake.NewInMemoryMenuRepository()),
		Generator:  gen,
		Repository: f.repo,
		Logger:     zerolog.Nop(),
	})

	_, err := orch.Generate(context.Background(), "bad", recommendation.PeriodDaily, time.Time{})

	assert.ErrorIs(t, err, nutrition.ErrInvalidInput)
	assert.Equal(t, int32(0), gen.calls.Load())
}

func TestOrchestrator_History(t *testing.T) {
	gen := &fakeGenerator{resp: &recommendation.GenerationResponse{Text: "ok"}}
	f := newFixture(t, gen)

	for i := 0; i < 3; i++ {
		_, err := f.orch.Generate(context.Background(), "p1", recommendation.PeriodDaily, date(2026, time.October, 17))
		require.NoError(t, err)
	}

	recs, err := f.orch.History(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	none, err := f.orch.History(context.Background(), "p2", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrchestrator_GeneratorErrorNeverEscapes(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	f := newFixture(t, gen)

	res, err := f.orch.Generate(context.Background(), "p1", recommendation.PeriodMonthly, date(2026, time.October, 17))

	require.NoError(t, err)
	assert.Contains(t, res.Recommendation.Text, recommendation.FallbackNote)
}
