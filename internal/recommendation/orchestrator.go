package recommendation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/rules"
)

// IntakeSummarizer aggregates a user's logged intake over a window.
type IntakeSummarizer interface {
	Summarize(ctx context.Context, userID string, w intake.Window) (intake.Aggregated, error)
}

// Generator turns a generation context into recommendation text.
type Generator interface {
	Generate(ctx context.Context, gc GenerationContext) (*GenerationResponse, error)
}

// OrchestratorConfig holds the orchestrator collaborators.
type OrchestratorConfig struct {
	Patients   patient.Store
	Intake     IntakeSummarizer
	Generator  Generator
	Repository Repository
	Logger     zerolog.Logger
}

// Orchestrator produces and persists periodic recommendations.
type Orchestrator struct {
	patients  patient.Store
	intake    IntakeSummarizer
	generator Generator
	repo      Repository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		patients:  cfg.Patients,
		intake:    cfg.Intake,
		generator: cfg.Generator,
		repo:      cfg.Repository,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Generate builds a recommendation for userID over the period ending at ref
// (today when zero). Computation errors abort; a failed generation call falls
// back to the rule-based suggestions and is never returned as an error.
func (o *Orchestrator) Generate(ctx context.Context, userID, period string, ref time.Time) (*Result, error) {
	ctx, span := otel.Tracer("github.com/nutricare/nutricare/recommendation").Start(ctx, "recommendation.generate")
	defer span.End()
	span.SetAttributes(attribute.String("recommendation.period", period))

	if userID == "" {
		return nil, nutrition.InvalidField("user_id", "is required")
	}

	p, err := o.patients.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	targets, err := nutrition.Compute(p.Profile)
	if err != nil {
		return nil, err
	}

	if ref.IsZero() {
		now := o.now().UTC()
		ref = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	window := ResolveWindow(period, ref)

	agg, err := o.intake.Summarize(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	avg := make(map[string]float64, len(agg.AveragePerDay))
	for k, v := range agg.AveragePerDay {
		avg[k] = nutrition.Round2(v)
	}
	findings := rules.Evaluate(targets, avg)

	gc := GenerationContext{
		User:      UserInfo{ID: p.ID, Name: p.Name, Age: p.Profile.Age, Sex: p.Profile.Sex},
		Period:    period,
		DateRange: DateRange{Start: window.Start.Format(time.DateOnly), End: window.End.Format(time.DateOnly)},
		Targets: TargetSummary{
			Calories: nutrition.Round2(targets.CalorieTarget()),
			Macros:   targets.Macros,
			Vitamins: targets.Vitamins,
			Minerals: targets.Minerals,
		},
		IntakeAvg:      avg,
		RuleCandidates: findings,
	}

	resp, err := o.generator.Generate(ctx, gc)
	if err == nil && resp == nil {
		err = fmt.Errorf("generation service returned no response")
	}
	if err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Msg("generation service failed, using rule-based suggestions")
		resp = Fallback(findings)
	}

	text := resp.Text
	if text == "" {
		text = strings.Join(findings.Suggestions, "\n")
	}

	rec := &Recommendation{
		ID:        "rec_" + uuid.New().String()[:22],
		UserID:    userID,
		Period:    period,
		Text:      text,
		CreatedAt: o.now(),
	}
	if err := o.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing recommendation: %w", err)
	}

	o.logger.Info().
		Str("user_id", userID).
		Str("period", period).
		Str("recommendation_id", rec.ID).
		Bool("fallback", resp.Fallback).
		Int("alerts", len(findings.Alerts)).
		Msg("recommendation generated")

	return &Result{Recommendation: *resp, SavedID: rec.ID}, nil
}

// Fallback returns the rule-based stand-in for a generation reply: the
// suggestions, one per line, followed by FallbackNote.
func Fallback(f rules.Findings) *GenerationResponse {
	lines := append(append([]string{}, f.Suggestions...), FallbackNote)
	structured := f
	return &GenerationResponse{
		Text:       strings.Join(lines, "\n"),
		Structured: &structured,
		Fallback:   true,
	}
}

// History returns the user's recommendations, newest first.
func (o *Orchestrator) History(ctx context.Context, userID string, limit int) ([]*Recommendation, error) {
	return o.repo.ListByUser(ctx, userID, limit)
}
