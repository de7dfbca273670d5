// Package recommendation sequences target computation, intake aggregation,
// rule evaluation and text generation into a persisted recommendation.
package recommendation

import (
	"time"

	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/nutrition"
	"github.com/nutricare/nutricare/internal/rules"
)

// Period tags.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// PromptTypeRecommendation is the only prompt type the generation service
// accepts.
const PromptTypeRecommendation = "recommendation_generation"

// FallbackNote is appended to rule-based text when generation fails.
const FallbackNote = "Unable to reach RAG server; use rule-based suggestions."

// Recommendation is one entry of the append-only recommendation log.
type Recommendation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Period    string    `json:"period"`
	Text      string    `json:"suggestions"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolveWindow returns the inclusive window of period days ending at ref.
// Unknown periods resolve to the single day ref.
func ResolveWindow(period string, ref time.Time) intake.Window {
	start := ref
	switch period {
	case PeriodWeekly:
		start = ref.AddDate(0, 0, -6)
	case PeriodMonthly:
		start = ref.AddDate(0, 0, -29)
	}
	return intake.Window{Start: start, End: ref}
}

// UserInfo identifies the patient in a generation context.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
	Sex  string `json:"sex"`
}

// DateRange is the window rendered as YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TargetSummary is the part of the targets sent for generation.
type TargetSummary struct {
	Calories float64            `json:"calories"`
	Macros   nutrition.Macros   `json:"macros"`
	Vitamins map[string]float64 `json:"vitamins"`
	Minerals map[string]float64 `json:"minerals"`
}

// GenerationContext is the structured input of the generation service.
type GenerationContext struct {
	User           UserInfo           `json:"user"`
	Period         string             `json:"period"`
	DateRange      DateRange          `json:"date_range"`
	Targets        TargetSummary      `json:"targets"`
	IntakeAvg      map[string]float64 `json:"intake_avg"`
	RuleCandidates rules.Findings     `json:"rule_candidates"`
}

// GenerationRequest is the body of POST /generate.
type GenerationRequest struct {
	PromptType string            `json:"prompt_type"`
	Context    GenerationContext `json:"context"`
}

// GenerationResponse is the generation service reply, or the rule-based
// fallback standing in for it.
type GenerationResponse struct {
	PromptType string          `json:"prompt_type,omitempty"`
	Text       string          `json:"text"`
	Structured *rules.Findings `json:"structured,omitempty"`
	Fallback   bool            `json:"fallback,omitempty"`
}

// Result is returned by Orchestrator.Generate.
type Result struct {
	Recommendation GenerationResponse `json:"recommendation"`
	SavedID        string             `json:"saved_id"`
}
