package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nutricare/nutricare/internal/recommendation"
)

// UserLister lists every known patient.
type UserLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Generator produces one persisted recommendation.
type Generator interface {
	Generate(ctx context.Context, userID, period string, ref time.Time) (*recommendation.Result, error)
}

// GenerationJob generates recommendations for a batch of users.
type GenerationJob struct {
	config    GenerationConfig
	logger    zerolog.Logger
	users     UserLister
	generator Generator

	metrics *GenerationMetrics
}

// GenerationMetrics tracks generation job statistics.
type GenerationMetrics struct {
	mu sync.RWMutex

	TotalRuns int64
	Generated int64
	Fallbacks int64
	Failed    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// GenerationJobConfig holds configuration for creating a GenerationJob.
type GenerationJobConfig struct {
	Config    GenerationConfig
	Logger    zerolog.Logger
	Users     UserLister
	Generator Generator
}

// NewGenerationJob creates a new batch generation job.
func NewGenerationJob(cfg GenerationJobConfig) *GenerationJob {
	return &GenerationJob{
		config:    cfg.Config.withDefaults(),
		logger:    cfg.Logger,
		users:     cfg.Users,
		generator: cfg.Generator,
		metrics:   &GenerationMetrics{},
	}
}

// JobRequest selects what a run generates. Empty fields take the job
// defaults: the configured period, today, and every known user.
type JobRequest struct {
	Period  string
	Date    time.Time
	UserIDs []string
}

// GenerationResult contains the result of one run.
type GenerationResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalUsers int
	Successful int
	Fallbacks  int
	Failed     int
	Errors     []GenerationError
}

// GenerationError records a user whose generation failed.
type GenerationError struct {
	UserID string
	Error  string
}

// Run generates recommendations for the requested users. Per-user failures
// are collected in the result; only failing to list users is returned as an
// error.
func (j *GenerationJob) Run(ctx context.Context, req JobRequest) (*GenerationResult, error) {
	startTime := time.Now()

	period := req.Period
	if period == "" {
		period = j.config.Period
	}

	userIDs := req.UserIDs
	if len(userIDs) == 0 {
		ids, err := j.users.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		userIDs = ids
	}

	result := &GenerationResult{StartTime: startTime, TotalUsers: len(userIDs)}

	j.logger.Info().
		Int("total_users", result.TotalUsers).
		Int("concurrency", j.config.Concurrency).
		Str("period", period).
		Msg("starting generation job")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.config.Concurrency)

	for _, id := range userIDs {
		g.Go(func() error {
			res, err := j.generateUser(gctx, id, period, req.Date)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, GenerationError{UserID: id, Error: err.Error()})
				return nil
			}
			result.Successful++
			if res.Recommendation.Fallback {
				result.Fallbacks++
			}
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("fallbacks", result.Fallbacks).
		Int("failed", result.Failed).
		Msg("generation job completed")

	return result, nil
}

func (j *GenerationJob) generateUser(ctx context.Context, userID, period string, ref time.Time) (*recommendation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	userCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	res, err := j.generator.Generate(userCtx, userID, period, ref)
	if err != nil {
		j.logger.Warn().Err(err).Str("user_id", userID).Msg("generation failed")
		return nil, err
	}
	return res, nil
}

func (j *GenerationJob) updateMetrics(result *GenerationResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.Generated += int64(result.Successful)
	j.metrics.Fallbacks += int64(result.Fallbacks)
	j.metrics.Failed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *GenerationJob) GetMetrics() GenerationMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return GenerationMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		Generated:       j.metrics.Generated,
		Fallbacks:       j.metrics.Fallbacks,
		Failed:          j.metrics.Failed,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *GenerationJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"generated":         m.Generated,
		"fallbacks":         m.Fallbacks,
		"failed":            m.Failed,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
	}
}
