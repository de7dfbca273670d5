package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job types carried in the job_type field.
const (
	JobTypeGenerate    = "generate_recommendations"
	JobTypeHealthCheck = "health_check"
)

// ErrUnknownJobType is returned for messages with an unrecognised job_type.
// Such messages are acknowledged so they are not redelivered.
var ErrUnknownJobType = errors.New("unknown job type")

// JobMessage is the Pub/Sub message body.
type JobMessage struct {
	JobType string   `json:"job_type"`
	Period  string   `json:"period,omitempty"`
	Date    string   `json:"date,omitempty"`
	UserIDs []string `json:"user_ids,omitempty"`
}

// HealthChecker verifies the generation service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Dispatcher decodes job messages and runs the matching job.
type Dispatcher struct {
	job    *GenerationJob
	health HealthChecker
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher. health may be nil, in which case
// health_check jobs always pass.
func NewDispatcher(job *GenerationJob, health HealthChecker, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{job: job, health: health, logger: logger}
}

// Handle runs the job described by data. A nil error means the message can
// be acknowledged.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parsing message: %w", err)
	}

	switch msg.JobType {
	case JobTypeGenerate:
		return d.handleGenerate(ctx, msg)
	case JobTypeHealthCheck:
		return d.handleHealthCheck(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobType, msg.JobType)
	}
}

func (d *Dispatcher) handleGenerate(ctx context.Context, msg JobMessage) error {
	req := JobRequest{Period: msg.Period, UserIDs: msg.UserIDs}
	if msg.Date != "" {
		date, err := time.Parse(time.DateOnly, msg.Date)
		if err != nil {
			return fmt.Errorf("parsing date: %w", err)
		}
		req.Date = date
	}

	result, err := d.job.Run(ctx, req)
	if err != nil {
		return err
	}

	// Consider it successful unless more users failed than succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many generation failures: %d/%d", result.Failed, result.TotalUsers)
	}
	return nil
}

func (d *Dispatcher) handleHealthCheck(ctx context.Context) error {
	d.logger.Debug().Msg("running health check")
	if d.health == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := d.health.Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	d.logger.Debug().Msg("health check passed")
	return nil
}
