// Package worker runs scheduled batch recommendation generation.
package worker

import (
	"time"

	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/recommendation"
)

// GenerationConfig holds configuration for the batch generation job.
type GenerationConfig struct {
	// Period is used when a job message does not name one.
	// Default: weekly
	Period string

	// Concurrency is the number of users generated at once.
	// Default: 3
	Concurrency int

	// Timeout bounds generation for a single user.
	// Default: 60 seconds
	Timeout time.Duration
}

// DefaultGenerationConfig returns the default generation configuration.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Period:      recommendation.PeriodWeekly,
		Concurrency: 3,
		Timeout:     60 * time.Second,
	}
}

// GenerationConfigFromEnv reads WORKER_PERIOD, WORKER_CONCURRENCY and
// WORKER_TIMEOUT over the defaults.
func GenerationConfigFromEnv() GenerationConfig {
	def := DefaultGenerationConfig()
	return GenerationConfig{
		Period:      config.String("WORKER_PERIOD", def.Period),
		Concurrency: config.Int("WORKER_CONCURRENCY", def.Concurrency),
		Timeout:     config.Duration("WORKER_TIMEOUT", def.Timeout),
	}
}

func (c GenerationConfig) withDefaults() GenerationConfig {
	def := DefaultGenerationConfig()
	if c.Period == "" {
		c.Period = def.Period
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
