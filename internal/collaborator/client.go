// Package collaborator is a client for the food-intake backend that owns
// patients, computed daily intake recommendations and meals.
package collaborator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/provider/resilience"
	"github.com/nutricare/nutricare/internal/telemetry"
)

const (
	// ProviderName identifies the backend in the resilience registry.
	ProviderName = "food-intake-backend"

	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 10 * time.Second
)

// ErrUpstreamFailure is returned when a read from the backend fails.
var ErrUpstreamFailure = errors.New("upstream collaborator failure")

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	BaseURL string
	// Timeout bounds each read (default: 10s).
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Metrics    *telemetry.DependencyMetrics

	// Registry receives call outcomes of the resilient client
	// (default: resilience.GlobalRegistry).
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// ConfigFromEnv reads FOOD_INTAKE_BACKEND_URL and COLLABORATOR_TIMEOUT.
func ConfigFromEnv() ClientConfig {
	return ClientConfig{
		BaseURL: config.String("FOOD_INTAKE_BACKEND_URL", DefaultBaseURL),
		Timeout: config.Duration("COLLABORATOR_TIMEOUT", DefaultTimeout),
	}
}

// Client reads from the food-intake backend.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient HTTPDoer
	metrics    *telemetry.DependencyMetrics
}

// NewClient creates a backend client. Reads are retried on transient failures.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Registry == nil {
		cfg.Registry = resilience.GlobalRegistry
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         cfg.Timeout,
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Registry:        cfg.Registry,
			Logger:          cfg.Logger,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

// GetPatient reads patients/{id}.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	if err := c.get(ctx, "get_patient", "/patients/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetRecommendedIntake reads patients/{id}/recommended-intake and returns its
// nutritional_recommendations object.
func (c *Client) GetRecommendedIntake(ctx context.Context, id string) (Intake, error) {
	var body struct {
		NutritionalRecommendations Intake `json:"nutritional_recommendations"`
	}
	if err := c.get(ctx, "get_recommended_intake", "/patients/"+url.PathEscape(id)+"/recommended-intake", &body); err != nil {
		return nil, err
	}
	if body.NutritionalRecommendations == nil {
		return Intake{}, nil
	}
	return body.NutritionalRecommendations, nil
}

// GetMeal reads meals/{id}.
func (c *Client) GetMeal(ctx context.Context, id string) (*Meal, error) {
	var m Meal
	if err := c.get(ctx, "get_meal", "/meals/"+url.PathEscape(id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PatientQuery performs the patient, recommended-intake and per-meal reads,
// in that order, and composes the query text.
func (c *Client) PatientQuery(ctx context.Context, patientID string) (string, error) {
	p, err := c.GetPatient(ctx, patientID)
	if err != nil {
		return "", err
	}
	in, err := c.GetRecommendedIntake(ctx, patientID)
	if err != nil {
		return "", err
	}

	meals := make([]string, 0, len(p.MealAssignments))
	for _, a := range p.MealAssignments {
		m, err := c.GetMeal(ctx, a.Meal.String())
		if err != nil {
			return "", err
		}
		meals = append(meals, m.Name.String())
	}
	return ComposeQuery(p, in, meals), nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) (err error) {
	start := time.Now()
	defer func() { c.metrics.RecordCall(ProviderName, op, time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrUpstreamFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %w", ErrUpstreamFailure, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrUpstreamFailure, resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstreamFailure, path, err)
	}
	return nil
}
