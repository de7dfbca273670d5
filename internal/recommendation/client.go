package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/provider/resilience"
	"github.com/nutricare/nutricare/internal/telemetry"
)

const (
	// ServiceProviderName identifies the generation service in the
	// resilience registry.
	ServiceProviderName = "rag-generate"

	DefaultServiceURL     = "http://localhost:25002"
	DefaultServiceTimeout = 20 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ServiceConfig holds configuration for the generation service client.
type ServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Metrics    *telemetry.DependencyMetrics

	// Registry receives call outcomes of the resilient client
	// (default: resilience.GlobalRegistry).
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// ServiceConfigFromEnv reads RAG_API_BASE and RAG_API_TIMEOUT.
func ServiceConfigFromEnv() ServiceConfig {
	return ServiceConfig{
		BaseURL: config.String("RAG_API_BASE", DefaultServiceURL),
		Timeout: config.Duration("RAG_API_TIMEOUT", DefaultServiceTimeout),
	}
}

// ServiceClient calls the recommendation-generation service.
type ServiceClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient HTTPDoer
	metrics    *telemetry.DependencyMetrics
}

// NewServiceClient creates a generation service client. Calls are not retried.
func NewServiceClient(cfg ServiceConfig) *ServiceClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultServiceURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultServiceTimeout
	}

	if cfg.Registry == nil {
		cfg.Registry = resilience.GlobalRegistry
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:           ServiceProviderName,
			Timeout:        cfg.Timeout,
			DisableRetries: true,
			Registry:       cfg.Registry,
			Logger:         cfg.Logger,
		})
	}

	return &ServiceClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

// Generate posts the context to /generate and returns the service reply.
func (c *ServiceClient) Generate(ctx context.Context, gc GenerationContext) (out *GenerationResponse, err error) {
	start := time.Now()
	defer func() { c.metrics.RecordCall(ServiceProviderName, "generate", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(GenerationRequest{PromptType: PromptTypeRecommendation, Context: gc})
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d from generation service: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var gr GenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	return &gr, nil
}

// Health checks GET /health.
func (c *ServiceClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
