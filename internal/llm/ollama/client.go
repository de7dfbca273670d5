// Package ollama provides a client for the Ollama generate and embed APIs.
package ollama

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
	"github.com/nutricare/nutricare/internal/llm"
	"github.com/nutricare/nutricare/internal/provider/resilience"
	"github.com/nutricare/nutricare/internal/telemetry"
)

const (
	// ProviderName identifies this provider in the resilience registry.
	ProviderName = "ollama"

	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "deepseek-r1:8b"
	DefaultEmbedModel = "nomic-embed-text:v1.5"
	DefaultTimeout    = 30 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Ollama client.
type ClientConfig struct {
	BaseURL    string
	Model      string
	EmbedModel string

	// Timeout bounds every model call (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the resilient client. Tests pass a plain
	// http.Client.
	HTTPClient HTTPDoer

	// Registry receives call outcomes of the resilient client
	// (default: resilience.GlobalRegistry).
	Registry *resilience.Registry
	Logger   zerolog.Logger

	// Metrics is optional.
	Metrics *telemetry.DependencyMetrics
}

// ConfigFromEnv reads OLLAMA_HOST, OLLAMA_MODEL, OLLAMA_EMBED_MODEL and
// OLLAMA_TIMEOUT.
func ConfigFromEnv() ClientConfig {
	return ClientConfig{
		BaseURL:    config.String("OLLAMA_HOST", DefaultBaseURL),
		Model:      config.String("OLLAMA_MODEL", DefaultModel),
		EmbedModel: config.String("OLLAMA_EMBED_MODEL", DefaultEmbedModel),
		Timeout:    config.Duration("OLLAMA_TIMEOUT", DefaultTimeout),
	}
}

// Client calls a local or remote Ollama server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	embedModel string
	timeout    time.Duration
	httpClient HTTPDoer
	metrics    *telemetry.DependencyMetrics
}

var (
	_ llm.Generator = (*Client)(nil)
	_ llm.Embedder  = (*Client)(nil)
)

// NewClient creates a new Ollama client. Model calls are not retried.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
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
			Name:           ProviderName,
			Timeout:        cfg.Timeout,
			DisableRetries: true,
			Registry:       cfg.Registry,
			Logger:         cfg.Logger,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

// Model returns the generation model name.
func (c *Client) Model() string { return c.model }

// EmbedModel returns the embedding model name.
func (c *Client) EmbedModel() string { return c.embedModel }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Generate sends prompt to /api/generate with streaming disabled and returns
// the trimmed response text. Every failure is a *llm.GenerationError.
func (c *Client) Generate(ctx context.Context, prompt string) (text string, err error) {
	start := time.Now()
	defer func() { c.metrics.RecordCall(ProviderName, "generate", time.Since(start), err) }()

	var out generateResponse
	if err := c.post(ctx, "/api/generate", generateRequest{Model: c.model, Prompt: prompt}, &out); err != nil {
		return "", llm.Unavailable("generate", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// Embed sends texts to /api/embed and returns one vector per text.
func (c *Client) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { c.metrics.RecordCall(ProviderName, "embed", time.Since(start), err) }()

	var out embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: c.embedModel, Input: texts}, &out); err != nil {
		return nil, llm.Unavailable("embed", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, llm.Unavailable("embed", fmt.Errorf("got %d embeddings for %d inputs", len(out.Embeddings), len(texts)))
	}
	return out.Embeddings, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
