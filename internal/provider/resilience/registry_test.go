package resilience_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/provider/resilience"
)

func healthOf(t *testing.T, r *resilience.Registry, name string) *resilience.ProviderHealth {
	t.Helper()
	for _, h := range r.GetAllHealth() {
		if h.Name == name {
			return h
		}
	}
	require.FailNow(t, "provider not registered", name)
	return nil
}

func TestRegistry_NewClientRegisters(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("ollama")
	cfg.Registry = registry

	client := resilience.NewClient(cfg)

	require.Len(t, registry.GetAllHealth(), 1)
	health := healthOf(t, registry, "ollama")
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
	assert.Equal(t, "ollama", client.Name())
}

func TestRegistry_WithoutRegistryNothingIsRecorded(t *testing.T) {
	registry := resilience.NewRegistry()
	_ = resilience.NewClient(resilience.DefaultClientConfig("ollama"))

	assert.Empty(t, registry.GetAllHealth())
}

func TestRegistry_RecordSuccessAndFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("rag-generate")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	registry.RecordSuccess("rag-generate")
	registry.RecordFailure("rag-generate", assert.AnError)

	health := healthOf(t, registry, "rag-generate")
	require.NotNil(t, health.LastSuccessAt)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_UnknownProviderIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.NotPanics(t, func() {
		registry.RecordSuccess("nonexistent")
		registry.RecordFailure("nonexistent", assert.AnError)
	})
	assert.Empty(t, registry.GetAllHealth())
}

func TestClient_RecordsCallOutcomes(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("food-intake-backend")
	cfg.Registry = registry
	cfg.DisableRetries = true
	client := resilience.NewClient(cfg)

	call := func() {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	call()
	health := healthOf(t, registry, "food-intake-backend")
	require.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	status.Store(http.StatusBadGateway)
	call()
	health = healthOf(t, registry, "food-intake-backend")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "server error: Bad Gateway", health.LastError)
	assert.Equal(t, uint32(2), health.Counts.Requests)
}

func TestClient_RecordsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("ollama")
	cfg.Registry = registry
	cfg.DisableRetries = true
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, http.NoBody)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)

	health := healthOf(t, registry, "ollama")
	require.NotNil(t, health.LastFailureAt)
	assert.NotEmpty(t, health.LastError)
}

func TestClient_RetriesResendBody(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		n := len(bodies)
		mu.Unlock()
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := resilience.DefaultClientConfig("retry-body")
	cfg.InitialInterval = time.Millisecond
	cfg.MaxInterval = 5 * time.Millisecond
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, bytes.NewReader([]byte(`{"q":"iron"}`)))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"q":"iron"}`, `{"q":"iron"}`}, bodies)
}

func TestClient_LogsStateChanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	var transitions []string
	cbConfig := resilience.CircuitBreakerConfig{
		Name:        "ollama",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to gobreaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}
	cfg := resilience.DefaultClientConfig("ollama")
	cfg.CircuitBreaker = &cbConfig
	cfg.DisableRetries = true
	cfg.Logger = zerolog.New(&logs)
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())
	assert.Equal(t, []string{"closed->open"}, transitions)
	assert.True(t, strings.Contains(logs.String(), `"message":"circuit breaker state changed"`))
	assert.Contains(t, logs.String(), `"to":"open"`)

	_, err = client.Do(req)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state      gobreaker.State
		isHealthy  bool
		isDegraded bool
		isUnhealth bool
	}{
		{gobreaker.StateClosed, true, false, false},
		{gobreaker.StateHalfOpen, false, true, false},
		{gobreaker.StateOpen, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealth, h.IsUnhealthy())
		})
	}
}
