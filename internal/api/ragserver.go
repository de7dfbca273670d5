package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/api/handler"
	"github.com/nutricare/nutricare/internal/api/middleware"
)

// RAGServerConfig holds configuration for the generation service router.
type RAGServerConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Channel serves websocket upgrades on "/".
	Channel  http.Handler
	Pipeline handler.Summarizer
}

// NewRAGServerRouter creates the router of the generation service: the
// duplex channel, POST /generate and GET /health.
func NewRAGServerRouter(cfg RAGServerConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nutricare-ragserver"
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{Version: cfg.Version, BuildTime: cfg.BuildTime})
	generationHandler := handler.NewGenerationHandler(cfg.Pipeline)

	if cfg.Channel != nil {
		r.Get("/", cfg.Channel.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireJSON)

		r.Get("/health", opsHandler.HealthCheck)
		r.With(middleware.RateLimitByIP(middleware.GenerationRateLimit)).Post("/generate", generationHandler.Generate)
	})

	return r
}
