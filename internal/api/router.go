// Package api provides the HTTP API for NutriCare.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/api/handler"
	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// DB is pinged by /ops/ready; nil means in-memory stores.
	DB       handler.Pinger
	Registry *resilience.Registry

	IntakeService *intake.Service
	Channel       handler.Asker
	Orchestrator  handler.Orchestrator
	Pipeline      handler.Recommender
	Patients      handler.PatientQuerier
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "nutricare-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Registry:  cfg.Registry,
	})
	nutritionHandler := handler.NewNutritionHandler()
	intakeHandler := handler.NewIntakeHandler(cfg.IntakeService)
	recommendationHandler := handler.NewRecommendationHandler(cfg.Channel, cfg.Orchestrator)
	ragHandler := handler.NewRAGHandler(cfg.Pipeline, cfg.Patients)

	generationRateLimit := middleware.RateLimitByIPAndPath(middleware.GenerationRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)           // 100 req/min

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	r.With(standardRateLimit).Post("/dri", nutritionHandler.DRI)

	r.Route("/intake", func(r chi.Router) {
		r.Use(standardRateLimit)
		r.Post("/calculate", intakeHandler.Calculate)
		r.Post("/records", intakeHandler.CreateRecord)
	})

	r.With(standardRateLimit).Get("/users/{userId}/recommendations", recommendationHandler.History)

	// Generation endpoints call the language model.
	r.Route("/recommendations", func(r chi.Router) {
		r.Use(generationRateLimit)
		r.Post("/generate", recommendationHandler.Generate)
		r.Post("/periodic", recommendationHandler.Periodic)
	})

	r.Route("/rag", func(r chi.Router) {
		r.Use(generationRateLimit)
		r.Post("/query", ragHandler.Query)
		r.Post("/query/tr-cn", ragHandler.QueryTranslated)
		r.Route("/recommendations/patient/{patientId}", func(r chi.Router) {
			r.Get("/", ragHandler.Patient)
			r.Post("/", ragHandler.Patient)
			r.Get("/tr-cn", ragHandler.PatientTranslated)
			r.Post("/tr-cn", ragHandler.PatientTranslated)
		})
	})

	return r
}
