// Package main provides the entrypoint for the NutriCare API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/api"
	"github.com/nutricare/nutricare/internal/api/handler"
	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/channel"
	"github.com/nutricare/nutricare/internal/collaborator"
	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/database"
	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/llm/ollama"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/provider/resilience"
	"github.com/nutricare/nutricare/internal/rag"
	"github.com/nutricare/nutricare/internal/recommendation"
	"github.com/nutricare/nutricare/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nutricare-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting NutriCare API")

	port := config.String("APP_PORT", "8080")

	ctx := context.Background()

	telemetryConfig := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryConfig.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryConfig.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	depMetrics, err := telemetry.NewDependencyMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependency metrics")
	}

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		db       handler.Pinger
		patients patient.Store
		records  intake.Repository
		menu     intake.MenuRepository
		recRepo  recommendation.Repository
	)
	if config.String("DB_HOST", "") != "" || config.String("DATABASE_URL", "") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		db = pool
		patients, records, menu, recRepo = postgresStores(pool)
	} else {
		log.Warn().Msg("no database configured, using in-memory stores")
		patients = patient.NewInMemoryStore()
		records = intake.NewInMemoryRepository()
		menu = intake.NewInMemoryMenuRepository()
		recRepo = recommendation.NewInMemoryRepository()
	}

	intakeService := intake.NewService(records, menu)

	generationConfig := recommendation.ServiceConfigFromEnv()
	generationConfig.Metrics = depMetrics
	generationConfig.Logger = log
	orchestrator := recommendation.NewOrchestrator(recommendation.OrchestratorConfig{
		Patients:   patients,
		Intake:     intakeService,
		Generator:  recommendation.NewServiceClient(generationConfig),
		Repository: recRepo,
		Logger:     log,
	})

	// The retrieval pipeline is built once and shared by every request.
	ragConfig := rag.ConfigFromEnv()
	index, err := rag.LoadIndex(ragConfig.IndexPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", ragConfig.IndexPath).Msg("failed to load vector index")
	}
	log.Info().Int("chunks", len(index.Chunks)).Str("model", index.Model).Msg("vector index loaded")

	ollamaConfig := ollama.ConfigFromEnv()
	ollamaConfig.Metrics = depMetrics
	ollamaConfig.Logger = log
	model := ollama.NewClient(ollamaConfig)

	embedder, closeCache := ragConfig.Embedder(ctx, model, model.EmbedModel(), depMetrics, log)
	defer func() { _ = closeCache() }()

	pipeline := rag.NewPipeline(rag.PipelineConfig{
		Retriever: rag.NewIndexRetriever(index, embedder, ragConfig.Search),
		Generator: model,
		Language:  ragConfig.Language,
		Logger:    log,
	})

	collaboratorConfig := collaborator.ConfigFromEnv()
	collaboratorConfig.Metrics = depMetrics
	collaboratorConfig.Logger = log

	router := api.NewRouter(api.RouterConfig{
		Version:       Version,
		BuildTime:     BuildTime,
		Logger:        log,
		ServiceName:   serviceName,
		Metrics:       metrics,
		DB:            db,
		Registry:      resilience.GlobalRegistry,
		IntakeService: intakeService,
		Channel:       channel.NewClient(channel.ClientConfigFromEnv()),
		Orchestrator:  orchestrator,
		Pipeline:      pipeline,
		Patients:      collaborator.NewClient(collaboratorConfig),
	})

	// Generation calls can take most of a minute.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func postgresStores(pool *pgxpool.Pool) (patient.Store, intake.Repository, intake.MenuRepository, recommendation.Repository) {
	return patient.NewPostgresStore(pool),
		intake.NewPostgresRepository(pool),
		intake.NewPostgresMenuRepository(pool),
		recommendation.NewPostgresRepository(pool)
}
