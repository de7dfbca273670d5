// Package main provides the entrypoint for the NutriCare batch worker.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/api/models"
	"github.com/nutricare/nutricare/internal/api/response"
	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/database"
	"github.com/nutricare/nutricare/internal/intake"
	"github.com/nutricare/nutricare/internal/patient"
	"github.com/nutricare/nutricare/internal/recommendation"
	"github.com/nutricare/nutricare/internal/telemetry"
	"github.com/nutricare/nutricare/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nutricare-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting NutriCare worker")

	port := config.String("APP_PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryConfig := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	depMetrics, err := telemetry.NewDependencyMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependency metrics")
	}

	var (
		patients patient.Store
		records  intake.Repository
		menu     intake.MenuRepository
		recRepo  recommendation.Repository
	)
	if config.String("DB_HOST", "") != "" || config.String("DATABASE_URL", "") != "" {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		patients, records, menu, recRepo = postgresStores(pool)
	} else {
		log.Warn().Msg("no database configured, using in-memory stores")
		patients = patient.NewInMemoryStore()
		records = intake.NewInMemoryRepository()
		menu = intake.NewInMemoryMenuRepository()
		recRepo = recommendation.NewInMemoryRepository()
	}

	generationConfig := recommendation.ServiceConfigFromEnv()
	generationConfig.Metrics = depMetrics
	generationConfig.Logger = log
	generationClient := recommendation.NewServiceClient(generationConfig)

	orchestrator := recommendation.NewOrchestrator(recommendation.OrchestratorConfig{
		Patients:   patients,
		Intake:     intake.NewService(records, menu),
		Generator:  generationClient,
		Repository: recRepo,
		Logger:     log,
	})

	job := worker.NewGenerationJob(worker.GenerationJobConfig{
		Config:    worker.GenerationConfigFromEnv(),
		Logger:    log,
		Users:     patients,
		Generator: orchestrator,
	})
	dispatcher := worker.NewDispatcher(job, generationClient, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, models.Health{
			Status: models.HealthStatusOK,
			Time:   models.Timestamp(time.Now()),
			Details: map[string]interface{}{
				"version":    Version,
				"generation": job.MetricsSnapshot(),
			},
		})
	})

	projectID := config.String("PUBSUB_PROJECT_ID", "")
	if projectID == "" {
		// Without Pub/Sub, jobs are posted directly as JSON messages.
		log.Warn().Msg("PUBSUB_PROJECT_ID not set, accepting jobs on POST /jobs")
		mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
			if err != nil {
				response.BadRequest(w, r, "invalid_json", nil)
				return
			}
			if err := dispatcher.Handle(r.Context(), data); err != nil {
				log.Error().Err(err).Msg("job failed")
				response.InternalError(w, r, "job_failed")
				return
			}
			response.JSON(w, r, http.StatusOK, job.MetricsSnapshot())
		})
	} else {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: config.String("PUBSUB_SUBSCRIPTION", "recommendation-jobs"),
			Dispatcher:       dispatcher,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() { _ = handler.Close() }()

		go func() {
			if err := handler.Start(ctx); err != nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Batch jobs can outlive a normal request.
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func postgresStores(pool *pgxpool.Pool) (patient.Store, intake.Repository, intake.MenuRepository, recommendation.Repository) {
	return patient.NewPostgresStore(pool),
		intake.NewPostgresRepository(pool),
		intake.NewPostgresMenuRepository(pool),
		recommendation.NewPostgresRepository(pool)
}
