// Package main provides the entrypoint for the NutriCare generation service:
// the meal-recommendation channel and the recommendation-generation endpoint.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/api"
	"github.com/nutricare/nutricare/internal/api/middleware"
	"github.com/nutricare/nutricare/internal/channel"
	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/llm/ollama"
	"github.com/nutricare/nutricare/internal/rag"
	"github.com/nutricare/nutricare/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "nutricare-ragserver"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	addr := net.JoinHostPort(config.String("WS_HOST", "0.0.0.0"), config.String("WS_PORT", "25002"))

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

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	depMetrics, err := telemetry.NewDependencyMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependency metrics")
	}

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

	// The channel answers single-meal questions.
	channelServer := channel.NewServer(channel.ServerConfig{
		Answerer: pipeline.WithTemplate(rag.MealAnalysis),
		Logger:   log,
	})

	router := api.NewRAGServerRouter(api.RAGServerConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Channel:     channelServer,
		Pipeline:    pipeline,
	})

	// Channel connections are long-lived, so there is no WriteTimeout.
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("generation service listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Int("connections", channelServer.ActiveConnections()).Msg("shutting down server")

	// Hijacked connections are not tracked by Shutdown.
	channelServer.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
