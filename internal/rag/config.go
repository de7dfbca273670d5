package rag

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/config"
	"github.com/nutricare/nutricare/internal/llm"
	"github.com/nutricare/nutricare/internal/telemetry"
)

// Config holds the process settings for the retrieval pipeline.
type Config struct {
	IndexPath string
	Language  string
	Search    SearchParams

	// RedisAddr enables the embedding cache when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// ConfigFromEnv reads RAG_INDEX_PATH, RAG_TARGET_LANGUAGE, RAG_K,
// RAG_FETCH_K, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and EMBED_CACHE_TTL.
func ConfigFromEnv() Config {
	def := DefaultSearchParams()
	return Config{
		IndexPath: config.String("RAG_INDEX_PATH", "data/index.json"),
		Language:  config.String("RAG_TARGET_LANGUAGE", DefaultLanguage),
		Search: SearchParams{
			K:      config.Int("RAG_K", def.K),
			FetchK: config.Int("RAG_FETCH_K", def.FetchK),
			Lambda: def.Lambda,
		},
		RedisAddr:     config.String("REDIS_ADDR", ""),
		RedisPassword: config.String("REDIS_PASSWORD", ""),
		RedisDB:       config.Int("REDIS_DB", 0),
		CacheTTL:      config.Duration("EMBED_CACHE_TTL", 24*time.Hour),
	}
}

// Embedder returns next wrapped in a Redis-backed cache, or next itself when
// no Redis address is configured or the server does not answer a ping. The
// returned close function is never nil.
func (c Config) Embedder(ctx context.Context, next llm.Embedder, model string, metrics *telemetry.DependencyMetrics, logger zerolog.Logger) (llm.Embedder, func() error) {
	noop := func() error { return nil }
	if c.RedisAddr == "" {
		return next, noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:       c.RedisAddr,
		Password:   c.RedisPassword,
		DB:         c.RedisDB,
		MaxRetries: -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", c.RedisAddr).Msg("redis unavailable, embedding cache disabled")
		_ = client.Close()
		return next, noop
	}

	logger.Info().Str("addr", c.RedisAddr).Dur("ttl", c.CacheTTL).Msg("embedding cache enabled")
	return NewCachedEmbedder(next, NewRedisStore(client), CachedEmbedderConfig{
		Model:   model,
		TTL:     c.CacheTTL,
		Metrics: metrics,
		Logger:  logger,
	}), client.Close
}
