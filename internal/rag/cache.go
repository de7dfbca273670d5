package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/llm"
	"github.com/nutricare/nutricare/internal/telemetry"
)

const embedCacheName = "embeddings"

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a redis client to Store.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Store backed by client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns ErrCacheMiss when the key does not exist.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// Set stores value with ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedEmbedder caches embeddings keyed by model and text digest. Cache
// errors never fail a call; the embedder is consulted instead.
type CachedEmbedder struct {
	next    llm.Embedder
	store   Store
	model   string
	ttl     time.Duration
	metrics *telemetry.DependencyMetrics
	logger  zerolog.Logger
}

// CachedEmbedderConfig configures a CachedEmbedder.
type CachedEmbedderConfig struct {
	Model   string
	TTL     time.Duration
	Metrics *telemetry.DependencyMetrics
	Logger  zerolog.Logger
}

// NewCachedEmbedder wraps next with store.
func NewCachedEmbedder(next llm.Embedder, store Store, cfg CachedEmbedderConfig) *CachedEmbedder {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &CachedEmbedder{
		next:    next,
		store:   store,
		model:   cfg.Model,
		ttl:     cfg.TTL,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// Embed serves cached vectors and embeds only the misses, in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if v, ok := c.lookup(ctx, text); ok {
			out[i] = v
			c.metrics.RecordCacheHit(embedCacheName)
			continue
		}
		c.metrics.RecordCacheMiss(embedCacheName)
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		c.save(ctx, texts[i], vectors[j])
	}
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + c.model + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	b, err := c.store.Get(ctx, c.key(text))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (c *CachedEmbedder) save(ctx context.Context, text string, v []float32) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(text), b, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("embedding cache write failed")
	}
}
