// Package main builds the vector index of reference nutrition documents.
package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutricare/nutricare/internal/llm/ollama"
	"github.com/nutricare/nutricare/internal/rag"
	"github.com/nutricare/nutricare/internal/telemetry"
)

func main() {
	var (
		dir         = flag.String("dir", "data/docs", "directory of .txt and .md reference documents")
		out         = flag.String("out", "data/index.json", "index file to write")
		concurrency = flag.Int("concurrency", 4, "concurrent embedding calls")
		batchSize   = flag.Int("batch", 16, "passages per embedding call")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Str("service", "nutricare-ragindex").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := readDocuments(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("failed to read documents")
	}
	log.Info().Int("documents", len(docs)).Str("dir", *dir).Msg("documents loaded")

	depMetrics, err := telemetry.NewDependencyMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependency metrics")
	}
	ollamaConfig := ollama.ConfigFromEnv()
	ollamaConfig.Metrics = depMetrics
	ollamaConfig.Logger = log
	model := ollama.NewClient(ollamaConfig)

	start := time.Now()
	idx, err := rag.BuildIndex(ctx, docs, rag.BuildConfig{
		Chunker:     rag.DefaultChunker(),
		Embedder:    model,
		Model:       model.EmbedModel(),
		BatchSize:   *batchSize,
		Concurrency: *concurrency,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build index")
	}

	if err := idx.Save(*out); err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("failed to save index")
	}

	log.Info().
		Int("chunks", len(idx.Chunks)).
		Int("dimension", idx.Dimension).
		Str("model", idx.Model).
		Dur("duration", time.Since(start)).
		Str("out", *out).
		Msg("index written")
}

func readDocuments(dir string) ([]rag.Document, error) {
	var docs []rag.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, rag.Document{Source: filepath.ToSlash(rel), Text: string(data)})
		return nil
	})
	return docs, err
}
