package rag

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nutricare/nutricare/internal/llm"
)

// Document is a source text to be indexed.
type Document struct {
	Source string
	Text   string
}

// BuildConfig configures BuildIndex.
type BuildConfig struct {
	Chunker  Chunker
	Embedder llm.Embedder
	Model    string

	// BatchSize is the number of passages per embedding call (default: 16).
	BatchSize int
	// Concurrency bounds in-flight embedding calls (default: 4).
	Concurrency int
}

// BuildIndex chunks docs, embeds every passage and returns the index.
// Chunk IDs are "<source>#<n>" in document order.
func BuildIndex(ctx context.Context, docs []Document, cfg BuildConfig) (*Index, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	var chunks []Chunk
	for _, doc := range docs {
		for n, text := range cfg.Chunker.Split(doc.Text) {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%s#%d", doc.Source, n),
				Source: doc.Source,
				Text:   text,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, errors.New("no passages to index")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for start := 0; start < len(chunks); start += cfg.BatchSize {
		batch := chunks[start:min(start+cfg.BatchSize, len(chunks))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vectors, err := cfg.Embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed %s: %w", batch[0].ID, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed %s: got %d vectors for %d passages", batch[0].ID, len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{Model: cfg.Model, Dimension: len(chunks[0].Embedding), Chunks: chunks}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}
