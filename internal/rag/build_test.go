package rag_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/nutricare/internal/rag"
)

type batchEmbedder struct {
	mu      sync.Mutex
	batches int
	fail    bool
	dim     int
}

func (e *batchEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	if e.fail {
		return nil, errors.New("model not loaded")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, e.dim)
		v[0] = float32(len(t))
		out[i] = v
	}
	return out, nil
}

func TestBuildIndex(t *testing.T) {
	emb := &batchEmbedder{dim: 3}
	docs := []rag.Document{
		{Source: "dri.txt", Text: strings.Repeat("Protein supports muscle. ", 10)},
		{Source: "fiber.txt", Text: "Fiber aids digestion."},
		{Source: "empty.txt", Text: "   "},
	}

	idx, err := rag.BuildIndex(context.Background(), docs, rag.BuildConfig{
		Chunker:     rag.Chunker{Size: 100, Overlap: 10},
		Embedder:    emb,
		Model:       "nomic-embed-text:v1.5",
		BatchSize:   2,
		Concurrency: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "nomic-embed-text:v1.5", idx.Model)
	assert.Equal(t, 3, idx.Dimension)
	require.Greater(t, len(idx.Chunks), 2)
	assert.Equal(t, "dri.txt#0", idx.Chunks[0].ID)

	last := idx.Chunks[len(idx.Chunks)-1]
	assert.Equal(t, "fiber.txt#0", last.ID)
	assert.Equal(t, "fiber.txt", last.Source)
	assert.Equal(t, float32(len(last.Text)), last.Embedding[0])

	assert.Equal(t, (len(idx.Chunks)+1)/2, emb.batches)
}

func TestBuildIndex_SavesLoadableIndex(t *testing.T) {
	idx, err := rag.BuildIndex(context.Background(),
		[]rag.Document{{Source: "a.txt", Text: "Calcium keeps bones strong."}},
		rag.BuildConfig{Chunker: rag.DefaultChunker(), Embedder: &batchEmbedder{dim: 2}, Model: "m"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, idx.Save(path))

	loaded, err := rag.LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, idx, loaded)
}

func TestBuildIndex_EmbedFailure(t *testing.T) {
	_, err := rag.BuildIndex(context.Background(),
		[]rag.Document{{Source: "a.txt", Text: "Vitamin D."}},
		rag.BuildConfig{Chunker: rag.DefaultChunker(), Embedder: &batchEmbedder{dim: 2, fail: true}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestBuildIndex_NoPassages(t *testing.T) {
	_, err := rag.BuildIndex(context.Background(), nil,
		rag.BuildConfig{Chunker: rag.DefaultChunker(), Embedder: &batchEmbedder{dim: 2}})
	assert.Error(t, err)
}
