// Package rag implements retrieval-augmented generation over a vector index
// of reference nutrition documents.
package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrRetrievalFailure is returned when the index cannot be loaded or searched.
var ErrRetrievalFailure = errors.New("retrieval failure")

// Chunk is one embedded passage of a reference document.
type Chunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Index is an in-memory vector index. It is read-only after loading and safe
// to share between goroutines.
type Index struct {
	Model     string  `json:"model"`
	Dimension int     `json:"dimension"`
	Chunks    []Chunk `json:"chunks"`
}

// LoadIndex reads and validates an index file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %w", ErrRetrievalFailure, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: decode index %s: %w", ErrRetrievalFailure, path, err)
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return &idx, nil
}

// Validate checks that every chunk has the declared dimension.
func (idx *Index) Validate() error {
	if idx.Dimension <= 0 {
		return fmt.Errorf("%w: index dimension must be positive, got %d", ErrRetrievalFailure, idx.Dimension)
	}
	for i, c := range idx.Chunks {
		if len(c.Embedding) != idx.Dimension {
			return fmt.Errorf("%w: chunk %d (%s) has dimension %d, want %d",
				ErrRetrievalFailure, i, c.ID, len(c.Embedding), idx.Dimension)
		}
	}
	return nil
}

// Save writes the index as JSON.
func (idx *Index) Save(path string) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
