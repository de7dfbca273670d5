package rag

import (
	"fmt"
	"math"
	"sort"
)

// SearchParams controls maximal-marginal-relevance retrieval.
type SearchParams struct {
	// K is the number of chunks returned.
	K int
	// FetchK is the size of the candidate pool ranked by similarity.
	FetchK int
	// Lambda balances relevance (1) against diversity (0).
	Lambda float64
}

// DefaultSearchParams returns k=10, fetch_k=50, lambda=1.
func DefaultSearchParams() SearchParams {
	return SearchParams{K: 10, FetchK: 50, Lambda: 1}
}

type candidate struct {
	chunk *Chunk
	score float64
}

// Search returns up to p.K chunks selected by MMR from the p.FetchK chunks
// most similar to query, so never more than p.FetchK. A non-positive FetchK
// means K. The result is ordered by selection.
func (idx *Index) Search(query []float32, p SearchParams) ([]Chunk, error) {
	if len(query) != idx.Dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d", ErrRetrievalFailure, len(query), idx.Dimension)
	}
	if p.K <= 0 || len(idx.Chunks) == 0 {
		return []Chunk{}, nil
	}
	if p.FetchK <= 0 {
		p.FetchK = p.K
	}

	pool := make([]candidate, len(idx.Chunks))
	for i := range idx.Chunks {
		pool[i] = candidate{chunk: &idx.Chunks[i], score: cosine(query, idx.Chunks[i].Embedding)}
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })
	if len(pool) > p.FetchK {
		pool = pool[:p.FetchK]
	}

	selected := mmrSelect(pool, p.K, p.Lambda)
	out := make([]Chunk, len(selected))
	for i, c := range selected {
		out[i] = *c.chunk
	}
	return out, nil
}

// mmrSelect expects items sorted by descending score.
func mmrSelect(items []candidate, k int, lambda float64) []candidate {
	if k > len(items) {
		k = len(items)
	}
	selected := make([]candidate, 0, k)
	used := make([]bool, len(items))

	selected = append(selected, items[0])
	used[0] = true

	for len(selected) < k {
		bestIdx := -1
		bestVal := math.Inf(-1)

		for i := range items {
			if used[i] {
				continue
			}
			maxSim := math.Inf(-1)
			for _, s := range selected {
				if sim := cosine(items[i].chunk.Embedding, s.chunk.Embedding); sim > maxSim {
					maxSim = sim
				}
			}
			val := lambda*items[i].score - (1-lambda)*maxSim
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, items[bestIdx])
	}
	return selected
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
