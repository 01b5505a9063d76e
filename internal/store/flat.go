package store

import "slices"

// FlatSearcher scans every vector. It is exact and needs no build step.
type FlatSearcher struct {
	vectors [][]float32
	norms   []float64
}

var _ Searcher = (*FlatSearcher)(nil)

// NewFlatSearcher indexes vectors by position; position i is ChunkID i.
func NewFlatSearcher(vectors [][]float32) *FlatSearcher {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &FlatSearcher{vectors: vectors, norms: norms}
}

// Search implements Searcher.
func (f *FlatSearcher) Search(query []float32, k int) []Hit {
	if k <= 0 || len(f.vectors) == 0 {
		return nil
	}
	qn := norm(query)

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		sim := cosineWithNorms(query, qn, v, f.norms[i])
		hits[i] = Hit{ChunkID: ChunkID(i), Score: Score(sim), Similarity: sim}
	}

	// Stable on insertion order for equal scores
	slices.SortStableFunc(hits, func(a, b Hit) int { return b.Score - a.Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
