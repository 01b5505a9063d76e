package store

import (
	"slices"

	"github.com/coder/hnsw"
)

// HNSW defaults
const (
	DefaultHNSWM        = 16
	DefaultHNSWEfSearch = 64

	// minCandidates is the smallest candidate pool pulled from the graph
	// before exact re-scoring.
	minCandidates = 32
)

// HNSWSearcher finds candidates with an HNSW graph (coder/hnsw, pure Go)
// and re-scores them with exact cosine so scores match FlatSearcher.
type HNSWSearcher struct {
	graph   *hnsw.Graph[uint64]
	vectors [][]float32
	norms   []float64
}

var _ Searcher = (*HNSWSearcher)(nil)

// NewHNSWSearcher builds a graph over vectors; position i is ChunkID i.
// Zero vectors are left out of the graph since they score 0 anyway.
func NewHNSWSearcher(vectors [][]float32, m, efSearch int) *HNSWSearcher {
	if m <= 0 {
		m = DefaultHNSWM
	}
	if efSearch <= 0 {
		efSearch = DefaultHNSWEfSearch
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = m
	graph.EfSearch = efSearch
	graph.Ml = 0.25 // default level generation factor (1/ln(M))

	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
		// Normalize vector for cosine similarity
		if unit := normalized(v); unit != nil {
			graph.Add(hnsw.MakeNode(uint64(i), unit))
		}
	}

	return &HNSWSearcher{graph: graph, vectors: vectors, norms: norms}
}

// Search implements Searcher.
func (h *HNSWSearcher) Search(query []float32, k int) []Hit {
	if k <= 0 || h.graph.Len() == 0 {
		return nil
	}
	unit := normalized(query)
	if unit == nil || len(unit) != len(h.vectors[0]) {
		return nil
	}

	want := min(max(k*4, minCandidates), h.graph.Len())
	nodes := h.graph.Search(unit, want)

	qn := norm(query)
	hits := make([]Hit, 0, len(nodes))
	for _, node := range nodes {
		id := node.Key
		sim := cosineWithNorms(query, qn, h.vectors[id], h.norms[id])
		hits = append(hits, Hit{ChunkID: ChunkID(id), Score: Score(sim), Similarity: sim})
	}

	slices.SortFunc(hits, compareHits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// newSearcher picks the Searcher for opts.
func newSearcher(vectors [][]float32, opts Options) Searcher {
	if opts.Backend == BackendHNSW {
		return NewHNSWSearcher(vectors, opts.HNSWM, opts.HNSWEfSearch)
	}
	return NewFlatSearcher(vectors)
}
