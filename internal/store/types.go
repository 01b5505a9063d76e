// Package store holds the searchable vector index. An Index is an
// immutable snapshot built by a Builder and published to a Store with a
// single pointer swap; readers never see a partially built index. The
// Store persists snapshots as a gob vector artifact plus a SQLite
// metadata database.
package store

import "time"

// ChunkID identifies a chunk within one index. IDs are dense insertion
// ordinals starting at 0.
type ChunkID uint64

// Document is one indexed file, keyed by absolute path.
type Document struct {
	Path        string `json:"file_path"`
	Name        string `json:"file_name"`
	SizeBytes   int64  `json:"file_size"`
	Extension   string `json:"extension"`
	TotalChunks int    `json:"total_chunks"`
}

// Chunk is a stored window of a document's text.
type Chunk struct {
	ID           ChunkID
	DocumentPath string
	Index        int
	Total        int
	Text         string
	CharOffset   int
}

// Hit is one nearest-neighbor result.
type Hit struct {
	ChunkID ChunkID
	// Score is round(cosine*100) clamped to [0,100].
	Score int
	// Similarity is the raw cosine similarity.
	Similarity float32
}

// Searcher answers top-k queries over an index's vectors.
type Searcher interface {
	// Search returns at most k hits ordered by score descending, ties
	// broken by ascending ChunkID.
	Search(query []float32, k int) []Hit
}

// Backend selects the Searcher implementation.
type Backend string

const (
	// BackendFlat is exact brute-force cosine search.
	BackendFlat Backend = "flat"
	// BackendHNSW is approximate candidate search re-scored exactly.
	BackendHNSW Backend = "hnsw"
)

// Options configures how indexes are searched.
type Options struct {
	Backend Backend
	// HNSWM is the maximum neighbors per HNSW node (default 16).
	HNSWM int
	// HNSWEfSearch is the HNSW candidate list size (default 64).
	HNSWEfSearch int
}

// Stats summarizes the published index.
type Stats struct {
	Indexed          bool      `json:"indexed"`
	TotalFiles       int       `json:"total_files"`
	TotalVectors     int       `json:"total_vectors"`
	IndexedDirectory string    `json:"indexed_directory"`
	Dimension        int       `json:"dimension"`
	Model            string    `json:"embedding_model,omitempty"`
	BuiltAt          time.Time `json:"built_at,omitzero"`
}
