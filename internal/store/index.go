package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Aman-CERP/nlpfinder/internal/chunk"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// Index is an immutable, fully consistent snapshot: every chunk has a
// vector and an owning document. Safe for concurrent readers.
type Index struct {
	directory string
	model     string
	builtAt   time.Time
	dims      int

	chunks  []Chunk     // position == ChunkID
	vectors [][]float32 // position == ChunkID
	docs    map[string]Document
	order   []string // document paths sorted by lowercase name
	byDoc   map[string][]ChunkID

	searcher Searcher
}

// newIndex assembles and validates a snapshot.
func newIndex(directory, model string, builtAt time.Time, docs []Document, chunks []Chunk, vectors [][]float32, opts Options) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, nferrors.New(nferrors.ErrCodeCorruptIndex,
			fmt.Sprintf("%d chunks but %d vectors", len(chunks), len(vectors)), nil)
	}

	idx := &Index{
		directory: directory,
		model:     model,
		builtAt:   builtAt,
		chunks:    chunks,
		vectors:   vectors,
		docs:      make(map[string]Document, len(docs)),
		byDoc:     make(map[string][]ChunkID, len(docs)),
	}
	if len(vectors) > 0 {
		idx.dims = len(vectors[0])
	}

	for _, d := range docs {
		idx.docs[d.Path] = d
		idx.order = append(idx.order, d.Path)
	}
	for i, c := range chunks {
		if c.ID != ChunkID(i) {
			return nil, nferrors.New(nferrors.ErrCodeCorruptIndex,
				fmt.Sprintf("chunk %d has id %d", i, c.ID), nil)
		}
		if _, ok := idx.docs[c.DocumentPath]; !ok {
			return nil, nferrors.New(nferrors.ErrCodeCorruptIndex,
				fmt.Sprintf("chunk %d references unknown document %s", i, c.DocumentPath), nil)
		}
		if len(vectors[i]) != idx.dims {
			return nil, nferrors.New(nferrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(vectors[i]), idx.dims), nil)
		}
		idx.byDoc[c.DocumentPath] = append(idx.byDoc[c.DocumentPath], c.ID)
	}

	slices.SortStableFunc(idx.order, func(a, b string) int {
		return strings.Compare(strings.ToLower(idx.docs[a].Name), strings.ToLower(idx.docs[b].Name))
	})

	idx.searcher = newSearcher(vectors, opts)
	return idx, nil
}

// Chunk returns the chunk with the given id.
func (x *Index) Chunk(id ChunkID) (Chunk, bool) {
	if uint64(id) >= uint64(len(x.chunks)) {
		return Chunk{}, false
	}
	return x.chunks[id], true
}

// Vector returns the embedding of the given chunk.
func (x *Index) Vector(id ChunkID) ([]float32, bool) {
	if uint64(id) >= uint64(len(x.vectors)) {
		return nil, false
	}
	return x.vectors[id], true
}

// Document returns the document at an absolute path.
func (x *Index) Document(path string) (Document, bool) {
	d, ok := x.docs[path]
	return d, ok
}

// Documents returns all documents sorted by lowercase file name.
func (x *Index) Documents() []Document {
	out := make([]Document, 0, len(x.order))
	for _, p := range x.order {
		out = append(out, x.docs[p])
	}
	return out
}

// ChunksOf returns a document's chunk ids in text order.
func (x *Index) ChunksOf(path string) []ChunkID {
	return slices.Clone(x.byDoc[path])
}

// Len returns the number of vectors.
func (x *Index) Len() int { return len(x.vectors) }

// Dimensions returns the vector dimension.
func (x *Index) Dimensions() int { return x.dims }

// Directory returns the indexed root directory.
func (x *Index) Directory() string { return x.directory }

// Model returns the embedding model the index was built with.
func (x *Index) Model() string { return x.model }

// BuiltAt returns when the index was built.
func (x *Index) BuiltAt() time.Time { return x.builtAt }

// Search returns the top-k hits for query.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if x.dims != 0 && len(query) != x.dims {
		return nil, nferrors.New(nferrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("query has dimension %d, index has %d", len(query), x.dims), nil).
			WithSuggestion("The embedding model changed since indexing; re-index the directory")
	}
	return x.searcher.Search(query, k), nil
}

// Stats summarizes the snapshot.
func (x *Index) Stats() Stats {
	return Stats{
		Indexed:          true,
		TotalFiles:       len(x.docs),
		TotalVectors:     len(x.vectors),
		IndexedDirectory: x.directory,
		Dimension:        x.dims,
		Model:            x.model,
		BuiltAt:          x.builtAt,
	}
}

// Entry pairs a chunk with its embedding for Builder.AddBatch.
type Entry struct {
	Chunk  chunk.Chunk
	Vector []float32
}

// Builder accumulates the pending index for one indexing run. It is not
// safe for concurrent use.
type Builder struct {
	directory string
	model     string
	opts      Options
	dims      int

	docs    []Document
	seen    map[string]bool
	chunks  []Chunk
	vectors [][]float32
}

// NewBuilder starts a pending index for directory.
func NewBuilder(directory, model string, opts Options) *Builder {
	return &Builder{
		directory: directory,
		model:     model,
		opts:      opts,
		seen:      make(map[string]bool),
	}
}

// AddDocument registers a document. Adding the same path twice is a no-op.
func (b *Builder) AddDocument(doc Document) {
	if b.seen[doc.Path] {
		return
	}
	b.seen[doc.Path] = true
	b.docs = append(b.docs, doc)
}

// AddBatch appends embedded chunks in order. Every vector must share the
// dimension of the first one added; a mismatch is DimensionMismatch.
func (b *Builder) AddBatch(entries []Entry) error {
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return nferrors.New(nferrors.ErrCodeDimensionMismatch, "empty embedding vector", nil)
		}
		if b.dims == 0 {
			b.dims = len(e.Vector)
		}
		if len(e.Vector) != b.dims {
			return nferrors.New(nferrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("embedding has dimension %d, expected %d", len(e.Vector), b.dims), nil).
				WithDetail("path", e.Chunk.DocumentPath)
		}
	}

	b.chunks = slices.Grow(b.chunks, len(entries))
	b.vectors = slices.Grow(b.vectors, len(entries))
	for _, e := range entries {
		b.chunks = append(b.chunks, Chunk{
			ID:           ChunkID(len(b.chunks)),
			DocumentPath: e.Chunk.DocumentPath,
			Index:        e.Chunk.Index,
			Total:        e.Chunk.Total,
			Text:         e.Chunk.Text,
			CharOffset:   e.Chunk.CharOffset,
		})
		b.vectors = append(b.vectors, e.Vector)
	}
	return nil
}

// Documents returns the number of registered documents.
func (b *Builder) Documents() int { return len(b.docs) }

// Len returns the number of vectors added so far.
func (b *Builder) Len() int { return len(b.vectors) }

// Build freezes the pending index. The builder must not be used after.
func (b *Builder) Build() (*Index, error) {
	return newIndex(b.directory, b.model, time.Now().UTC(), b.docs, b.chunks, b.vectors, b.opts)
}
