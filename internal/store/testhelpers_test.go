package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/nlpfinder/internal/chunk"
)

// buildIndex creates an index with one single-chunk document per vector.
func buildIndex(t *testing.T, opts Options, vectors ...[]float32) *Index {
	t.Helper()
	b := NewBuilder("/data", "test-model", opts)
	for i, v := range vectors {
		path := fmt.Sprintf("/data/file%d.txt", i)
		b.AddDocument(Document{Path: path, Name: fmt.Sprintf("file%d.txt", i), SizeBytes: 10, Extension: ".txt", TotalChunks: 1})
		require.NoError(t, b.AddBatch([]Entry{{
			Chunk:  chunk.Chunk{DocumentPath: path, Index: 0, Total: 1, Text: fmt.Sprintf("text %d", i)},
			Vector: v,
		}}))
	}
	idx, err := b.Build()
	require.NoError(t, err)
	return idx
}
