package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

func TestStore_SearchBeforePublish(t *testing.T) {
	// Given: a fresh store
	s := New(t.TempDir(), Options{})

	// When: searching
	_, _, err := s.Search(context.Background(), []float32{1, 0}, 5)

	// Then: there is no index
	assert.ErrorIs(t, err, nferrors.ErrIndexNotFound)
	assert.False(t, s.Stats().Indexed)
	assert.Nil(t, s.Current())
}

func TestStore_PublishAndSearch(t *testing.T) {
	s := New(t.TempDir(), Options{})
	idx := buildIndex(t, s.Options(), []float32{1, 0}, []float32{0, 1})

	s.Publish(idx)

	hits, used, err := s.Search(context.Background(), []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Same(t, idx, used)
	assert.Equal(t, ChunkID(1), hits[0].ChunkID)
	assert.Equal(t, 2, s.Stats().TotalFiles)
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	// Given: a persisted index
	dir := t.TempDir()
	s := New(dir, Options{})
	idx := buildIndex(t, s.Options(), []float32{1, 0, 0}, []float32{0, 1, 0}, []float32{0, 0, 1})
	require.NoError(t, s.Persist(context.Background(), idx))

	assert.FileExists(t, filepath.Join(dir, VectorsFileName))
	assert.FileExists(t, filepath.Join(dir, MetadataFileName))

	// When: a second store loads it
	other := New(dir, Options{Backend: BackendHNSW})
	loaded, err := other.Load(context.Background())

	// Then: the snapshot is equivalent and searchable
	require.NoError(t, err)
	assert.Nil(t, other.Current(), "Load does not publish")
	assert.Equal(t, idx.Len(), loaded.Len())
	assert.Equal(t, idx.Dimensions(), loaded.Dimensions())
	assert.Equal(t, idx.Directory(), loaded.Directory())
	assert.Equal(t, idx.Model(), loaded.Model())
	assert.True(t, idx.BuiltAt().Equal(loaded.BuiltAt()))
	assert.Equal(t, idx.Documents(), loaded.Documents())

	for id := ChunkID(0); int(id) < idx.Len(); id++ {
		want, _ := idx.Chunk(id)
		got, ok := loaded.Chunk(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	hits, err := loaded.Search([]float32{0, 0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, ChunkID(2), hits[0].ChunkID)

	meta, err := OpenMetadata(filepath.Join(dir, MetadataFileName))
	require.NoError(t, err)
	defer meta.Close()
	model, err := meta.State(context.Background(), StateKeyModel)
	require.NoError(t, err)
	assert.Equal(t, "test-model", model)
}

func TestStore_PersistReplacesPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, Options{})
	require.NoError(t, s.Persist(context.Background(), buildIndex(t, Options{}, []float32{1, 0}, []float32{0, 1})))
	require.NoError(t, s.Persist(context.Background(), buildIndex(t, Options{}, []float32{1, 1, 1})))

	loaded, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, 3, loaded.Dimensions())
	assert.Len(t, loaded.Documents(), 1)
}

func TestStore_FailedMetadataWriteKeepsPreviousIndex(t *testing.T) {
	// Given: a persisted two-dimensional index
	dir := t.TempDir()
	s := New(dir, Options{})
	require.NoError(t, s.Persist(context.Background(), buildIndex(t, Options{}, []float32{1, 0}, []float32{0, 1})))

	// And: the metadata temp path is blocked by a non-empty directory
	require.NoError(t, os.MkdirAll(filepath.Join(dir, MetadataFileName+".tmp", "blocked"), 0o755))

	// When: persisting a different index
	err := s.Persist(context.Background(), buildIndex(t, Options{}, []float32{1, 1, 1}))

	// Then: the persist fails as a write error
	require.Error(t, err)
	assert.Equal(t, nferrors.ErrCodeFileWrite, nferrors.GetCode(err))

	// And: the previous pair still loads intact
	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, 2, loaded.Dimensions())
	assert.Len(t, loaded.Documents(), 2)

	// And: no staged vector artifact is left behind
	_, statErr := os.Stat(filepath.Join(dir, VectorsFileName+".tmp"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_LoadRejectsMismatchedArtifacts(t *testing.T) {
	// Given: vectors from one build and metadata from another
	first, second := t.TempDir(), t.TempDir()
	idxA := buildIndex(t, Options{}, []float32{1, 0})
	idxA.builtAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idxB := buildIndex(t, Options{}, []float32{0, 1})
	idxB.builtAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, New(first, Options{}).Persist(context.Background(), idxA))
	require.NoError(t, New(second, Options{}).Persist(context.Background(), idxB))

	vectors, err := os.ReadFile(filepath.Join(second, VectorsFileName))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(first, VectorsFileName), vectors, 0o644))

	// When: loading the torn pair
	_, err = New(first, Options{}).Load(context.Background())

	// Then: it is reported as corrupt
	require.Error(t, err)
	assert.Equal(t, nferrors.ErrCodeCorruptIndex, nferrors.GetCode(err))
}

func TestStore_LoadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), Options{})

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, nferrors.ErrIndexNotFound)
}

func TestStore_LoadCorruptVectors(t *testing.T) {
	// Given: a garbage vector artifact
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorsFileName), []byte("not a gob"), 0o644))
	s := New(dir, Options{})

	// When: loading
	_, err := s.Load(context.Background())

	// Then: the index is corrupt rather than missing
	require.Error(t, err)
	assert.Equal(t, nferrors.ErrCodeCorruptIndex, nferrors.GetCode(err))
}

func TestStore_LoadMissingMetadataIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, Options{})
	require.NoError(t, s.Persist(context.Background(), buildIndex(t, Options{}, []float32{1, 0})))
	removeSQLite(filepath.Join(dir, MetadataFileName))

	_, err := s.Load(context.Background())

	assert.Equal(t, nferrors.ErrCodeCorruptIndex, nferrors.GetCode(err))
}

func TestStore_Clear(t *testing.T) {
	// Given: a published and persisted index
	dir := t.TempDir()
	s := New(dir, Options{})
	idx := buildIndex(t, Options{}, []float32{1, 0})
	require.NoError(t, s.Persist(context.Background(), idx))
	s.Publish(idx)

	// When: clearing
	require.NoError(t, s.Clear(context.Background()))

	// Then: nothing is searchable or loadable
	_, _, err := s.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, nferrors.ErrIndexNotFound)
	assert.NoFileExists(t, filepath.Join(dir, VectorsFileName))
	assert.NoFileExists(t, filepath.Join(dir, MetadataFileName))

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, nferrors.ErrIndexNotFound)

	// Clearing twice is fine
	assert.NoError(t, s.Clear(context.Background()))
}

func TestStore_ConcurrentSearchDuringPublish(t *testing.T) {
	// Given: an initial index of 2-dim vectors
	s := New(t.TempDir(), Options{})
	first := buildIndex(t, Options{}, []float32{1, 0}, []float32{0, 1})
	second := buildIndex(t, Options{}, []float32{1, 1}, []float32{1, 0}, []float32{0, 1})
	s.Publish(first)

	// When: readers search while the index is swapped repeatedly
	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				hits, used, err := s.Search(context.Background(), []float32{1, 0}, 3)
				if err != nil {
					t.Errorf("search: %v", err)
					return
				}
				// Then: every hit resolves in the snapshot it came from
				for _, h := range hits {
					if _, ok := used.Chunk(h.ChunkID); !ok {
						t.Errorf("hit %d not in its snapshot", h.ChunkID)
					}
				}
				if len(hits) != used.Len() {
					t.Errorf("got %d hits from a %d-vector snapshot", len(hits), used.Len())
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			s.Publish(second)
		} else {
			s.Publish(first)
		}
	}
	wg.Wait()
}

func TestStore_SearchCancelledContext(t *testing.T) {
	s := New(t.TempDir(), Options{})
	s.Publish(buildIndex(t, Options{}, []float32{1}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Search(ctx, []float32{1}, 1)

	assert.ErrorIs(t, err, context.Canceled)
}
