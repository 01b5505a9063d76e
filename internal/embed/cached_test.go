package embed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder returns [len(text)] and counts texts it was asked for.
type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		c.calls++
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int   { return 1 }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Health(context.Context) Health {
	return Health{Reachable: true, ModelAvailable: true}
}
func (c *countingEmbedder) Close() error { return nil }

func TestCachedEmbedder_Embed_CachesRepeatedQueries(t *testing.T) {
	// Given: a cached embedder
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)

	// When: the same query is embedded twice
	v1, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)

	// Then: the inner embedder is called once
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}

func TestCachedEmbedder_EmbedBatch_OnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)
	_, err := c.Embed(context.Background(), "bb")
	require.NoError(t, err)

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, vecs)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	c := NewCachedEmbedder(inner, 10)

	_, err := c.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	inner.err = nil
	_, err = c.Embed(context.Background(), "q")
	require.NoError(t, err)
}

func TestCachedEmbedder_EvictsLeastRecent(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 2)

	for _, q := range []string{"a", "b", "c", "a"} {
		_, err := c.Embed(context.Background(), q)
		require.NoError(t, err)
	}

	// "a" was evicted by "c" and recomputed
	assert.Equal(t, 4, inner.calls)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCachedEmbedder_Passthrough(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 0)

	assert.Equal(t, "counting", c.ModelName())
	assert.Equal(t, 1, c.Dimensions())
	assert.True(t, c.Health(context.Background()).Reachable)
	assert.Same(t, inner, c.Inner())
	assert.NoError(t, c.Close())
}
