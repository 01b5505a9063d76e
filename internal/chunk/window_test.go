package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

func TestSplit_ShortText_SingleChunk(t *testing.T) {
	// Given: text shorter than one window
	text := "hello world"

	// When: splitting
	chunks, err := Split(text, 1000, 200)

	// Then: one chunk covering the whole text
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Equal(t, 0, chunks[0].CharOffset)
}

func TestSplit_WindowsAdvanceBySizeMinusOverlap(t *testing.T) {
	// Given: 25 characters, size 10, overlap 3 (step 7)
	text := "abcdefghijklmnopqrstuvwxy"

	chunks, err := Split(text, 10, 3)

	// Then: windows start at 0, 7, 14, and the last is truncated
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "hijklmnopq", chunks[1].Text)
	assert.Equal(t, "opqrstuvwx", chunks[2].Text)
	assert.Equal(t, []int{0, 7, 14}, []int{chunks[0].CharOffset, chunks[1].CharOffset, chunks[2].CharOffset})
}

func TestSplit_LastWindowIsTruncatedNotPadded(t *testing.T) {
	text := strings.Repeat("a", 12)

	chunks, err := Split(text, 10, 0)

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aa", chunks[1].Text)
	assert.Equal(t, 10, chunks[1].CharOffset)
}

func TestSplit_ExactMultipleHasNoTrailingDuplicate(t *testing.T) {
	// Given: text exactly one window long with overlap configured
	text := strings.Repeat("b", 10)

	chunks, err := Split(text, 10, 4)

	// Then: the window reaching the end is the last one
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestSplit_DropsWhitespaceWindowsAndRenumbers(t *testing.T) {
	// Given: a middle window that is only whitespace
	text := "aaaaa" + strings.Repeat(" ", 5) + "bbbbb"

	chunks, err := Split(text, 5, 0)

	// Then: the blank window is dropped and Index/Total stay dense
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaa", chunks[0].Text)
	assert.Equal(t, "bbbbb", chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 2, chunks[0].Total)
	assert.Equal(t, 2, chunks[1].Total)
	assert.Equal(t, 10, chunks[1].CharOffset)
}

func TestSplit_EmptyOrBlankText(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		chunks, err := Split(text, 10, 2)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_MeasuresRunesNotBytes(t *testing.T) {
	// Given: multi-byte characters
	text := "héllo wörld ünïcode"

	chunks, err := Split(text, 6, 0)

	// Then: each full window holds 6 runes
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "héllo ", chunks[0].Text)
	assert.Equal(t, 6, chunks[1].CharOffset)
}

func TestSplit_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("text", tt.size, tt.overlap)

			require.Error(t, err)
			assert.ErrorIs(t, err, nferrors.ErrInvalidConfiguration)
		})
	}
}

func TestSplit_ReconstructsTextAndOffsetsIncrease(t *testing.T) {
	// Given: varied text and several geometries
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	runes := []rune(text)

	for _, geom := range [][2]int{{100, 0}, {100, 20}, {37, 36}, {1000, 200}} {
		size, overlap := geom[0], geom[1]
		chunks, err := Split(text, size, overlap)
		require.NoError(t, err)

		// Then: concatenating each window minus the overlap rebuilds the text
		var b strings.Builder
		prevEnd := 0
		for i, c := range chunks {
			if i > 0 {
				assert.Greater(t, c.CharOffset, chunks[i-1].CharOffset)
			}
			cr := []rune(c.Text)
			skip := prevEnd - c.CharOffset
			if skip < 0 {
				skip = 0
			}
			b.WriteString(string(cr[skip:]))
			prevEnd = c.CharOffset + len(cr)
		}
		assert.Equal(t, string(runes), b.String(), "size=%d overlap=%d", size, overlap)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism ", 300)

	a, err := Split(text, 128, 32)
	require.NoError(t, err)
	b, err := Split(text, 128, 32)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestNewWindowChunker(t *testing.T) {
	_, err := NewWindowChunker(Options{Size: 5, Overlap: 5})
	require.Error(t, err)

	c, err := NewWindowChunker(Options{Size: DefaultSize, Overlap: DefaultOverlap})
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, c.Options().Size)
	assert.Len(t, c.Chunk("short"), 1)
}
