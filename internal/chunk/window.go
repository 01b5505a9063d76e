package chunk

import (
	"fmt"
	"strings"
	"unicode"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// WindowChunker produces fixed-size character windows. It holds no
// mutable state and is safe for concurrent use.
type WindowChunker struct {
	options Options
}

// NewWindowChunker validates opts and returns a chunker.
func NewWindowChunker(opts Options) (*WindowChunker, error) {
	if err := validate(opts.Size, opts.Overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{options: opts}, nil
}

// Options returns the chunker geometry.
func (c *WindowChunker) Options() Options {
	return c.options
}

// Chunk splits text into windows.
func (c *WindowChunker) Chunk(text string) []Chunk {
	return windows(text, c.options.Size, c.options.Overlap)
}

// Split splits text into windows of size characters, each starting
// size-overlap characters after the previous one. The last window is
// truncated to the remaining text. Whitespace-only windows are dropped,
// and Index/Total are numbered over the windows that remain.
func Split(text string, size, overlap int) ([]Chunk, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	return windows(text, size, overlap), nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return nferrors.New(nferrors.ErrCodeConfigInvalid,
			fmt.Sprintf("chunk size must be positive, got %d", size), nil)
	}
	if overlap < 0 || overlap >= size {
		return nferrors.New(nferrors.ErrCodeConfigInvalid,
			fmt.Sprintf("chunk overlap must be in [0, %d), got %d", size, overlap), nil)
	}
	return nil
}

func windows(text string, size, overlap int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	step := size - overlap

	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		window := runes[start:end]
		if !blank(window) {
			chunks = append(chunks, Chunk{
				Index:      len(chunks),
				Text:       string(window),
				CharOffset: start,
			})
		}
		if end == len(runes) {
			break
		}
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}
	return chunks
}

func blank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
