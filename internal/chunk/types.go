// Package chunk splits extracted document text into overlapping
// fixed-size windows, the unit of embedding and retrieval.
package chunk

// Default window geometry, in characters.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunk is one window of a document's text.
type Chunk struct {
	// DocumentPath is the absolute path of the owning document. The
	// chunker leaves it empty; callers fill it in.
	DocumentPath string

	// Index is the 0-based position among the document's kept windows.
	Index int

	// Total is the number of kept windows in the document.
	Total int

	Text string

	// CharOffset is the rune offset of Text in the original text.
	CharOffset int
}

// Options configures the window chunker.
type Options struct {
	Size    int // Window length in characters
	Overlap int // Characters shared by consecutive windows
}
