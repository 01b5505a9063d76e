package search

// Request is a search query.
type Request struct {
	Query string `json:"query"`

	// TopK overrides the configured default when positive.
	TopK int `json:"top_k,omitempty"`

	// GroupByFile overrides the configured grouping when set.
	GroupByFile *bool `json:"group_by_file,omitempty"`
}

// Result is one ranked chunk resolved to its document.
type Result struct {
	FileName        string `json:"file_name"`
	FilePath        string `json:"file_path"`
	FileSize        int64  `json:"file_size"`
	ChunkText       string `json:"chunk_text"`
	ChunkIndex      int    `json:"chunk_index"`
	TotalChunks     int    `json:"total_chunks"`
	SimilarityScore int    `json:"similarity_score"`

	// Snippet is an LLM-extracted excerpt, set only when snippets are on.
	Snippet string `json:"snippet,omitempty"`
}

// Response is the ranked result list for one query.
type Response struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

// Config holds the search tunables.
type Config struct {
	// TopK is the default result count (default 20).
	TopK int

	// SimilarityThreshold drops results scoring below threshold*100.
	SimilarityThreshold float64

	// GroupByFile keeps only the best chunk of each file.
	GroupByFile bool

	// SnippetChars bounds LLM snippets (default 300).
	SnippetChars int

	// SnippetConcurrency bounds parallel snippet requests (default 4).
	SnippetConcurrency int
}

// Defaults
const (
	DefaultTopK               = 20
	DefaultThreshold          = 0.4
	DefaultSnippetChars       = 300
	DefaultSnippetConcurrency = 4
	MaxTopK                   = 1000
)

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultThreshold,
		SnippetChars:        DefaultSnippetChars,
		SnippetConcurrency:  DefaultSnippetConcurrency,
	}
}
