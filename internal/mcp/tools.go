package mcp

import (
	"time"

	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"natural-language description of the content to find"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results, defaults to the configured top_k"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Query        string          `json:"query"`
	Results      []search.Result `json:"results" jsonschema:"ranked chunks, best match first"`
	TotalResults int             `json:"total_results"`
}

// IndexDirectoryInput defines the input schema for the index_directory tool.
type IndexDirectoryInput struct {
	Directory string `json:"directory" jsonschema:"absolute path of the directory to index"`
}

// IndexDirectoryOutput reports the started job.
type IndexDirectoryOutput struct {
	Message   string `json:"message"`
	Directory string `json:"directory"`
	JobID     string `json:"job_id"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Job        JobInfo       `json:"job"`
	Stats      IndexStats    `json:"stats"`
	Embeddings EmbeddingInfo `json:"embeddings"`
}

// JobInfo is the current or last indexing job.
type JobInfo struct {
	ID             string  `json:"job_id,omitempty"`
	Status         string  `json:"status" jsonschema:"idle, scanning, processing, building, completed or failed"`
	Current        int     `json:"current"`
	Total          int     `json:"total"`
	Percent        float64 `json:"percent"`
	Message        string  `json:"message,omitempty"`
	Directory      string  `json:"directory,omitempty"`
	Indexed        int     `json:"indexed"`
	Skipped        int     `json:"skipped"`
	Failed         int     `json:"failed"`
	Chunks         int     `json:"chunks"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
}

// IndexStats describes the searchable index. BuiltAt is RFC 3339.
type IndexStats struct {
	Indexed          bool   `json:"indexed"`
	TotalFiles       int    `json:"total_files"`
	TotalVectors     int    `json:"total_vectors"`
	IndexedDirectory string `json:"indexed_directory,omitempty"`
	Dimension        int    `json:"dimension"`
	Model            string `json:"embedding_model,omitempty"`
	BuiltAt          string `json:"built_at,omitempty"`
}

// EmbeddingInfo describes the embedding service as seen right now.
type EmbeddingInfo struct {
	Model          string `json:"model"`
	Reachable      bool   `json:"reachable"`
	ModelAvailable bool   `json:"model_available"`
}

func toJobInfo(j index.Job) JobInfo {
	info := JobInfo{
		Status:         string(j.Status),
		Current:        j.Current,
		Total:          j.Total,
		Percent:        j.Percent(),
		Message:        j.Message,
		Directory:      j.Directory,
		Indexed:        j.Indexed,
		Skipped:        j.Skipped,
		Failed:         j.Failed,
		Chunks:         j.Chunks,
		ElapsedSeconds: int(j.Elapsed().Seconds()),
	}
	if j.Status != index.StatusIdle {
		info.ID = j.ID.String()
	}
	return info
}

func toIndexStats(s store.Stats) IndexStats {
	out := IndexStats{
		Indexed:          s.Indexed,
		TotalFiles:       s.TotalFiles,
		TotalVectors:     s.TotalVectors,
		IndexedDirectory: s.IndexedDirectory,
		Dimension:        s.Dimension,
		Model:            s.Model,
	}
	if !s.BuiltAt.IsZero() {
		out.BuiltAt = s.BuiltAt.Format(time.RFC3339)
	}
	return out
}
