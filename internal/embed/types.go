// Package embed converts text to vectors through an external embedding
// service. Ollama and OpenAI-compatible endpoints are supported; a
// caching wrapper serves repeated queries from memory.
package embed

import (
	"context"
	"time"
)

const (
	// DefaultBatchSize is the default number of texts per request.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single request.
	MaxBatchSize = 256

	// DefaultTimeout bounds each embedding request.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of immediate attempts.
	DefaultMaxRetries = 3

	// MaxInputChars is the longest text sent to the service; longer input
	// is truncated.
	MaxInputChars = 8000

	// HealthTimeout bounds a health probe.
	HealthTimeout = 5 * time.Second
)

// Health reports embedding service readiness.
type Health struct {
	Reachable      bool   `json:"reachable"`
	ModelAvailable bool   `json:"model_available"`
	Model          string `json:"model"`
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension, or 0 before the first
	// successful call when it is not configured
	Dimensions() int

	// ModelName returns the model identifier
	ModelName() string

	// Health probes the service. It never fails; problems show up as
	// false fields.
	Health(ctx context.Context) Health

	// Close releases resources
	Close() error
}

// truncate limits text to MaxInputChars characters.
func truncate(text string) string {
	if len(text) <= MaxInputChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxInputChars {
		return text
	}
	return string(runes[:MaxInputChars])
}
