package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// OpenAIConfig configures an OpenAI-compatible embedding endpoint.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	BatchSize  int
	MaxRetries int
}

// OpenAIEmbedder uses an OpenAI-compatible API for embeddings
type OpenAIEmbedder struct {
	client *openai.Client
	config OpenAIConfig

	mu   sync.RWMutex
	dims int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, nferrors.ConfigError("OpenAI API key is not set", nil).
			WithSuggestion("Export the variable named by embedder.openai.api_key_env")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
	}, nil
}

// Embed generates an embedding for a single text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in input order
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := min(start+e.config.BatchSize, len(texts))
		batch := make([]string, end-start)
		for i, text := range texts[start:end] {
			batch[i] = truncate(text)
		}

		embeddings, err := nferrors.RetryWithResult(ctx, nferrors.ImmediateRetryConfig(e.config.MaxRetries),
			func() ([][]float32, error) { return e.create(ctx, batch) })
		if err != nil {
			return nil, err
		}
		results = append(results, embeddings...)
	}
	return results, nil
}

func (e *OpenAIEmbedder) create(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.config.Model),
		Input: texts,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, e.mapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, nferrors.New(nferrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	// The API reports each vector's input position
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([][]float32, len(data))
	for i, d := range data {
		v := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			v[j] = float32(d.Embedding[j])
		}
		embeddings[i] = v
	}

	e.mu.Lock()
	if e.dims == 0 && len(embeddings[0]) > 0 {
		e.dims = len(embeddings[0])
	}
	e.mu.Unlock()

	return embeddings, nil
}

// mapError classifies go-openai errors into the shared taxonomy.
func (e *OpenAIEmbedder) mapError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return nferrors.New(nferrors.ErrCodeServiceUnavailable,
			fmt.Sprintf("embedding service is not reachable at %s", e.config.BaseURL), err)
	}

	switch {
	case status == http.StatusNotFound:
		return nferrors.New(nferrors.ErrCodeModelUnavailable,
			fmt.Sprintf("embedding model %s is not available", e.config.Model), err).
			WithDetail("model", e.config.Model)
	case status == http.StatusTooManyRequests || status >= 500:
		return nferrors.New(nferrors.ErrCodeServiceUnavailable,
			fmt.Sprintf("embedding service returned status %d", status), err)
	default:
		return nferrors.New(nferrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embedding failed with status %d", status), err)
	}
}

// Health lists models to check reachability and model presence.
func (e *OpenAIEmbedder) Health(ctx context.Context) Health {
	h := Health{Model: e.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	models, err := e.client.ListModels(checkCtx)
	if err != nil {
		slog.Debug("openai_health_failed", slog.String("error", err.Error()))
		return h
	}
	h.Reachable = true
	for _, m := range models.Models {
		if strings.HasPrefix(m.ID, e.config.Model) {
			h.ModelAvailable = true
			break
		}
	}
	return h
}

// Dimensions returns the embedding dimension
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier
func (e *OpenAIEmbedder) ModelName() string {
	return e.config.Model
}

// Close releases resources
func (e *OpenAIEmbedder) Close() error {
	return nil
}
