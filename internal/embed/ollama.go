package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// OllamaEmbedder generates embeddings using Ollama's HTTP API
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport // Store for connection cleanup
	config    OllamaConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

// Verify interface implementation at compile time
var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. It does not contact
// the service; use Health to probe it.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	// No http.Client.Timeout: each attempt gets its own context deadline.
	return &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		dims:      cfg.Dimensions,
	}
}

// listModels gets available models from Ollama
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]OllamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, nferrors.New(nferrors.ErrCodeServiceUnavailable,
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var result OllamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Models, nil
}

// MatchModel reports whether an installed model name starts with want,
// so "nomic-embed-text" matches "nomic-embed-text:latest".
func MatchModel(models []OllamaModelInfo, want string) (string, bool) {
	want = strings.ToLower(want)
	for _, m := range models {
		if strings.HasPrefix(strings.ToLower(m.Name), want) {
			return m.Name, true
		}
	}
	return "", false
}

// Health checks that Ollama is reachable and the model is installed.
func (e *OllamaEmbedder) Health(ctx context.Context) Health {
	h := Health{Model: e.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	models, err := e.listModels(checkCtx)
	if err != nil {
		slog.Debug("ollama_health_failed", slog.String("host", e.config.Host), slog.String("error", err.Error()))
		return h
	}
	h.Reachable = true
	_, h.ModelAvailable = MatchModel(models, e.config.Model)
	return h
}

// Embed generates an embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, sending at most
// BatchSize texts per request.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, nferrors.New(nferrors.ErrCodeEmbeddingFailed, "embedder is closed", nil)
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.config.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(start+e.config.BatchSize, len(texts))
		batch := make([]string, end-start)
		for i, text := range texts[start:end] {
			batch[i] = truncate(text)
		}

		embeddings, err := e.doEmbedWithRetry(ctx, batch)
		if err != nil {
			return nil, err
		}
		results = append(results, embeddings...)
	}

	return results, nil
}

// doEmbedWithRetry makes up to MaxRetries immediate attempts. Only
// retryable errors (unreachable service, timeouts) are retried.
func (e *OllamaEmbedder) doEmbedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	attempt := 0
	return nferrors.RetryWithResult(ctx, nferrors.ImmediateRetryConfig(e.config.MaxRetries), func() ([][]float32, error) {
		attempt++
		slog.Debug("embedding_attempt",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", e.config.MaxRetries),
			slog.Duration("timeout", e.config.Timeout),
			slog.Int("texts_count", len(texts)))

		timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		embeddings, err := e.doEmbed(timeoutCtx, texts)
		if err != nil {
			slog.Debug("embedding_attempt_failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		return embeddings, err
	})
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(OllamaEmbedRequest{Model: e.config.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, e.statusError(resp.StatusCode, respBody)
	}

	var apiResult OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, nferrors.New(nferrors.ErrCodeEmbeddingFailed, "failed to decode embedding response", err)
	}
	if len(apiResult.Embeddings) != len(texts) {
		return nil, nferrors.New(nferrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(apiResult.Embeddings)), nil)
	}

	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		embeddings[i] = vec
	}

	e.mu.Lock()
	if e.dims == 0 && len(embeddings[0]) > 0 {
		e.dims = len(embeddings[0])
	}
	e.mu.Unlock()

	return embeddings, nil
}

// transportError maps a failed round trip to NetworkTimeout or
// ServiceUnavailable. Both are retryable.
func (e *OllamaEmbedder) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nferrors.New(nferrors.ErrCodeNetworkTimeout,
			fmt.Sprintf("embedding service at %s timed out", e.config.Host), err).
			WithSuggestion("Check that Ollama is running and not overloaded")
	}
	return nferrors.New(nferrors.ErrCodeServiceUnavailable,
		fmt.Sprintf("embedding service is not reachable at %s", e.config.Host), err).
		WithSuggestion("Start Ollama with: ollama serve")
}

// statusError maps a non-200 response. A missing model is never retried.
func (e *OllamaEmbedder) statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr OllamaErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	if status == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "not found") {
		return nferrors.New(nferrors.ErrCodeModelUnavailable,
			fmt.Sprintf("embedding model %s is not available: %s", e.config.Model, msg), nil).
			WithDetail("model", e.config.Model).
			WithSuggestion(fmt.Sprintf("Install it with: ollama pull %s", e.config.Model))
	}
	if status == http.StatusServiceUnavailable || status == http.StatusBadGateway {
		return nferrors.New(nferrors.ErrCodeServiceUnavailable,
			fmt.Sprintf("embedding service returned status %d: %s", status, msg), nil)
	}
	return nferrors.New(nferrors.ErrCodeEmbeddingFailed,
		fmt.Sprintf("embedding failed with status %d: %s", status, msg), nil)
}

// Dimensions returns the embedding dimension
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the model identifier
func (e *OllamaEmbedder) ModelName() string {
	return e.config.Model
}

// Host returns the configured Ollama endpoint.
func (e *OllamaEmbedder) Host() string {
	return e.config.Host
}

// Close releases resources
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
