package embed

import (
	"strings"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses a local Ollama server (default)
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI uses any OpenAI-compatible embeddings endpoint
	ProviderOpenAI ProviderType = "openai"
)

// ParseProvider converts a config value to a ProviderType.
func ParseProvider(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ollama":
		return ProviderOllama, nil
	case "openai":
		return ProviderOpenAI, nil
	default:
		return "", nferrors.ConfigError("unknown embedding provider: "+s, nil)
	}
}

// NewEmbedder creates the embedder selected by cfg.Embedder.Provider.
// The result is not cached; wrap it with NewCachedEmbedder for queries.
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	provider, err := ParseProvider(cfg.Embedder.Provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:    cfg.Embedder.OpenAI.BaseURL,
			APIKey:     cfg.OpenAIAPIKey(),
			Model:      cfg.Embedder.OpenAI.Model,
			BatchSize:  cfg.Embedder.BatchSize,
			MaxRetries: cfg.Ollama.MaxRetries,
		})
	default:
		return NewOllamaEmbedder(OllamaConfig{
			Host:       cfg.Ollama.URL,
			Model:      cfg.Ollama.EmbeddingModel,
			BatchSize:  cfg.Embedder.BatchSize,
			Timeout:    cfg.OllamaTimeout(),
			MaxRetries: cfg.Ollama.MaxRetries,
		}), nil
	}
}

// NewGeneratorFromConfig returns the snippet generator, or nil when LLM
// snippets are disabled.
func NewGeneratorFromConfig(cfg *config.Config) *Generator {
	if !cfg.Search.LLMSnippets || cfg.Ollama.LLMModel == "" {
		return nil
	}
	return NewGenerator(cfg.Ollama.URL, cfg.Ollama.LLMModel, 0)
}
