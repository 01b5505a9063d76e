package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultGenerateTimeout bounds a snippet generation request.
const DefaultGenerateTimeout = 30 * time.Second

// Generator asks an Ollama LLM for query-focused snippets.
type Generator struct {
	client  *http.Client
	host    string
	model   string
	timeout time.Duration
}

// NewGenerator creates a snippet generator for the given Ollama model.
func NewGenerator(host, model string, timeout time.Duration) *Generator {
	if host == "" {
		host = DefaultOllamaHost
	}
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Generator{
		client:  &http.Client{},
		host:    strings.TrimRight(host, "/"),
		model:   model,
		timeout: timeout,
	}
}

// Model returns the LLM model name.
func (g *Generator) Model() string {
	return g.model
}

const snippetPrompt = `Given this search query: "%s"

And this text content:
%s

Extract the most relevant snippet (max %d characters) that best matches the query. Return only the snippet, nothing else.`

// ExtractSnippet returns the passage of text most relevant to query, at
// most maxChars long. Any failure, or an over-long answer, falls back to
// the first maxChars characters followed by "...".
func (g *Generator) ExtractSnippet(ctx context.Context, query, text string, maxChars int) string {
	snippet, err := g.generate(ctx, fmt.Sprintf(snippetPrompt, query, text, maxChars))
	if err != nil {
		slog.Debug("snippet_generation_failed", slog.String("model", g.model), slog.String("error", err.Error()))
		return Fallback(text, maxChars)
	}
	snippet = strings.TrimSpace(snippet)
	if snippet == "" || len([]rune(snippet)) > maxChars {
		return Fallback(text, maxChars)
	}
	return snippet
}

// Fallback returns the first maxChars characters of text plus "...".
func Fallback(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	body, err := json.Marshal(OllamaGenerateRequest{Model: g.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("generate failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out OllamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Response, nil
}
