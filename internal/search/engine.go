// Package search answers natural-language queries against the published
// index: embed the query, rank chunks by cosine score, drop weak matches
// and resolve the survivors to their documents.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// QueryEmbedder embeds a query string.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Snippeter extracts the passage of text most relevant to a query.
type Snippeter interface {
	ExtractSnippet(ctx context.Context, query, text string, maxChars int) string
}

// Engine runs searches. It is safe for concurrent use; each search reads
// a single index snapshot.
type Engine struct {
	store     *store.Store
	embedder  QueryEmbedder
	snippeter Snippeter
	config    Config
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithSnippeter enables LLM snippets on every result.
func WithSnippeter(s Snippeter) EngineOption {
	return func(e *Engine) {
		e.snippeter = s
	}
}

// New creates an Engine. Zero config fields take their defaults.
func New(st *store.Store, embedder QueryEmbedder, cfg Config, opts ...EngineOption) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	cfg.TopK = min(cfg.TopK, MaxTopK)
	if cfg.SnippetChars <= 0 {
		cfg.SnippetChars = def.SnippetChars
	}
	if cfg.SnippetConcurrency <= 0 {
		cfg.SnippetConcurrency = def.SnippetConcurrency
	}

	e := &Engine{store: st, embedder: embedder, config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Search ranks indexed chunks against req.Query.
//
// It fails with QueryEmpty for a blank query and IndexNotFound when no
// index is published; the latter is checked before the query is embedded.
// Embedding errors are returned unchanged.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, nferrors.New(nferrors.ErrCodeQueryEmpty, "query is required", nil)
	}
	if req.TopK < 0 || req.TopK > MaxTopK {
		return nil, nferrors.ValidationError(
			fmt.Sprintf("top_k must be between 1 and %d, got %d", MaxTopK, req.TopK), nil).
			WithDetail("top_k", strconv.Itoa(req.TopK))
	}
	if e.store.Current() == nil {
		return nil, nferrors.ErrIndexNotFound
	}

	topK := e.config.TopK
	if req.TopK > 0 {
		topK = req.TopK
	}
	group := e.config.GroupByFile
	if req.GroupByFile != nil {
		group = *req.GroupByFile
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	// Grouping collapses chunks, so over-fetch to still fill topK files.
	fetch := topK
	if group {
		fetch = topK * 4
	}

	hits, idx, err := e.store.Search(ctx, vec, fetch)
	if err != nil {
		return nil, err
	}

	minScore := e.config.SimilarityThreshold * 100
	results := make([]Result, 0, len(hits))
	seen := make(map[string]bool)
	for _, h := range hits {
		if float64(h.Score) < minScore {
			continue
		}
		c, ok := idx.Chunk(h.ChunkID)
		if !ok {
			continue
		}
		if group {
			if seen[c.DocumentPath] {
				continue
			}
			seen[c.DocumentPath] = true
		}
		doc, _ := idx.Document(c.DocumentPath)
		results = append(results, Result{
			FileName:        doc.Name,
			FilePath:        doc.Path,
			FileSize:        doc.SizeBytes,
			ChunkText:       c.Text,
			ChunkIndex:      c.Index,
			TotalChunks:     c.Total,
			SimilarityScore: h.Score,
		})
		if len(results) == topK {
			break
		}
	}

	if e.snippeter != nil && len(results) > 0 {
		if err := e.addSnippets(ctx, query, results); err != nil {
			return nil, err
		}
	}

	slog.Info("search_complete",
		slog.Int("query_length", len(query)),
		slog.Int("hits", len(hits)),
		slog.Int("returned", len(results)),
		slog.Duration("duration", time.Since(start)))

	return &Response{Query: query, Results: results, TotalResults: len(results)}, nil
}

// addSnippets fills Snippet on every result, a bounded number at a time.
// Snippet extraction never fails; only cancellation is reported.
func (e *Engine) addSnippets(ctx context.Context, query string, results []Result) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.SnippetConcurrency)
	for i := range results {
		g.Go(func() error {
			results[i].Snippet = e.snippeter.ExtractSnippet(gctx, query, results[i].ChunkText, e.config.SnippetChars)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
