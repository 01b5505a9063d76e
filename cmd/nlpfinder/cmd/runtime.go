package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	"github.com/Aman-CERP/nlpfinder/internal/embed"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/extract"
	"github.com/Aman-CERP/nlpfinder/internal/fileops"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/scanner"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// Swappable constructors. Tests replace them with fakes.
var (
	newEmbedder = embed.NewEmbedder
	newOpener   = fileops.NewOpener
)

// runtime is the assembled application shared by every command.
type runtime struct {
	cfg          *config.Config
	embedder     embed.Embedder
	query        *embed.CachedEmbedder
	store        *store.Store
	registry     *extract.Registry
	orchestrator *index.Orchestrator
	engine       *search.Engine
}

// newRuntime loads config and assembles the application.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildRuntime(ctx, cfg)
}

// buildRuntime wires the components for cfg and publishes any persisted
// index, so a restart serves the last completed build.
func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.Store.DataDir, store.Options{
		Backend:      store.Backend(cfg.Store.Backend),
		HNSWM:        cfg.Store.HNSW.M,
		HNSWEfSearch: cfg.Store.HNSW.EfSearch,
	})
	loadPersisted(ctx, st)

	registry := extract.NewRegistry(cfg.Indexing.SupportedExtensions)
	orch, err := index.New(index.Dependencies{
		Scanner: scanner.New(),
		ScanOptions: scanner.ScanOptions{
			Extensions:  cfg.Indexing.SupportedExtensions,
			ExcludeDirs: cfg.Indexing.ExcludeDirs,
			MaxFileSize: cfg.MaxFileSizeBytes(),
		},
		Extractor:    registry,
		Embedder:     emb,
		Store:        st,
		ChunkSize:    cfg.Indexing.ChunkSize,
		ChunkOverlap: cfg.Indexing.ChunkOverlap,
		BatchSize:    cfg.Embedder.BatchSize,
	})
	if err != nil {
		_ = emb.Close()
		return nil, err
	}

	query := embed.NewCachedEmbedder(emb, cfg.Embedder.QueryCacheSize)
	var opts []search.EngineOption
	if gen := embed.NewGeneratorFromConfig(cfg); gen != nil {
		opts = append(opts, search.WithSnippeter(gen))
	}
	engine, err := search.New(st, query, search.Config{
		TopK:                cfg.Search.TopK,
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		GroupByFile:         cfg.Search.GroupByFile,
	}, opts...)
	if err != nil {
		_ = emb.Close()
		return nil, err
	}

	slog.Debug("runtime_ready",
		slog.String("data_dir", cfg.Store.DataDir),
		slog.String("embedder", cfg.Embedder.Provider),
		slog.String("model", emb.ModelName()),
		slog.String("backend", cfg.Store.Backend))

	return &runtime{
		cfg:          cfg,
		embedder:     emb,
		query:        query,
		store:        st,
		registry:     registry,
		orchestrator: orch,
		engine:       engine,
	}, nil
}

// Close releases the embedder.
func (r *runtime) Close() error {
	return r.query.Close()
}

// previewer returns a previewer over the indexing extractors.
func (r *runtime) previewer() *fileops.Previewer {
	return fileops.NewPreviewer(r.registry, 0)
}

// requireEmbedder fails fast when the embedding service is down instead of
// starting a job that fails on the first batch.
func (r *runtime) requireEmbedder(ctx context.Context) error {
	if h := r.embedder.Health(ctx); !h.Reachable {
		return nferrors.New(nferrors.ErrCodeServiceUnavailable, "embedding service is not running or not accessible", nil).
			WithDetail("url", embedderURL(r.cfg)).
			WithSuggestion("Start Ollama with: ollama serve")
	}
	return nil
}

// loadPersisted publishes the on-disk index when there is one. A corrupt
// index is logged and left unpublished.
func loadPersisted(ctx context.Context, st *store.Store) {
	idx, err := st.Load(ctx)
	switch {
	case err == nil:
		st.Publish(idx)
	case errors.Is(err, nferrors.ErrIndexNotFound):
		slog.Debug("no_persisted_index", slog.String("data_dir", st.DataDir()))
	default:
		slog.Warn("persisted_index_unusable", nferrors.FormatForLog(err)...)
	}
}

func embedderURL(cfg *config.Config) string {
	if strings.EqualFold(cfg.Embedder.Provider, string(embed.ProviderOpenAI)) {
		return cfg.Embedder.OpenAI.BaseURL
	}
	return cfg.Ollama.URL
}

// embedderStatus maps a health probe to ready, offline or model_missing.
func embedderStatus(h embed.Health) string {
	switch {
	case !h.Reachable:
		return "offline"
	case !h.ModelAvailable:
		return "model_missing"
	default:
		return "ready"
	}
}

func interrupted(err error) error {
	return fmt.Errorf("interrupted: %w", err)
}
