package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/nlpfinder/internal/embed"
	"github.com/Aman-CERP/nlpfinder/internal/extract"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/scanner"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

var extensions = []string{".txt", ".md"}

// letterEmbedder maps text to a one-hot vector over its first letter, so
// a query matches exactly the chunks that start with the same letter.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a'] = 1
			return v, nil
		}
	}
	v[25] = 1
	return v, nil
}

func (e letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (letterEmbedder) Dimensions() int   { return 26 }
func (letterEmbedder) ModelName() string { return "letters" }
func (letterEmbedder) Health(context.Context) embed.Health {
	return embed.Health{Reachable: true, ModelAvailable: true, Model: "letters"}
}
func (letterEmbedder) Close() error { return nil }

// app is the assembled pipeline over one data directory.
type app struct {
	store        *store.Store
	orchestrator *index.Orchestrator
	engine       *search.Engine
}

func newApp(t *testing.T, dataDir string, backend store.Backend) *app {
	t.Helper()

	st := store.New(dataDir, store.Options{Backend: backend})
	emb := letterEmbedder{}
	orch, err := index.New(index.Dependencies{
		Scanner:     scanner.New(),
		ScanOptions: scanner.ScanOptions{Extensions: extensions},
		Extractor:   extract.NewRegistry(extensions),
		Embedder:    emb,
		Store:       st,
	})
	require.NoError(t, err)

	engine, err := search.New(st, emb, search.Config{TopK: 10, SimilarityThreshold: 0.5})
	require.NoError(t, err)

	return &app{store: st, orchestrator: orch, engine: engine}
}

// build runs one index job to completion.
func (a *app) build(t *testing.T, dir string) index.Job {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := a.orchestrator.Start(ctx, dir)
	require.NoError(t, err)
	job, err := a.orchestrator.Wait(ctx)
	require.NoError(t, err)
	return job
}

func (a *app) fileNames(t *testing.T, query string) []string {
	t.Helper()

	resp, err := a.engine.Search(context.Background(), search.Request{Query: query})
	require.NoError(t, err)
	names := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		names = append(names, r.FileName)
	}
	return names
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
