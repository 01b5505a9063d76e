package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// isolate points the user config at an empty temp dir and clears env overrides.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"OLLAMA_BASE_URL", "EMBEDDING_MODEL", "LLM_MODEL", "MAX_FILE_SIZE_MB",
		"NLPFINDER_OLLAMA_TIMEOUT", "NLPFINDER_EMBEDDER", "NLPFINDER_CHUNK_SIZE",
		"NLPFINDER_CHUNK_OVERLAP", "NLPFINDER_TOP_K", "NLPFINDER_SIMILARITY_THRESHOLD",
		"NLPFINDER_DATA_DIR", "NLPFINDER_STORE_BACKEND", "NLPFINDER_PORT", "NLPFINDER_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, "llama3", cfg.Ollama.LLMModel)
	assert.Equal(t, 10*time.Second, cfg.OllamaTimeout())
	assert.Equal(t, 10, cfg.Indexing.MaxFileSizeMB)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSizeBytes())
	assert.Equal(t, 1000, cfg.Indexing.ChunkSize)
	assert.Equal(t, 200, cfg.Indexing.ChunkOverlap)
	assert.Equal(t, 32, cfg.Embedder.BatchSize)
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, 0.4, cfg.Search.SimilarityThreshold)
	assert.False(t, cfg.Search.GroupByFile)
	assert.Equal(t, "flat", cfg.Store.Backend)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.WatchDebounce())
	assert.Contains(t, cfg.Indexing.SupportedExtensions, ".pdf")
	assert.Contains(t, cfg.Indexing.ExcludeDirs, "node_modules")
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_ExtensionListIsCopied(t *testing.T) {
	// Given: a default config
	cfg := NewConfig()

	// When: the extension list is mutated
	cfg.Indexing.SupportedExtensions[0] = ".mutated"

	// Then: the package default is unchanged
	assert.Equal(t, ".txt", DefaultSupportedExtensions[0])
}

func TestLoad_NoFiles_ReturnsDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a project file that sets overlap to an explicit zero
	content := "indexing:\n  chunk_size: 500\n  chunk_overlap: 0\nsearch:\n  similarity_threshold: 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0o644))

	// When: loading
	cfg, err := Load(dir)

	// Then: explicit zeros win and unspecified keys keep defaults
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Indexing.ChunkSize)
	assert.Equal(t, 0, cfg.Indexing.ChunkOverlap)
	assert.Equal(t, 0.0, cfg.Search.SimilarityThreshold)
	assert.Equal(t, 20, cfg.Search.TopK)
}

func TestLoad_UserConfigIsOverriddenByProject(t *testing.T) {
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := t.TempDir()

	// Given: user config and project config both set top_k
	userPath := GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
	require.NoError(t, os.WriteFile(userPath, []byte("search:\n  top_k: 5\nserver:\n  port: 9000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("search:\n  top_k: 7\n"), 0o644))

	cfg, err := Load(dir)

	// Then: project wins for top_k, user value survives for port
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.TopK)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("ollama:\n  url: http://file:1\n"), 0o644))

	t.Setenv("OLLAMA_BASE_URL", "http://env:2")
	t.Setenv("EMBEDDING_MODEL", "mxbai-embed-large")
	t.Setenv("MAX_FILE_SIZE_MB", "3")
	t.Setenv("NLPFINDER_SIMILARITY_THRESHOLD", "0.25")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.Ollama.URL)
	assert.Equal(t, "mxbai-embed-large", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, 3, cfg.Indexing.MaxFileSizeMB)
	assert.Equal(t, 0.25, cfg.Search.SimilarityThreshold)
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: .env sets two variables and one is already set in the process
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LLM_MODEL=from-dotenv\nNLPFINDER_TOP_K=11\n"), 0o644))
	t.Setenv("LLM_MODEL", "from-process")
	t.Setenv("NLPFINDER_TOP_K", "")
	os.Unsetenv("NLPFINDER_TOP_K")

	cfg, err := Load(dir)

	// Then: process env wins, unset variable comes from .env
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.Ollama.LLMModel)
	assert.Equal(t, 11, cfg.Search.TopK)
}

func TestLoad_InvalidYAML_ReturnsConfigError(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("search: [unterminated"), 0o644))

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, nferrors.CategoryConfig, nferrors.GetCategory(err))
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Indexing.ChunkSize = 0 }},
		{"overlap equals size", func(c *Config) { c.Indexing.ChunkOverlap = c.Indexing.ChunkSize }},
		{"negative overlap", func(c *Config) { c.Indexing.ChunkOverlap = -1 }},
		{"zero max file size", func(c *Config) { c.Indexing.MaxFileSizeMB = 0 }},
		{"zero batch", func(c *Config) { c.Embedder.BatchSize = 0 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"threshold above one", func(c *Config) { c.Search.SimilarityThreshold = 1.5 }},
		{"unknown provider", func(c *Config) { c.Embedder.Provider = "mlx" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "faiss" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad timeout", func(c *Config) { c.Ollama.Timeout = "soon" }},
		{"bad debounce", func(c *Config) { c.Watch.Debounce = "later" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, nferrors.ErrCodeConfigInvalid, nferrors.GetCode(err))
		})
	}
}

func TestEmbeddingModel_FollowsProvider(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel())

	cfg.Embedder.Provider = "openai"
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel())
}

func TestOpenAIAPIKey_ReadsConfiguredVariable(t *testing.T) {
	cfg := NewConfig()
	cfg.Embedder.OpenAI.APIKeyEnv = "NLPFINDER_TEST_KEY"
	t.Setenv("NLPFINDER_TEST_KEY", "sk-test")

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey())
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	// Given: a modified config written as the project file
	cfg := NewConfig()
	cfg.Search.TopK = 42
	cfg.Store.Backend = "hnsw"
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ProjectFileName)))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: the values survive
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Search.TopK)
	assert.Equal(t, "hnsw", loaded.Store.Backend)
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	assert.Equal(t, filepath.Join(xdg, "nlpfinder", "config.yaml"), GetUserConfigPath())
	assert.False(t, UserConfigExists())
}
