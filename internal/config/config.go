// Package config loads nlpfinder configuration from defaults, YAML files,
// a .env file and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// ProjectFileName is the per-directory configuration file.
const ProjectFileName = ".nlpfinder.yaml"

// Config represents the complete nlpfinder configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Ollama   OllamaConfig   `yaml:"ollama" json:"ollama"`
	Embedder EmbedderConfig `yaml:"embedder" json:"embedder"`
	Indexing IndexingConfig `yaml:"indexing" json:"indexing"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Store    StoreConfig    `yaml:"store" json:"store"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// OllamaConfig configures the Ollama embedding and generation service.
type OllamaConfig struct {
	URL            string `yaml:"url" json:"url"`
	EmbeddingModel string `yaml:"embedding_model" json:"embedding_model"`
	// LLMModel is used only for optional snippet extraction.
	LLMModel string `yaml:"llm_model" json:"llm_model"`
	// Timeout bounds each embedding request (Go duration string).
	Timeout string `yaml:"timeout" json:"timeout"`
	// MaxRetries is the number of immediate attempts for transient errors.
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	// Provider is "ollama" or "openai" (any OpenAI-compatible endpoint).
	Provider       string       `yaml:"provider" json:"provider"`
	OpenAI         OpenAIConfig `yaml:"openai" json:"openai"`
	BatchSize      int          `yaml:"batch_size" json:"batch_size"`
	QueryCacheSize int          `yaml:"query_cache_size" json:"query_cache_size"`
}

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
	Model     string `yaml:"model" json:"model"`
}

// IndexingConfig configures scanning and chunking.
type IndexingConfig struct {
	MaxFileSizeMB       int      `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	ChunkSize           int      `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap        int      `yaml:"chunk_overlap" json:"chunk_overlap"`
	SupportedExtensions []string `yaml:"supported_extensions" json:"supported_extensions"`
	ExcludeDirs         []string `yaml:"exclude_dirs" json:"exclude_dirs"`
}

// SearchConfig configures query-time ranking.
type SearchConfig struct {
	TopK int `yaml:"top_k" json:"top_k"`
	// SimilarityThreshold is the minimum cosine similarity (0-1).
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// GroupByFile keeps only the best chunk per file.
	GroupByFile bool `yaml:"group_by_file" json:"group_by_file"`
	// LLMSnippets asks the LLM model for a query-focused snippet per result.
	LLMSnippets bool `yaml:"llm_snippets" json:"llm_snippets"`
}

// StoreConfig configures index persistence and the nearest-neighbor backend.
type StoreConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Backend is "flat" (exact brute force) or "hnsw" (approximate, re-scored).
	Backend string     `yaml:"backend" json:"backend"`
	HNSW    HNSWConfig `yaml:"hnsw" json:"hnsw"`
}

// HNSWConfig tunes the HNSW graph.
type HNSWConfig struct {
	M        int `yaml:"m" json:"m"`
	EfSearch int `yaml:"ef_search" json:"ef_search"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string   `yaml:"host" json:"host"`
	Port        int      `yaml:"port" json:"port"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// WatchConfig configures rebuild-on-change.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// DefaultSupportedExtensions is the allow-list of indexable file types.
var DefaultSupportedExtensions = []string{
	// Text
	".txt", ".md", ".rst", ".log",
	// Code
	".py", ".js", ".ts", ".tsx", ".jsx",
	".java", ".cpp", ".c", ".h", ".hpp",
	".cs", ".go", ".rs", ".rb", ".php",
	".swift", ".kt", ".scala",
	// Web and data
	".html", ".htm", ".css", ".scss", ".sass",
	".json", ".xml", ".yaml", ".yml",
	// Documents
	".pdf",
}

// DefaultExcludeDirs are pruned during scans in addition to hidden directories.
var DefaultExcludeDirs = []string{"node_modules", "__pycache__", "venv", "env", ".git"}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Ollama: OllamaConfig{
			URL:            "http://localhost:11434",
			EmbeddingModel: "nomic-embed-text",
			LLMModel:       "llama3",
			Timeout:        "10s",
			MaxRetries:     3,
		},
		Embedder: EmbedderConfig{
			Provider: "ollama",
			OpenAI: OpenAIConfig{
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Model:     "text-embedding-3-small",
			},
			BatchSize:      32,
			QueryCacheSize: 256,
		},
		Indexing: IndexingConfig{
			MaxFileSizeMB:       10,
			ChunkSize:           1000,
			ChunkOverlap:        200,
			SupportedExtensions: slices.Clone(DefaultSupportedExtensions),
			ExcludeDirs:         slices.Clone(DefaultExcludeDirs),
		},
		Search: SearchConfig{
			TopK:                20,
			SimilarityThreshold: 0.4,
		},
		Store: StoreConfig{
			DataDir: defaultDataDir(),
			Backend: "flat",
			HNSW: HNSWConfig{
				M:        16,
				EfSearch: 64,
			},
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".nlpfinder", "data")
	}
	return filepath.Join(home, ".nlpfinder", "data")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/nlpfinder/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/nlpfinder/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nlpfinder", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "nlpfinder", "config.yaml")
	}
	return filepath.Join(home, ".config", "nlpfinder", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/nlpfinder/config.yaml)
//  3. Project config (.nlpfinder.yaml in dir)
//  4. .env in dir (never overrides variables already set)
//  5. Environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := filepath.Join(dir, ProjectFileName); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := filepath.Join(dir, ".env"); fileExists(path) {
		if err := godotenv.Load(path); err != nil {
			return nil, nferrors.ConfigError(fmt.Sprintf("failed to load %s", path), err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes a YAML file on top of the current values. Keys absent
// from the file keep their current value; present keys, zero or not, win.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nferrors.ConfigError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nferrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. The unprefixed
// names match the common Ollama tooling variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Ollama.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Ollama.LLMModel = v
	}
	if v := os.Getenv("MAX_FILE_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexing.MaxFileSizeMB = n
		}
	}
	if v := os.Getenv("NLPFINDER_OLLAMA_TIMEOUT"); v != "" {
		c.Ollama.Timeout = v
	}
	if v := os.Getenv("NLPFINDER_EMBEDDER"); v != "" {
		c.Embedder.Provider = v
	}
	if v := os.Getenv("NLPFINDER_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexing.ChunkSize = n
		}
	}
	if v := os.Getenv("NLPFINDER_CHUNK_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexing.ChunkOverlap = n
		}
	}
	if v := os.Getenv("NLPFINDER_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("NLPFINDER_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := parseFloat64(v); err == nil {
			c.Search.SimilarityThreshold = f
		}
	}
	if v := os.Getenv("NLPFINDER_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("NLPFINDER_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("NLPFINDER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("NLPFINDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Indexing.ChunkSize <= 0 {
		return nferrors.ConfigError(fmt.Sprintf("chunk_size must be positive, got %d", c.Indexing.ChunkSize), nil)
	}
	if c.Indexing.ChunkOverlap < 0 || c.Indexing.ChunkOverlap >= c.Indexing.ChunkSize {
		return nferrors.ConfigError(fmt.Sprintf("chunk_overlap must be in [0, chunk_size), got %d with chunk_size %d",
			c.Indexing.ChunkOverlap, c.Indexing.ChunkSize), nil)
	}
	if c.Indexing.MaxFileSizeMB <= 0 {
		return nferrors.ConfigError(fmt.Sprintf("max_file_size_mb must be positive, got %d", c.Indexing.MaxFileSizeMB), nil)
	}
	if c.Embedder.BatchSize <= 0 {
		return nferrors.ConfigError(fmt.Sprintf("embedder.batch_size must be positive, got %d", c.Embedder.BatchSize), nil)
	}
	if c.Search.TopK <= 0 {
		return nferrors.ConfigError(fmt.Sprintf("top_k must be positive, got %d", c.Search.TopK), nil)
	}
	if c.Search.SimilarityThreshold < 0 || c.Search.SimilarityThreshold > 1 {
		return nferrors.ConfigError(fmt.Sprintf("similarity_threshold must be between 0 and 1, got %g", c.Search.SimilarityThreshold), nil)
	}
	switch strings.ToLower(c.Embedder.Provider) {
	case "ollama", "openai":
	default:
		return nferrors.ConfigError(fmt.Sprintf("embedder.provider must be 'ollama' or 'openai', got %q", c.Embedder.Provider), nil)
	}
	switch strings.ToLower(c.Store.Backend) {
	case "flat", "hnsw":
	default:
		return nferrors.ConfigError(fmt.Sprintf("store.backend must be 'flat' or 'hnsw', got %q", c.Store.Backend), nil)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return nferrors.ConfigError(fmt.Sprintf("server.port out of range: %d", c.Server.Port), nil)
	}
	if _, err := time.ParseDuration(c.Ollama.Timeout); err != nil {
		return nferrors.ConfigError(fmt.Sprintf("ollama.timeout is not a duration: %q", c.Ollama.Timeout), err)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return nferrors.ConfigError(fmt.Sprintf("watch.debounce is not a duration: %q", c.Watch.Debounce), err)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return nferrors.ConfigError(fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	return nil
}

// MaxFileSizeBytes returns the scan size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Indexing.MaxFileSizeMB) * 1024 * 1024
}

// OllamaTimeout returns the per-request embedding timeout.
func (c *Config) OllamaTimeout() time.Duration {
	d, err := time.ParseDuration(c.Ollama.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// WatchDebounce returns the quiet period before a watch-triggered rebuild.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// OpenAIAPIKey reads the API key from the configured environment variable.
func (c *Config) OpenAIAPIKey() string {
	return os.Getenv(c.Embedder.OpenAI.APIKeyEnv)
}

// EmbeddingModel returns the model name of the active provider.
func (c *Config) EmbeddingModel() string {
	if strings.EqualFold(c.Embedder.Provider, "openai") {
		return c.Embedder.OpenAI.Model
	}
	return c.Ollama.EmbeddingModel
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
