package server

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/extract"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
	"github.com/Aman-CERP/nlpfinder/pkg/version"
)

// HealthResponse reports embedding service and index state.
type HealthResponse struct {
	Status                  string      `json:"status"`
	OllamaConnected         bool        `json:"ollama_connected"`
	EmbeddingModel          string      `json:"embedding_model"`
	EmbeddingModelAvailable bool        `json:"embedding_model_available"`
	IndexStats              store.Stats `json:"index_stats"`
}

// FileEntry is one row of GET /index/files.
type FileEntry struct {
	FileName    string `json:"file_name"`
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	TotalChunks int    `json:"total_chunks"`
	FileType    string `json:"file_type"`
}

// FilesResponse lists indexed documents sorted by lowercase name.
type FilesResponse struct {
	TotalFiles int         `json:"total_files"`
	Files      []FileEntry `json:"files"`
}

type indexRequest struct {
	Directory string `json:"directory"`
}

type fileRequest struct {
	FilePath string `json:"file_path"`
	Reveal   bool   `json:"reveal"`
}

func (s *Server) handleRoot(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":    AppName,
		"version": version.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	h := s.deps.Embedder.Health(c.Context())
	status := "healthy"
	if !h.Reachable {
		status = "unhealthy"
	}
	return c.JSON(HealthResponse{
		Status:                  status,
		OllamaConnected:         h.Reachable,
		EmbeddingModel:          s.deps.Embedder.ModelName(),
		EmbeddingModelAvailable: h.ModelAvailable,
		IndexStats:              s.deps.Store.Stats(),
	})
}

func (s *Server) handleConfig(c fiber.Ctx) error {
	cfg := s.deps.Config
	return c.JSON(fiber.Map{
		"embedder":             cfg.Embedder.Provider,
		"ollama_url":           cfg.Ollama.URL,
		"embedding_model":      cfg.EmbeddingModel(),
		"llm_model":            cfg.Ollama.LLMModel,
		"max_file_size_mb":     cfg.Indexing.MaxFileSizeMB,
		"chunk_size":           cfg.Indexing.ChunkSize,
		"chunk_overlap":        cfg.Indexing.ChunkOverlap,
		"supported_extensions": cfg.Indexing.SupportedExtensions,
		"top_k_results":        cfg.Search.TopK,
		"similarity_threshold": cfg.Search.SimilarityThreshold,
		"store_backend":        cfg.Store.Backend,
	})
}

func (s *Server) handleStartIndex(c fiber.Ctx) error {
	var body indexRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(err)
	}
	if strings.TrimSpace(body.Directory) == "" {
		return nferrors.ValidationError("directory is required", nil)
	}

	// Refuse early instead of starting a job that fails on the first batch
	if h := s.deps.Embedder.Health(c.Context()); !h.Reachable {
		return nferrors.New(nferrors.ErrCodeServiceUnavailable, "embedding service is not running or not accessible", nil)
	}

	job, err := s.deps.Orchestrator.Start(c.Context(), body.Directory)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":   "Indexing started",
		"directory": job.Directory,
		"job_id":    job.ID.String(),
	})
}

func (s *Server) handleProgress(c fiber.Ctx) error {
	return c.JSON(s.deps.Orchestrator.Progress())
}

func (s *Server) handleStats(c fiber.Ctx) error {
	return c.JSON(s.deps.Store.Stats())
}

func (s *Server) handleFiles(c fiber.Ctx) error {
	resp := FilesResponse{Files: []FileEntry{}}
	if idx := s.deps.Store.Current(); idx != nil {
		for _, d := range idx.Documents() {
			resp.Files = append(resp.Files, FileEntry{
				FileName:    d.Name,
				FilePath:    d.Path,
				FileSize:    d.SizeBytes,
				TotalChunks: d.TotalChunks,
				FileType:    string(extract.CategoryOf(d.Path)),
			})
		}
	}
	resp.TotalFiles = len(resp.Files)
	return c.JSON(resp)
}

func (s *Server) handleClearIndex(c fiber.Ctx) error {
	if err := s.deps.Orchestrator.Clear(c.Context()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Index cleared successfully"})
}

func (s *Server) handleSearch(c fiber.Ctx) error {
	var req search.Request
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(err)
	}
	resp, err := s.deps.Search.Search(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) handlePreview(c fiber.Ctx) error {
	var body fileRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(err)
	}
	preview, err := s.deps.Previewer.Preview(body.FilePath)
	if err != nil {
		return err
	}
	return c.JSON(preview)
}

func (s *Server) handleOpen(c fiber.Ctx) error {
	var body fileRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(err)
	}
	if err := s.deps.Opener.Open(c.Context(), body.FilePath, body.Reveal); err != nil {
		return err
	}
	msg := "File opened successfully"
	if body.Reveal {
		msg = "File revealed successfully"
	}
	return c.JSON(fiber.Map{"message": msg})
}
