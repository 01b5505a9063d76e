package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/nlpfinder/internal/embed"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
	"github.com/Aman-CERP/nlpfinder/pkg/version"
)

// ServerName is the implementation name reported to MCP clients.
const ServerName = "nlpfinder"

// Dependencies are the services the MCP tools call into.
type Dependencies struct {
	Search       *search.Engine
	Orchestrator *index.Orchestrator
	Store        *store.Store
	Embedder     embed.Embedder
}

// Server is the MCP server. It bridges AI clients with the semantic index.
type Server struct {
	mcp    *mcp.Server
	deps   Dependencies
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "search",
		Description: "Semantic search over the indexed documents. Describe what you are looking for in plain language; results are ranked chunks with a 0-100 similarity score.",
	},
	{
		Name:        "index_directory",
		Description: "Start indexing a directory in the background. Replaces the current index when the job completes. Poll index_status for progress.",
	},
	{
		Name:        "index_status",
		Description: "Report the current or last indexing job, statistics for the searchable index and embedding service health.",
	},
}

// NewServer creates a new MCP server.
func NewServer(deps Dependencies) (*Server, error) {
	switch {
	case deps.Search == nil:
		return nil, errors.New("search engine is required")
	case deps.Orchestrator == nil:
		return nil, errors.New("orchestrator is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Embedder == nil:
		return nil, errors.New("embedder is required")
	}

	s := &Server{deps: deps, logger: slog.Default()}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: ServerName, Version: version.Version},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments and returns
// its structured output.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		var in SearchInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.search(ctx, in)
	case "index_directory":
		var in IndexDirectoryInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.indexDirectory(ctx, in)
	case "index_status":
		return s.indexStatus(ctx), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, dst any) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpIndexDirectoryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

func (s *Server) search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	if in.TopK < 0 || in.TopK > search.MaxTopK {
		return nil, NewInvalidParamsError(fmt.Sprintf("top_k must be between 1 and %d", search.MaxTopK))
	}

	start := time.Now()
	requestID := generateRequestID()

	resp, err := s.deps.Search.Search(ctx, search.Request{Query: in.Query, TopK: in.TopK})
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", resp.TotalResults))

	return &SearchOutput{
		Query:        resp.Query,
		Results:      resp.Results,
		TotalResults: resp.TotalResults,
	}, nil
}

func (s *Server) indexDirectory(ctx context.Context, in IndexDirectoryInput) (*IndexDirectoryOutput, error) {
	if strings.TrimSpace(in.Directory) == "" {
		return nil, NewInvalidParamsError("directory is required")
	}
	if h := s.deps.Embedder.Health(ctx); !h.Reachable {
		return nil, &MCPError{
			Code:    ErrCodeEmbeddingFailed,
			Message: "Embedding service is not reachable. Is Ollama running?",
		}
	}

	job, err := s.deps.Orchestrator.Start(ctx, in.Directory)
	if err != nil {
		return nil, MapError(err)
	}
	return &IndexDirectoryOutput{
		Message:   "Indexing started",
		Directory: job.Directory,
		JobID:     job.ID.String(),
	}, nil
}

func (s *Server) indexStatus(ctx context.Context) *IndexStatusOutput {
	job := s.deps.Orchestrator.Progress()
	h := s.deps.Embedder.Health(ctx)
	return &IndexStatusOutput{
		Job:   toJobInfo(job),
		Stats: toIndexStats(s.deps.Store.Stats()),
		Embeddings: EmbeddingInfo{
			Model:          s.deps.Embedder.ModelName(),
			Reachable:      h.Reachable,
			ModelAvailable: h.ModelAvailable,
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	*SearchOutput,
	error,
) {
	out, err := s.search(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	md := FormatSearchResults(&search.Response{Query: out.Query, Results: out.Results, TotalResults: out.TotalResults})
	return textResult(md), out, nil
}

func (s *Server) mcpIndexDirectoryHandler(ctx context.Context, _ *mcp.CallToolRequest, input IndexDirectoryInput) (
	*mcp.CallToolResult,
	*IndexDirectoryOutput,
	error,
) {
	out, err := s.indexDirectory(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	return nil, out, nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	out := s.indexStatus(ctx)
	return textResult(FormatJobStatus(s.deps.Orchestrator.Progress())), out, nil
}

// Serve runs the server over stdio until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped gracefully")
	return nil
}

func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
