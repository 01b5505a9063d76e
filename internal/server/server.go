// Package server exposes indexing, search and file operations over a
// local JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	"github.com/Aman-CERP/nlpfinder/internal/embed"
	"github.com/Aman-CERP/nlpfinder/internal/fileops"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/search"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// AppName is reported by GET /.
const AppName = "nlpfinder API"

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Dependencies contains the components the handlers call.
type Dependencies struct {
	Config       *config.Config
	Orchestrator *index.Orchestrator
	Store        *store.Store
	Search       *search.Engine
	Embedder     embed.Embedder
	Previewer    *fileops.Previewer
	Opener       *fileops.Opener
}

// Server is the HTTP API.
type Server struct {
	app  *fiber.App
	deps Dependencies
	addr string
}

// New builds the fiber app and registers every route.
func New(deps Dependencies) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config is required")
	case deps.Orchestrator == nil:
		return nil, fmt.Errorf("orchestrator is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("store is required")
	case deps.Search == nil:
		return nil, fmt.Errorf("search engine is required")
	case deps.Embedder == nil:
		return nil, fmt.Errorf("embedder is required")
	case deps.Previewer == nil:
		return nil, fmt.Errorf("previewer is required")
	case deps.Opener == nil:
		return nil, fmt.Errorf("opener is required")
	}

	app := fiber.New(fiber.Config{
		AppName:      AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.Server.CORSOrigins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))

	s := &Server{
		app:  app,
		deps: deps,
		addr: net.JoinHostPort(deps.Config.Server.Host, strconv.Itoa(deps.Config.Server.Port)),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.handleRoot)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/config", s.handleConfig)

	s.app.Post("/index", s.handleStartIndex)
	s.app.Delete("/index", s.handleClearIndex)
	s.app.Get("/index/progress", s.handleProgress)
	s.app.Get("/index/stats", s.handleStats)
	s.app.Get("/index/files", s.handleFiles)

	s.app.Post("/search", s.handleSearch)

	s.app.Post("/file/preview", s.handlePreview)
	s.app.Post("/file/open", s.handleOpen)
}

// App returns the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http_server_started", slog.String("addr", s.addr))
		errCh <- s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	slog.Info("http_server_stopped")

	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// requestLogger writes one slog record per request.
func requestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture before the handler runs; fiber reuses contexts
		method := c.Method()
		path := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		slog.Info("http_request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
		return err
	}
}
