// Package ui renders indexing progress and index status in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/nlpfinder/internal/index"
)

// Stage is the display stage of an indexing job.
type Stage int

const (
	// StageScanning is directory traversal.
	StageScanning Stage = iota
	// StageProcessing is extraction, chunking and embedding.
	StageProcessing
	// StageBuilding is index construction and persistence.
	StageBuilding
	// StageComplete indicates the job finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageProcessing:
		return "Processing"
	case StageBuilding:
		return "Building"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageProcessing:
		return "EMBED"
	case StageBuilding:
		return "BUILD"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// StageOf maps a job status to its display stage.
func StageOf(s index.Status) Stage {
	switch s {
	case index.StatusProcessing:
		return StageProcessing
	case index.StatusBuilding:
		return StageBuilding
	case index.StatusCompleted, index.StatusFailed:
		return StageComplete
	default:
		return StageScanning
	}
}

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// CompletionStats summarizes a finished job.
type CompletionStats struct {
	Success   bool
	Message   string
	Directory string
	Files     int
	Skipped   int
	Failed    int
	Chunks    int
	Duration  time.Duration
	Model     string
}

// CompletionFromJob builds the summary of a terminal job.
func CompletionFromJob(j index.Job, model string) CompletionStats {
	return CompletionStats{
		Success:   j.Status == index.StatusCompleted,
		Message:   j.Message,
		Directory: j.Directory,
		Files:     j.Indexed,
		Skipped:   j.Skipped,
		Failed:    j.Failed,
		Chunks:    j.Chunks,
		Duration:  j.Elapsed(),
		Model:     model,
	}
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Directory  string // shown in the TUI header
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithDirectory sets the directory shown in the header.
func WithDirectory(dir string) ConfigOption {
	return func(c *Config) {
		c.Directory = dir
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a
// plain text renderer for CI, pipes, or when --no-tui is given.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
