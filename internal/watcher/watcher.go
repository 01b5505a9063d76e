package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/scanner"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 2 * time.Second

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a relevant file system change.
type FileEvent struct {
	// Path is relative to the watched root.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Starter starts an index job. *index.Orchestrator satisfies it.
type Starter interface {
	Start(ctx context.Context, dir string) (index.Job, error)
}

// Options configures the watcher behavior.
type Options struct {
	// Debounce is the quiet period before a rebuild. Default: 2s
	Debounce time.Duration

	// Extensions limits which file changes count. Empty means all.
	Extensions []string

	// ExcludeDirs are directory base names pruned from watching, in
	// addition to hidden directories.
	ExcludeDirs []string
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	return o
}

// Watcher triggers full rebuilds of one directory tree on change.
type Watcher struct {
	starter   Starter
	opts      Options
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger

	root  string
	ready chan struct{}

	rebuilds atomic.Int64
	stopOnce sync.Once
}

// New creates a watcher. Call Run to start watching.
func New(starter Starter, opts Options) (*Watcher, error) {
	if starter == nil {
		return nil, errors.New("starter is required")
	}
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		starter:   starter,
		opts:      opts,
		fsWatcher: fsw,
		debouncer: NewDebouncer(opts.Debounce),
		logger:    slog.Default(),
		ready:     make(chan struct{}),
	}, nil
}

// Run watches dir until ctx is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	root, err := scanner.ValidateRoot(dir)
	if err != nil {
		w.Stop()
		return err
	}
	w.root = root

	if err := w.addRecursive(root); err != nil {
		w.Stop()
		return fmt.Errorf("add directories to watcher: %w", err)
	}
	close(w.ready)

	w.logger.Info("watch_started",
		slog.String("directory", root),
		slog.Duration("debounce", w.opts.Debounce))

	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch_stopped", slog.String("directory", root))
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			w.rebuild(ctx, batch)
		}
	}
}

// Ready is closed once the initial tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Rebuilds returns how many rebuilds the watcher has started.
func (w *Watcher) Rebuilds() int64 {
	return w.rebuilds.Load()
}

// Stop releases the fsnotify watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.debouncer.Stop()
		_ = w.fsWatcher.Close()
	})
}

func (w *Watcher) rebuild(ctx context.Context, batch []FileEvent) {
	job, err := w.starter.Start(ctx, w.root)
	switch {
	case errors.Is(err, nferrors.ErrIndexInProgress):
		w.logger.Debug("watch_rebuild_deferred", slog.Int("changes", len(batch)))
		w.debouncer.Requeue(batch)
	case err != nil:
		w.logger.Warn("watch_rebuild_failed",
			slog.String("directory", w.root),
			slog.String("error", err.Error()))
	default:
		w.rebuilds.Add(1)
		w.logger.Info("watch_rebuild_started",
			slog.String("job_id", job.ID.String()),
			slog.Int("changes", len(batch)))
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || w.pruned(rel) {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
		if isDir {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watch_add_failed",
					slog.String("path", event.Name),
					slog.String("error", err.Error()))
			}
		}
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	if !w.relevant(rel, op, isDir) {
		return
	}
	w.debouncer.Add(FileEvent{Path: rel, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

// relevant reports whether a change can alter the index. A removed path
// with no extension may have been a directory of indexed files.
func (w *Watcher) relevant(rel string, op Operation, isDir bool) bool {
	if isDir {
		return op == OpCreate
	}
	if scanner.HasAllowedExtension(rel, w.opts.Extensions) {
		return true
	}
	return (op == OpDelete || op == OpRename) && filepath.Ext(rel) == ""
}

// pruned reports whether any component of rel is hidden or excluded.
func (w *Watcher) pruned(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		if scanner.IsHidden(p) {
			return true
		}
		if i < len(parts)-1 && scanner.ShouldSkipDir(p, w.opts.ExcludeDirs) {
			return true
		}
	}
	return scanner.ShouldSkipDir(parts[len(parts)-1], w.opts.ExcludeDirs) && isDirPath(filepath.Join(w.root, rel))
}

func isDirPath(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && scanner.ShouldSkipDir(d.Name(), w.opts.ExcludeDirs) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}
