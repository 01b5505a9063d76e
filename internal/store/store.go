package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// Artifact file names inside the data directory.
const (
	VectorsFileName  = "vectors.gob"
	MetadataFileName = "metadata.db"
)

// Store holds the published index and its on-disk copy.
//
// Publish is a single atomic pointer swap. Readers load the pointer once
// and keep using that snapshot, so a concurrent Publish or Clear never
// produces a torn view. Disk operations are serialized in-process by a
// mutex and across processes by a file lock in the data directory.
type Store struct {
	dataDir string
	opts    Options

	current atomic.Pointer[Index]

	diskMu sync.Mutex
	lock   *FileLock
}

// New creates a store rooted at dataDir. Nothing is loaded.
func New(dataDir string, opts Options) *Store {
	if opts.Backend == "" {
		opts.Backend = BackendFlat
	}
	return &Store{
		dataDir: dataDir,
		opts:    opts,
		lock:    NewFileLock(dataDir),
	}
}

// DataDir returns the data directory.
func (s *Store) DataDir() string { return s.dataDir }

// Options returns the search options new indexes are built with.
func (s *Store) Options() Options { return s.opts }

// NewBuilder starts a pending index with this store's options.
func (s *Store) NewBuilder(directory, model string) *Builder {
	return NewBuilder(directory, model, s.opts)
}

// Publish atomically replaces the servable index.
func (s *Store) Publish(idx *Index) {
	s.current.Store(idx)
	if idx != nil {
		slog.Info("index_published",
			slog.String("directory", idx.Directory()),
			slog.Int("files", len(idx.docs)),
			slog.Int("vectors", idx.Len()))
	}
}

// Current returns the published index, or nil.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Search queries the published index. It returns the snapshot it used
// so callers resolve hits against the same index.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Hit, *Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	idx := s.current.Load()
	if idx == nil {
		return nil, nil, nferrors.ErrIndexNotFound
	}
	hits, err := idx.Search(query, k)
	if err != nil {
		return nil, nil, err
	}
	return hits, idx, nil
}

// Stats describes the published index.
func (s *Store) Stats() Stats {
	if idx := s.current.Load(); idx != nil {
		return idx.Stats()
	}
	return Stats{}
}

func (s *Store) vectorsPath() string  { return filepath.Join(s.dataDir, VectorsFileName) }
func (s *Store) metadataPath() string { return filepath.Join(s.dataDir, MetadataFileName) }

func (s *Store) withLock(fn func() error) error {
	s.diskMu.Lock()
	defer s.diskMu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return nferrors.New(nferrors.ErrCodeFileWrite, "failed to lock data directory", err).
			WithDetail("data_dir", s.dataDir)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Warn("data_dir_unlock_failed", slog.String("error", err.Error()))
		}
	}()
	return fn()
}

// Persist writes idx to the data directory, replacing what was there.
// Both artifacts are written to temp files first; nothing is renamed into
// place until both writes succeed, so a failed persist leaves the previous
// pair loadable.
func (s *Store) Persist(ctx context.Context, idx *Index) error {
	if idx == nil {
		return nferrors.InternalError("cannot persist a nil index", nil)
	}
	return s.withLock(func() error {
		start := time.Now()
		vecTmp := s.vectorsPath() + ".tmp"
		metaTmp := s.metadataPath() + ".tmp"

		vf := &vectorFile{
			Version:   vectorFormatVersion,
			Dimension: idx.dims,
			Directory: idx.directory,
			Model:     idx.model,
			BuiltAt:   idx.builtAt,
			Chunks:    idx.chunks,
			Vectors:   idx.vectors,
		}
		if err := writeVectors(vecTmp, vf); err != nil {
			return nferrors.New(nferrors.ErrCodeFileWrite, "failed to write vector artifact", err)
		}

		if err := writeMetadata(ctx, metaTmp, idx); err != nil {
			_ = os.Remove(vecTmp)
			return nferrors.New(nferrors.ErrCodeFileWrite, "failed to write metadata", err)
		}

		if err := s.commit(vecTmp, metaTmp); err != nil {
			return nferrors.New(nferrors.ErrCodeFileWrite, "failed to replace index artifacts", err)
		}

		slog.Info("index_persisted",
			slog.String("data_dir", s.dataDir),
			slog.Int("vectors", idx.Len()),
			slog.Duration("duration", time.Since(start)))
		return nil
	})
}

// commit renames both staged artifacts into place. The build stamp stored
// in each lets Load reject a pair torn by a crash between the renames.
func (s *Store) commit(vecTmp, metaTmp string) error {
	removeSQLite(s.metadataPath())
	if err := os.Rename(metaTmp, s.metadataPath()); err != nil {
		_ = os.Remove(vecTmp)
		removeSQLite(metaTmp)
		return err
	}
	if err := os.Rename(vecTmp, s.vectorsPath()); err != nil {
		_ = os.Remove(vecTmp)
		return err
	}
	return nil
}

func writeMetadata(ctx context.Context, path string, idx *Index) error {
	removeSQLite(path)

	meta, err := OpenMetadata(path)
	if err != nil {
		return err
	}
	state := map[string]string{
		StateKeyDirectory: idx.directory,
		StateKeyModel:     idx.model,
		StateKeyDimension: strconv.Itoa(idx.dims),
		StateKeyBuiltAt:   buildStamp(idx.builtAt),
	}
	if err := meta.ReplaceAll(ctx, idx.Documents(), state); err != nil {
		_ = meta.Close()
		removeSQLite(path)
		return err
	}
	if err := meta.Close(); err != nil {
		removeSQLite(path)
		return err
	}
	return nil
}

func buildStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Load reads the persisted index. It returns IndexNotFound when nothing
// is persisted and CorruptIndex when the artifacts are unreadable or
// inconsistent. Load does not publish.
func (s *Store) Load(ctx context.Context) (*Index, error) {
	var idx *Index
	err := s.withLock(func() error {
		vf, err := readVectors(s.vectorsPath())
		if errors.Is(err, os.ErrNotExist) {
			return nferrors.ErrIndexNotFound
		}
		if err != nil {
			return corrupt(s.vectorsPath(), err)
		}

		if _, err := os.Stat(s.metadataPath()); err != nil {
			return corrupt(s.metadataPath(), err)
		}
		meta, err := OpenMetadata(s.metadataPath())
		if err != nil {
			return corrupt(s.metadataPath(), err)
		}
		defer meta.Close()

		stamp, err := meta.State(ctx, StateKeyBuiltAt)
		if err != nil {
			return corrupt(s.metadataPath(), err)
		}
		if stamp != "" && stamp != buildStamp(vf.BuiltAt) {
			return corrupt(s.dataDir, fmt.Errorf("metadata built at %s, vectors at %s", stamp, buildStamp(vf.BuiltAt)))
		}

		docs, err := meta.Documents(ctx)
		if err != nil {
			return corrupt(s.metadataPath(), err)
		}

		idx, err = newIndex(vf.Directory, vf.Model, vf.BuiltAt, docs, vf.Chunks, vf.Vectors, s.opts)
		if err != nil {
			return corrupt(s.dataDir, err)
		}
		if vf.Dimension != idx.dims {
			return corrupt(s.vectorsPath(), fmt.Errorf("header dimension %d, vectors %d", vf.Dimension, idx.dims))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("index_loaded",
		slog.String("directory", idx.Directory()),
		slog.Int("vectors", idx.Len()))
	return idx, nil
}

// Clear drops the published index and deletes both artifacts.
func (s *Store) Clear(ctx context.Context) error {
	s.current.Store(nil)
	return s.withLock(func() error {
		if err := os.Remove(s.vectorsPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nferrors.New(nferrors.ErrCodeFileWrite, "failed to delete vector artifact", err)
		}
		removeSQLite(s.metadataPath())
		slog.Info("index_cleared", slog.String("data_dir", s.dataDir))
		return nil
	})
}

func corrupt(path string, err error) error {
	return nferrors.New(nferrors.ErrCodeCorruptIndex,
		fmt.Sprintf("index data is unreadable: %s", path), err).
		WithSuggestion("Clear and re-index the directory")
}

// removeSQLite deletes a database and its WAL side files.
func removeSQLite(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	_ = os.Remove(path + "-journal")
}
