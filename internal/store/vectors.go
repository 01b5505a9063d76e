package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// vectorFormatVersion is bumped when vectorFile changes incompatibly.
const vectorFormatVersion = 1

// vectorFile is the gob-encoded vector artifact.
type vectorFile struct {
	Version   int
	Dimension int
	Directory string
	Model     string
	BuiltAt   time.Time
	Chunks    []Chunk
	Vectors   [][]float32
}

// writeVectors encodes the artifact to path. Callers write to a temp
// path and rename it into place.
func writeVectors(path string, vf *vectorFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := gob.NewEncoder(w).Encode(vf); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to encode vectors: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to flush vectors: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to sync vector file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close vector file: %w", err)
	}
	return nil
}

// readVectors loads the artifact. The caller maps os.ErrNotExist.
func readVectors(path string) (*vectorFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var vf vectorFile
	if err := gob.NewDecoder(bufio.NewReader(file)).Decode(&vf); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}
	if vf.Version != vectorFormatVersion {
		return nil, fmt.Errorf("unsupported vector format version %d", vf.Version)
	}
	return &vf, nil
}
