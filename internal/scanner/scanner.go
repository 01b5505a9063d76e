package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// Scanner discovers indexable files in a directory.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan discovers all candidate files under opts.RootDir.
// It returns a channel of ScanResult that streams files in lexical walk
// order. The channel is closed when scanning is complete.
// An invalid root is reported synchronously as InvalidDirectory.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	absRoot, err := ValidateRoot(opts.RootDir)
	if err != nil {
		return nil, err
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	results := make(chan ScanResult, 64)

	go func() {
		defer close(results)
		s.scan(ctx, absRoot, opts, maxFileSize, results)
	}()

	return results, nil
}

// ValidateRoot resolves dir to an absolute path and checks that it is a
// readable directory.
func ValidateRoot(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", nferrors.New(nferrors.ErrCodeInvalidDirectory, "directory is required", nil)
	}

	absRoot, err := filepath.Abs(dir)
	if err != nil {
		return "", nferrors.New(nferrors.ErrCodeInvalidDirectory,
			fmt.Sprintf("invalid directory: %s", dir), err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", nferrors.New(nferrors.ErrCodeInvalidDirectory,
			fmt.Sprintf("directory does not exist: %s", absRoot), err).WithDetail("directory", absRoot)
	}
	if !info.IsDir() {
		return "", nferrors.New(nferrors.ErrCodeInvalidDirectory,
			fmt.Sprintf("path is not a directory: %s", absRoot), nil).WithDetail("directory", absRoot)
	}

	f, err := os.Open(absRoot)
	if err != nil {
		return "", nferrors.New(nferrors.ErrCodeInvalidDirectory,
			fmt.Sprintf("directory is not readable: %s", absRoot), err).WithDetail("directory", absRoot)
	}
	_ = f.Close()

	return absRoot, nil
}

// ShouldSkipDir reports whether a directory with the given base name is
// pruned from scans.
func ShouldSkipDir(name string, excludeDirs []string) bool {
	return IsHidden(name) || slices.Contains(excludeDirs, name)
}

// IsHidden reports whether a base name is a dot-file or dot-directory.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// HasAllowedExtension reports whether path's extension is on the allow-list.
func HasAllowedExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range extensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// scan performs the actual directory traversal.
func (s *Scanner) scan(ctx context.Context, absRoot string, opts *ScanOptions, maxFileSize int64, results chan<- ScanResult) {
	emit := func(r ScanResult) error {
		select {
		case results <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == absRoot {
				return err
			}
			slog.Debug("scan_entry_unreadable", slog.String("path", path), slog.String("error", err.Error()))
			reason := nferrors.New(nferrors.ErrCodeFileRead, fmt.Sprintf("cannot read %s", path), err)
			if emitErr := emit(ScanResult{Skipped: &Skipped{Path: path, Reason: reason}}); emitErr != nil {
				return emitErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip root directory itself
		if path == absRoot {
			return nil
		}

		// Handle directories
		if d.IsDir() {
			if ShouldSkipDir(d.Name(), opts.ExcludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks and other non-regular entries are not followed
		if !d.Type().IsRegular() {
			return nil
		}

		if IsHidden(d.Name()) || !HasAllowedExtension(path, opts.Extensions) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			reason := nferrors.New(nferrors.ErrCodeFileRead, fmt.Sprintf("cannot stat %s", path), err)
			return emit(ScanResult{Skipped: &Skipped{Path: path, Reason: reason}})
		}

		// Empty files carry nothing to embed
		if info.Size() == 0 {
			return nil
		}

		if info.Size() > maxFileSize {
			reason := nferrors.New(nferrors.ErrCodeFileTooLarge,
				fmt.Sprintf("file exceeds %d bytes: %s", maxFileSize, path), nil).
				WithDetail("size", fmt.Sprint(info.Size()))
			return emit(ScanResult{Skipped: &Skipped{Path: path, Reason: reason}})
		}

		return emit(ScanResult{File: &FileInfo{
			Path:      path,
			Name:      d.Name(),
			Size:      info.Size(),
			Extension: strings.ToLower(filepath.Ext(path)),
		}})
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}
