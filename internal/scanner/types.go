// Package scanner discovers indexable files in a directory tree. It
// prunes hidden and excluded directories, applies the extension allow-list
// and the file size cap, and streams candidates and skip records.
package scanner

// FileInfo describes a candidate file.
type FileInfo struct {
	Path      string // Absolute path
	Name      string // Base name
	Size      int64  // File size in bytes
	Extension string // Lowercase, with leading dot
}

// Skipped records a file that was seen but will not be indexed.
type Skipped struct {
	Path   string
	Reason error
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the directory to scan.
	RootDir string

	// Extensions is the allow-list (lowercase, leading dot). Files with
	// other extensions are ignored silently. Empty allows every extension.
	Extensions []string

	// ExcludeDirs are directory base names pruned from the walk, in
	// addition to hidden directories.
	ExcludeDirs []string

	// MaxFileSize is the maximum file size in bytes (0 = 10MB default).
	MaxFileSize int64
}

// ScanResult is returned from the scanner channel. Exactly one field is set.
type ScanResult struct {
	File    *FileInfo
	Skipped *Skipped
	Error   error
}

// DefaultMaxFileSize is the default maximum file size (10MB).
const DefaultMaxFileSize = 10 * 1024 * 1024
