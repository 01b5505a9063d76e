// Package logging configures structured slog output for nlpfinder.
// Records are JSON, written to a size-rotated file under ~/.nlpfinder/logs/
// and, for interactive commands, mirrored to stderr.
package logging
