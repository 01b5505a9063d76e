// Package integration holds end-to-end tests that wire the scanner,
// extractors, orchestrator, store, search engine and watcher together
// against a real directory tree.
package integration
