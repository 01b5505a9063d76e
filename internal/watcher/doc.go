// Package watcher rebuilds the index when files under the indexed
// directory change.
//
// fsnotify events are filtered to supported extensions, pruned with the
// same hidden and excluded directory rules the scanner uses, and
// coalesced by a Debouncer. When the tree has been quiet for the
// debounce window the watcher starts a full rebuild. If a job is already
// running the batch is re-queued and retried after another window.
//
// Usage:
//
//	w, err := watcher.New(orchestrator, watcher.Options{
//	    Debounce:   cfg.WatchDebounce(),
//	    Extensions: cfg.Indexing.SupportedExtensions,
//	})
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx, "/path/to/documents")
package watcher
