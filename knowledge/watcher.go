// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the knowledge store when the seed file changes on disk.
// A failed reload keeps the previously loaded documents in place, so a
// half-written file never empties the store.
type Watcher struct {
	store *Store
	path  string
}

// NewWatcher creates a Watcher for the given store and seed file path.
func NewWatcher(store *Store, path string) *Watcher {
	return &Watcher{store: store, path: path}
}

// Run watches the seed file's directory until the context is canceled.
// Watching the directory rather than the file survives editors and
// deploy tools that replace the file via rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Info("Watching knowledge seed file for changes", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Knowledge watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	docs, err := LoadSeedFile(w.path)
	if err != nil {
		slog.Error("Failed to reload knowledge seed file, keeping current documents",
			"path", w.path, "error", err)
		return
	}
	if err := w.store.Replace(docs); err != nil {
		slog.Error("Failed to replace knowledge documents", "error", err)
		return
	}
	slog.Info("Reloaded knowledge base", "path", w.path, "documents", len(docs))
}
