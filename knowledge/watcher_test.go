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
	"os"
	"testing"
	"time"
)

func waitForLen(t *testing.T, s *Store, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for s.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("store Len = %d, want %d before deadline", s.Len(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeSeedFile(t, `
documents:
  - title: First
    body: first body
`)
	store := NewStore()
	docs, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}
	if err := store.Replace(docs); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWatcher(store, path).Run(ctx) }()

	// Give the watcher a moment to register before the write.
	time.Sleep(100 * time.Millisecond)

	updated := `
documents:
  - title: First
    body: first body
  - title: Second
    body: second body
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("failed to rewrite seed file: %v", err)
	}
	waitForLen(t, store, 2)
}

func TestWatcher_FailedReloadKeepsDocuments(t *testing.T) {
	path := writeSeedFile(t, `
documents:
  - title: First
    body: first body
`)
	store := NewStore()
	docs, _ := LoadSeedFile(path)
	if err := store.Replace(docs); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWatcher(store, path).Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("documents: [broken"), 0o644); err != nil {
		t.Fatalf("failed to rewrite seed file: %v", err)
	}

	// The broken file must not empty the store. There is no positive
	// signal to wait on, so settle for a short pause and assert.
	time.Sleep(500 * time.Millisecond)
	if store.Len() != 1 {
		t.Fatalf("store Len = %d after failed reload, want 1", store.Len())
	}
}
