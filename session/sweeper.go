// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper checks for idle sessions.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically evicts idle sessions from a Store. Run it as a
// background goroutine for the life of the process.
type Sweeper struct {
	store    *Store
	interval time.Duration
	clock    Clock
}

// NewSweeper creates a Sweeper over the store. A non-positive interval
// falls back to DefaultSweepInterval.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval, clock: store.cfg.Clock}
}

// Run sweeps on the configured interval until the context is canceled.
// Always returns nil; sweeping has no failure mode worth stopping for.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := sw.store.EvictIdle(sw.clock.Now()); evicted > 0 {
				slog.Info("Swept idle sessions", "evicted", evicted,
					"remaining", sw.store.Count())
			}
		}
	}
}
