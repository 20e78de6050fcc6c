// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analytics tracks query frequency for the answers service.
// Recording is best-effort telemetry: callers log failures and move on,
// they never fail a user request over it.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// Normalize canonicalizes a query for ledger keying: lowercased, trimmed.
// Casing and surrounding whitespace variants of the same question collapse
// into one entry.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Ledger is an in-memory query-frequency ledger with upsert semantics.
// All updates happen under one mutex, so two concurrent Record calls for
// the same normalized query cannot lose an increment. Entries are never
// deleted.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*datatypes.QueryLogEntry

	// now is swappable in tests to control LastAsked ordering.
	now func() time.Time
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]*datatypes.QueryLogEntry),
		now:     time.Now,
	}
}

// Record upserts the normalized query: an existing entry gets its
// frequency incremented and LastAsked refreshed; a new entry starts at
// frequency 1 with FirstSeen set. Queries that normalize to the empty
// string are rejected.
func (l *Ledger) Record(query string) error {
	key := Normalize(query)
	if key == "" {
		return fmt.Errorf("query is empty after normalization")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.entries[key]; ok {
		entry.Frequency++
		entry.LastAsked = now
		return nil
	}
	l.entries[key] = &datatypes.QueryLogEntry{
		Query:     key,
		Frequency: 1,
		LastAsked: now,
		FirstSeen: now,
	}
	return nil
}

// TopN returns up to n entries ordered by frequency descending, ties
// broken by most recent LastAsked. n <= 0 yields an empty slice.
func (l *Ledger) TopN(n int) []datatypes.QueryLogEntry {
	if n <= 0 {
		return []datatypes.QueryLogEntry{}
	}

	l.mu.Lock()
	out := make([]datatypes.QueryLogEntry, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, *entry)
	}
	l.mu.Unlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].Frequency != out[b].Frequency {
			return out[a].Frequency > out[b].Frequency
		}
		return out[a].LastAsked.After(out[b].LastAsked)
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Stats returns the derived aggregate view of the ledger. Read-only.
func (l *Ledger) Stats() datatypes.LedgerStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var totalFrequency int64
	for _, entry := range l.entries {
		totalFrequency += entry.Frequency
	}
	count := int64(len(l.entries))
	return datatypes.LedgerStats{
		TotalQueries:   count,
		UniqueQueries:  count,
		TotalFrequency: totalFrequency,
	}
}
