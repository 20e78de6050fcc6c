// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analytics

import (
	"sync"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How do I reset my password?", "how do i reset my password?"},
		{"  PASSWORD reset  ", "password reset"},
		{"already normal", "already normal"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ledgerAt returns a ledger whose clock is scripted by the caller.
func ledgerAt(now *time.Time) *Ledger {
	l := NewLedger()
	l.now = func() time.Time { return *now }
	return l
}

func TestLedger_Record(t *testing.T) {
	t.Run("case and whitespace variants collapse to one entry", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		l := ledgerAt(&now)

		for _, q := range []string{"Reset Password", "reset password", "  RESET PASSWORD  "} {
			if err := l.Record(q); err != nil {
				t.Fatalf("Record(%q) failed: %v", q, err)
			}
		}

		top := l.TopN(10)
		if len(top) != 1 {
			t.Fatalf("got %d entries, want 1", len(top))
		}
		if top[0].Query != "reset password" {
			t.Errorf("stored query = %q, want normalized form", top[0].Query)
		}
		if top[0].Frequency != 3 {
			t.Errorf("frequency = %d, want 3", top[0].Frequency)
		}
	})

	t.Run("tracks first seen and last asked independently", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		l := ledgerAt(&now)

		_ = l.Record("pricing")
		first := now
		now = now.Add(time.Hour)
		_ = l.Record("pricing")

		entry := l.TopN(1)[0]
		if !entry.FirstSeen.Equal(first) {
			t.Errorf("FirstSeen = %v, want %v", entry.FirstSeen, first)
		}
		if !entry.LastAsked.Equal(now) {
			t.Errorf("LastAsked = %v, want %v", entry.LastAsked, now)
		}
	})

	t.Run("rejects queries that normalize to empty", func(t *testing.T) {
		l := NewLedger()
		if err := l.Record("   "); err == nil {
			t.Fatal("expected error for blank query")
		}
	})
}

func TestLedger_TopN(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := ledgerAt(&now)

	_ = l.Record("rare")
	_ = l.Record("common")
	_ = l.Record("common")
	_ = l.Record("common")
	now = now.Add(time.Minute)
	_ = l.Record("recent")
	_ = l.Record("recent")
	_ = l.Record("older")

	t.Run("orders by frequency descending", func(t *testing.T) {
		top := l.TopN(10)
		if top[0].Query != "common" {
			t.Fatalf("top entry = %q, want %q", top[0].Query, "common")
		}
	})

	t.Run("frequency ties break toward recency", func(t *testing.T) {
		now = now.Add(time.Minute)
		_ = l.Record("older") // freq 2, most recent of the freq-2 pair now
		top := l.TopN(3)
		if top[1].Query != "older" {
			t.Fatalf("second entry = %q, want the more recently asked tie", top[1].Query)
		}
	})

	t.Run("limits the result count", func(t *testing.T) {
		if got := l.TopN(2); len(got) != 2 {
			t.Fatalf("got %d entries, want 2", len(got))
		}
	})

	t.Run("non-positive limit returns empty", func(t *testing.T) {
		if got := l.TopN(0); len(got) != 0 {
			t.Fatalf("got %d entries, want 0", len(got))
		}
	})

	t.Run("returned entries are copies", func(t *testing.T) {
		top := l.TopN(1)
		top[0].Frequency = 9999
		if again := l.TopN(1); again[0].Frequency == 9999 {
			t.Fatal("ledger entry mutated through a returned copy")
		}
	})
}

func TestLedger_Stats(t *testing.T) {
	l := NewLedger()
	_ = l.Record("one")
	_ = l.Record("one")
	_ = l.Record("two")

	stats := l.Stats()
	if stats.UniqueQueries != 2 {
		t.Errorf("UniqueQueries = %d, want 2", stats.UniqueQueries)
	}
	if stats.TotalQueries != 2 {
		t.Errorf("TotalQueries = %d, want 2", stats.TotalQueries)
	}
	if stats.TotalFrequency != 3 {
		t.Errorf("TotalFrequency = %d, want 3", stats.TotalFrequency)
	}
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.Record("shared query")
			}
		}()
	}
	wg.Wait()

	top := l.TopN(1)
	if top[0].Frequency != 800 {
		t.Fatalf("frequency = %d, want 800", top[0].Frequency)
	}
}
