// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session stores per-session conversation history. Sessions are
// created lazily on first append, mutated only by append, and removed by
// explicit clear or by the bounded-growth eviction machinery (size cap and
// idle sweeper).
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// DefaultMaxSessions caps the session map when the caller does not say
// otherwise. Long-running processes must not grow memory without bound.
const DefaultMaxSessions = 10000

// EvictFunc is called after a session is evicted by the size cap or the
// idle sweeper. It is not called for explicit Clear.
type EvictFunc func(sessionID string, turns int)

// Config controls bounded-growth behavior of the Store.
//
//   - MaxSessions: size cap; when an append pushes the map past the cap,
//     the least-recently-active other session is evicted. Zero disables
//     the cap. Negative values mean DefaultMaxSessions.
//   - IdleTTL: sessions untouched for longer than this are removed by
//     EvictIdle (driven by the Sweeper). Zero disables idle eviction.
//   - Clock: time source; defaults to RealClock.
//   - OnEvict: optional eviction hook, used for metrics.
type Config struct {
	MaxSessions int
	IdleTTL     time.Duration
	Clock       Clock
	OnEvict     EvictFunc
}

type sessionState struct {
	turns      []datatypes.Turn
	lastActive time.Time
}

// Store holds all sessions behind a single RWMutex. Reads hand out copies,
// so callers can never mutate stored history. Per-session request
// serialization is the orchestrator's job; the store only guarantees that
// each individual operation is atomic.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	cfg      Config
}

// NewStore creates a Store with the given config, applying defaults for
// zero-value Clock and negative MaxSessions.
func NewStore(cfg Config) *Store {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.MaxSessions < 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Store{
		sessions: make(map[string]*sessionState),
		cfg:      cfg,
	}
}

// Append adds one turn to the session, creating the session if absent.
// When the size cap is exceeded the least-recently-active other session
// is evicted.
func (s *Store) Append(sessionID string, turn datatypes.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		s.sessions[sessionID] = state
	}
	state.turns = append(state.turns, turn)
	state.lastActive = s.cfg.Clock.Now()

	if s.cfg.MaxSessions > 0 && len(s.sessions) > s.cfg.MaxSessions {
		s.evictOldestLocked(sessionID)
	}
}

// Window returns the most recent maxTurns turns in chronological order,
// or fewer if the session is shorter. The returned slice is a copy; the
// stored sequence is never exposed. A non-positive maxTurns or an unknown
// session yields an empty slice.
func (s *Store) Window(sessionID string, maxTurns int) []datatypes.Turn {
	if maxTurns <= 0 {
		return []datatypes.Turn{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return []datatypes.Turn{}
	}
	start := len(state.turns) - maxTurns
	if start < 0 {
		start = 0
	}
	return append([]datatypes.Turn{}, state.turns[start:]...)
}

// All returns the full stored sequence as a copy, empty for an unknown
// session. Unknown sessions are not an error.
func (s *Store) All(sessionID string) []datatypes.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return []datatypes.Turn{}
	}
	return append([]datatypes.Turn{}, state.turns...)
}

// Clear removes the session entirely. Idempotent: clearing an absent
// session is not an error.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes every session whose last activity is older than the
// configured IdleTTL relative to now, returning how many were evicted.
// A zero IdleTTL disables idle eviction.
func (s *Store) EvictIdle(now time.Time) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, state := range s.sessions {
		if state.lastActive.Before(cutoff) {
			turns := len(state.turns)
			delete(s.sessions, id)
			evicted++
			s.notifyEvict(id, turns)
		}
	}
	return evicted
}

// evictOldestLocked removes the least-recently-active session other than
// keep. A linear scan is fine at the configured cap sizes; the map is
// bounded by MaxSessions+1 when this runs. Caller holds the write lock.
func (s *Store) evictOldestLocked(keep string) {
	var oldestID string
	var oldestAt time.Time
	for id, state := range s.sessions {
		if id == keep {
			continue
		}
		if oldestID == "" || state.lastActive.Before(oldestAt) {
			oldestID = id
			oldestAt = state.lastActive
		}
	}
	if oldestID == "" {
		return
	}
	turns := len(s.sessions[oldestID].turns)
	delete(s.sessions, oldestID)
	slog.Info("Evicted session at size cap", "sessionId", oldestID, "turns", turns)
	s.notifyEvict(oldestID, turns)
}

func (s *Store) notifyEvict(sessionID string, turns int) {
	if s.cfg.OnEvict != nil {
		s.cfg.OnEvict(sessionID, turns)
	}
}
