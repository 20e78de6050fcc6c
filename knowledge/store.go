// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge provides the in-process document store backing
// retrieval: ranked full-text search with a substring fallback, YAML
// seeding, and live reload of the seed file.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// Result limits for the two search tiers. The fallback limit is
// deliberately smaller: substring containment trades precision for recall,
// so it is kept on a shorter leash.
const (
	MaxRankedResults   = 5
	MaxFallbackResults = 3
)

// Searcher is the read-only contract the retrieval engine depends on.
//
// Search returns relevance-ranked documents; SearchFallback performs
// case-insensitive substring containment against title or body and is only
// meant to be consulted when ranked search came back empty. Both return at
// most their tier's result limit.
//
// Implementations must be safe for concurrent use.
type Searcher interface {
	Search(ctx context.Context, query string) ([]datatypes.Document, error)
	SearchFallback(ctx context.Context, query string) ([]datatypes.Document, error)
}

// =============================================================================
// Errors
// =============================================================================

// UnavailableError reports that the document store cannot serve reads,
// typically because the service is shutting down. Callers are expected to
// degrade to an empty result set rather than fail the conversation.
type UnavailableError struct {
	Reason string
}

// Error implements the error interface for UnavailableError.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("knowledge store unavailable: %s", e.Reason)
}

// IsUnavailable checks if an error is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// =============================================================================
// Store
// =============================================================================

// Store is an in-memory document store. It is read-mostly: Replace is the
// only writer and swaps the whole document set atomically, which keeps the
// search path on a read lock.
type Store struct {
	mu     sync.RWMutex
	docs   []datatypes.Document
	closed bool
}

// NewStore creates an empty, available Store. An empty store is valid:
// searches return empty results, not errors.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the entire document set. Every document must satisfy the
// non-empty title and body invariant; on violation nothing is replaced.
func (s *Store) Replace(docs []datatypes.Document) error {
	for i, d := range docs {
		if strings.TrimSpace(d.Title) == "" {
			return fmt.Errorf("document %d: title must not be empty", i)
		}
		if strings.TrimSpace(d.Body) == "" {
			return fmt.Errorf("document %d (%s): body must not be empty", i, d.Title)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &UnavailableError{Reason: "store is closed"}
	}
	s.docs = append([]datatypes.Document(nil), docs...)
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close marks the store unavailable. Subsequent searches return
// UnavailableError. Idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.docs = nil
}

// Search returns documents ranked by term-overlap relevance, at most
// MaxRankedResults.
//
// The score for a document is the total number of occurrences of query
// terms in the tokenized title+body, so it is monotonic in term-frequency
// matches. Documents with no matching term are excluded entirely, which
// places them below any document with at least one match. Ties are broken
// by recency (newer CreatedAt first), then by stable insertion order.
func (s *Store) Search(ctx context.Context, query string) ([]datatypes.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &UnavailableError{Reason: "store is closed"}
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   datatypes.Document
		score int
		order int
	}
	var matches []scored
	for i, doc := range s.docs {
		score := termOverlap(terms, tokenize(doc.Title+" "+doc.Body))
		if score == 0 {
			continue
		}
		matches = append(matches, scored{doc: doc, score: score, order: i})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].score != matches[b].score {
			return matches[a].score > matches[b].score
		}
		if !matches[a].doc.CreatedAt.Equal(matches[b].doc.CreatedAt) {
			return matches[a].doc.CreatedAt.After(matches[b].doc.CreatedAt)
		}
		return matches[a].order < matches[b].order
	})

	if len(matches) > MaxRankedResults {
		matches = matches[:MaxRankedResults]
	}
	out := make([]datatypes.Document, len(matches))
	for i, m := range matches {
		out[i] = m.doc
	}
	return out, nil
}

// SearchFallback returns documents whose title or body contains the raw
// query as a case-insensitive substring, in storage order, at most
// MaxFallbackResults. It exists for queries with no vocabulary overlap
// against indexed terms; the caller only consults it when ranked search
// returned nothing.
func (s *Store) SearchFallback(ctx context.Context, query string) ([]datatypes.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &UnavailableError{Reason: "store is closed"}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}

	var out []datatypes.Document
	for _, doc := range s.docs {
		if strings.Contains(strings.ToLower(doc.Title), needle) ||
			strings.Contains(strings.ToLower(doc.Body), needle) {
			out = append(out, doc)
			if len(out) == MaxFallbackResults {
				break
			}
		}
	}
	return out, nil
}

// =============================================================================
// Scoring Helpers
// =============================================================================

// tokenize lowercases text and splits it on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// termOverlap counts how many document tokens match any query term.
// Duplicate query terms do not double-count a token.
func termOverlap(queryTerms, docTokens []string) int {
	wanted := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		wanted[t] = struct{}{}
	}
	score := 0
	for _, tok := range docTokens {
		if _, ok := wanted[tok]; ok {
			score++
		}
	}
	return score
}
