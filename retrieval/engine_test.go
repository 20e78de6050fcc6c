// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// fakeSearcher scripts ranked and fallback results independently so each
// tier's trigger condition can be observed.
type fakeSearcher struct {
	ranked      []datatypes.Document
	rankedErr   error
	fallback    []datatypes.Document
	fallbackErr error

	rankedCalls   int
	fallbackCalls int
}

func (f *fakeSearcher) Search(_ context.Context, _ string) ([]datatypes.Document, error) {
	f.rankedCalls++
	return f.ranked, f.rankedErr
}

func (f *fakeSearcher) SearchFallback(_ context.Context, _ string) ([]datatypes.Document, error) {
	f.fallbackCalls++
	return f.fallback, f.fallbackErr
}

func TestEngine_Retrieve(t *testing.T) {
	t.Run("ranked hit skips fallback", func(t *testing.T) {
		fs := &fakeSearcher{
			ranked:   []datatypes.Document{{ID: "r1", Title: "Ranked", Body: "b"}},
			fallback: []datatypes.Document{{ID: "f1", Title: "Fallback", Body: "b"}},
		}
		got, err := NewEngine(fs).Retrieve(context.Background(), "query")
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "r1" {
			t.Fatalf("got %v, want the ranked document", got)
		}
		if fs.fallbackCalls != 0 {
			t.Errorf("fallback called %d times, want 0", fs.fallbackCalls)
		}
	})

	t.Run("empty ranked result triggers fallback", func(t *testing.T) {
		fs := &fakeSearcher{
			fallback: []datatypes.Document{{ID: "f1", Title: "Fallback", Body: "b"}},
		}
		got, err := NewEngine(fs).Retrieve(context.Background(), "query")
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "f1" {
			t.Fatalf("got %v, want the fallback document", got)
		}
		if fs.rankedCalls != 1 || fs.fallbackCalls != 1 {
			t.Errorf("calls = ranked %d fallback %d, want 1 and 1", fs.rankedCalls, fs.fallbackCalls)
		}
	})

	t.Run("both tiers empty is a valid outcome", func(t *testing.T) {
		fs := &fakeSearcher{}
		got, err := NewEngine(fs).Retrieve(context.Background(), "query")
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("got %v, want no documents", got)
		}
	})

	t.Run("ranked error propagates without fallback", func(t *testing.T) {
		boom := errors.New("store offline")
		fs := &fakeSearcher{rankedErr: boom}
		_, err := NewEngine(fs).Retrieve(context.Background(), "query")
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped %v", err, boom)
		}
		if fs.fallbackCalls != 0 {
			t.Errorf("fallback called %d times after ranked error, want 0", fs.fallbackCalls)
		}
	})

	t.Run("fallback error propagates", func(t *testing.T) {
		boom := errors.New("store offline")
		fs := &fakeSearcher{fallbackErr: boom}
		_, err := NewEngine(fs).Retrieve(context.Background(), "query")
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped %v", err, boom)
		}
	})
}
