// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval turns a user query into prompt context: the Engine
// selects candidate documents from the knowledge store and BuildContext
// renders them into a bounded text block.
package retrieval

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
	"github.com/AleutianAI/AleutianAnswers/knowledge"
	"github.com/AleutianAI/AleutianAnswers/observability"
)

var retrievalTracer = otel.Tracer("aleutian.answers.retrieval")

// Engine performs two-tier retrieval against a knowledge searcher: ranked
// search first, substring fallback only when ranked search found nothing.
//
// The fallback trigger is exactly "zero ranked results", not a score
// threshold. Naive users often phrase queries without vocabulary overlap
// against indexed terms; the fallback trades precision for recall so the
// assistant is never left without context when some lexical overlap exists.
//
// Retrieval is deterministic given identical store state and performs no
// retries: the store is local, so a failure that repeats is not transient.
type Engine struct {
	searcher knowledge.Searcher
}

// NewEngine creates an Engine over the given searcher.
func NewEngine(searcher knowledge.Searcher) *Engine {
	return &Engine{searcher: searcher}
}

// Retrieve returns candidate documents for the query in relevance order.
// An empty result is valid output. Errors from the store (including
// knowledge.UnavailableError) propagate to the caller, which decides how
// to degrade.
func (e *Engine) Retrieve(ctx context.Context, query string) ([]datatypes.Document, error) {
	ctx, span := retrievalTracer.Start(ctx, "Engine.Retrieve")
	defer span.End()

	docs, err := e.searcher.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranked search failed")
		return nil, err
	}
	if len(docs) > 0 {
		span.SetAttributes(
			attribute.Int("retrieval.documents", len(docs)),
			attribute.Bool("retrieval.fallback", false),
		)
		return docs, nil
	}

	docs, err = e.searcher.SearchFallback(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback search failed")
		return nil, err
	}
	if len(docs) > 0 {
		observability.Default.RetrievalFallbacksTotal.Inc()
		slog.Debug("Ranked search empty, fallback matched", "documents", len(docs))
	}
	span.SetAttributes(
		attribute.Int("retrieval.documents", len(docs)),
		attribute.Bool("retrieval.fallback", true),
	)
	return docs, nil
}
