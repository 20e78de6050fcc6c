// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services contains the session orchestrator: the business logic
// that turns one user message into one assistant answer. It wires
// analytics, retrieval, context assembly, session history, and the
// generation backend together; HTTP handlers stay thin.
package services

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
	"github.com/AleutianAI/AleutianAnswers/llm"
	"github.com/AleutianAI/AleutianAnswers/observability"
	"github.com/AleutianAI/AleutianAnswers/retrieval"
	"github.com/AleutianAI/AleutianAnswers/session"
)

// chatTracer is the OpenTelemetry tracer for ChatService operations.
var chatTracer = otel.Tracer("aleutian.answers.services.chat")

// Compile-time interface implementation check.
var _ DocumentRetriever = (*retrieval.Engine)(nil)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// DocumentRetriever selects candidate documents for a query. Implemented
// by retrieval.Engine; abstracted here so service tests can fail or fake
// retrieval without a knowledge store.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]datatypes.Document, error)
}

// QueryRecorder records a query occurrence for analytics. Recording is
// best-effort from this service's point of view: errors are logged and
// counted, never surfaced to the caller.
type QueryRecorder interface {
	Record(query string) error
}

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultGenerationTimeout bounds the only expected suspension point
	// in a turn, the call to the generation backend. On expiry the turn
	// fails exactly like a backend error.
	DefaultGenerationTimeout = 60 * time.Second

	// DefaultHistoryWindow is how many recent turns are replayed to the
	// generation backend. Stored history is never truncated; only the
	// prompt is.
	DefaultHistoryWindow = 10

	// sessionLockStripes is the size of the striped lock table that
	// serializes turns per session. A collision between two session IDs
	// over-serializes, never under-serializes.
	sessionLockStripes = 64
)

// systemPreamble is the fixed instruction prefix of every prompt. The
// assembled knowledge context is appended beneath it.
const systemPreamble = "You are a helpful AI assistant that answers questions based on the provided knowledge base. " +
	"Use only the information from the knowledge base context below to answer questions. " +
	"If the answer is not in the knowledge base, politely say that you don't have that information."

// Generation sampling defaults sent with every turn.
var (
	genTemperature float32 = 0.7
	genMaxTokens           = 500
)

// Config controls turn processing. Zero values select the defaults above.
type Config struct {
	GenerationTimeout time.Duration
	HistoryWindow     int
}

// =============================================================================
// ChatService
// =============================================================================

// ChatService orchestrates one conversational turn end-to-end:
//
//  1. Validate the request (before any side effect).
//  2. Record the query with analytics, best-effort.
//  3. Retrieve candidate documents; degrade to empty context if the
//     store is unavailable rather than failing the conversation.
//  4. Assemble bounded prompt context.
//  5. Under the session's lock: append the user turn, build the prompt
//     from the windowed history, call the generation backend with a
//     timeout, and append the assistant turn only on success.
//
// Concurrent turns for different sessions proceed in parallel; turns for
// the same session are serialized whole, so a prompt is never built from
// a partially updated history.
type ChatService struct {
	retriever DocumentRetriever
	store     *session.Store
	recorder  QueryRecorder
	llmClient llm.Client
	cfg       Config

	locks [sessionLockStripes]sync.Mutex
}

// NewChatService creates a ChatService with the provided collaborators.
// All four must be non-nil; config zero values select defaults.
func NewChatService(retriever DocumentRetriever, store *session.Store,
	recorder QueryRecorder, llmClient llm.Client, cfg Config) *ChatService {

	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &ChatService{
		retriever: retriever,
		store:     store,
		recorder:  recorder,
		llmClient: llmClient,
		cfg:       cfg,
	}
}

// Process handles one chat turn. On success the returned response carries
// the generated answer and the cited documents in retrieval order. On
// failure it returns InvalidInputError or GenerationError; after a
// generation failure the user turn remains recorded.
func (s *ChatService) Process(ctx context.Context, req *datatypes.ChatRequest) (*datatypes.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Process")
	defer span.End()
	start := time.Now()

	// Step 1: validate before any side effect.
	if strings.TrimSpace(req.Message) == "" {
		span.SetStatus(codes.Error, "empty message")
		observability.Default.ChatRequestsTotal.WithLabelValues("invalid_input").Inc()
		return nil, &InvalidInputError{Reason: "message must not be empty"}
	}
	if req.SessionID == "" {
		span.SetStatus(codes.Error, "empty session id")
		observability.Default.ChatRequestsTotal.WithLabelValues("invalid_input").Inc()
		return nil, &InvalidInputError{Reason: "session_id must not be empty"}
	}
	span.SetAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("session.id", req.SessionID),
	)

	// Step 2: best-effort analytics.
	if err := s.recorder.Record(req.Message); err != nil {
		observability.Default.AnalyticsRecordFailuresTotal.Inc()
		slog.Warn("Query logging failed, continuing", "error", err,
			"sessionId", req.SessionID)
	}

	// Step 3: retrieval, degrading to empty context on failure.
	docs, err := s.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		observability.Default.RetrievalUnavailableTotal.Inc()
		slog.Warn("Retrieval failed, answering without knowledge context",
			"error", err, "sessionId", req.SessionID)
		docs = nil
	}

	// Step 4: bounded context assembly.
	contextText := retrieval.BuildContext(docs)
	span.SetAttributes(attribute.Int("retrieval.documents", len(docs)))

	// Steps 5-7 run under the session lock: one in-flight turn per session.
	lock := s.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	s.store.Append(req.SessionID, datatypes.NewTurn(datatypes.RoleUser, req.Message))
	messages := s.buildPrompt(req.SessionID, contextText)

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	genStart := time.Now()
	answer, err := s.llmClient.Chat(genCtx, messages, llm.GenerationParams{
		Temperature: &genTemperature,
		MaxTokens:   &genMaxTokens,
	})
	if err != nil {
		observability.Default.GenerationDurationSeconds.WithLabelValues("error").
			Observe(time.Since(genStart).Seconds())
		observability.Default.ChatRequestsTotal.WithLabelValues("generation_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		timedOut := errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(genCtx.Err(), context.DeadlineExceeded)
		// The user turn stays in the store: the conversation is not
		// silently rewound on a failed answer.
		return nil, &GenerationError{Cause: err, TimedOut: timedOut}
	}
	observability.Default.GenerationDurationSeconds.WithLabelValues("success").
		Observe(time.Since(genStart).Seconds())

	s.store.Append(req.SessionID, datatypes.NewTurn(datatypes.RoleAssistant, answer))
	turnCount := len(s.store.All(req.SessionID))

	sources := make([]datatypes.CitedDocument, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, datatypes.CitedDocument{Title: doc.Title, ID: doc.ID})
	}

	resp := datatypes.NewChatResponse(req.RequestID, req.SessionID, answer, sources, turnCount)
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()

	observability.Default.ChatRequestsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.String("response.id", resp.ResponseID),
		attribute.Int("response.sources_count", len(resp.Sources)),
		attribute.Int("response.turn_count", resp.TurnCount),
	)
	slog.Info("Processed chat turn",
		"requestId", req.RequestID,
		"sessionId", req.SessionID,
		"sources", len(resp.Sources),
		"turnCount", resp.TurnCount,
		"durationMs", resp.ProcessingTimeMs,
	)
	return resp, nil
}

// buildPrompt assembles the role-tagged message list: the system preamble
// with the knowledge context, then the windowed session history in
// chronological order (including the just-appended user turn). Caller
// holds the session lock.
func (s *ChatService) buildPrompt(sessionID, contextText string) []datatypes.Message {
	history := s.store.Window(sessionID, s.cfg.HistoryWindow)
	messages := make([]datatypes.Message, 0, len(history)+1)
	messages = append(messages, datatypes.Message{
		Role:    string(datatypes.RoleSystem),
		Content: systemPreamble + "\n\nKnowledge Base Context:\n" + contextText,
	})
	for _, turn := range history {
		messages = append(messages, turn.AsMessage())
	}
	return messages
}

// sessionLock maps a session ID onto the striped lock table.
func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%sessionLockStripes]
}
