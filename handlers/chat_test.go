// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
	"github.com/AleutianAI/AleutianAnswers/llm"
	"github.com/AleutianAI/AleutianAnswers/retrieval"
	"github.com/AleutianAI/AleutianAnswers/services"
	"github.com/AleutianAI/AleutianAnswers/session"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// MockLLMClient implements llm.Client for handler testing.
type MockLLMClient struct {
	ChatResponse string
	ChatError    error
}

func (m *MockLLMClient) Chat(_ context.Context, _ []datatypes.Message,
	_ llm.GenerationParams) (string, error) {
	return m.ChatResponse, m.ChatError
}

type stubSearcher struct {
	docs []datatypes.Document
}

func (s stubSearcher) Search(_ context.Context, _ string) ([]datatypes.Document, error) {
	return s.docs, nil
}

func (s stubSearcher) SearchFallback(_ context.Context, _ string) ([]datatypes.Document, error) {
	return nil, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(_ string) error { return nil }

func newChatRouter(client *MockLLMClient, docs []datatypes.Document) (*gin.Engine, *session.Store) {
	store := session.NewStore(session.Config{})
	svc := services.NewChatService(
		retrieval.NewEngine(stubSearcher{docs: docs}), store,
		noopRecorder{}, client, services.Config{})

	router := gin.New()
	router.POST("/v1/chat", HandleChat(svc))
	return router, store
}

func postChat(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest("POST", "/v1/chat", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =============================================================================
// HandleChat
// =============================================================================

func TestHandleChat_Success(t *testing.T) {
	client := &MockLLMClient{ChatResponse: "Generated answer."}
	router, _ := newChatRouter(client, []datatypes.Document{
		{ID: "d1", Title: "Guide", Body: "guide body"},
	})

	w := postChat(router, gin.H{
		"message":    "How does this work?",
		"session_id": "sess-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp datatypes.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Generated answer.", resp.Answer)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, 2, resp.TurnCount)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "d1", resp.Sources[0].ID)
	assert.NotEmpty(t, resp.ResponseID)
	assert.NotEmpty(t, resp.RequestID, "request id must be generated when omitted")
}

func TestHandleChat_MalformedBody(t *testing.T) {
	router, _ := newChatRouter(&MockLLMClient{ChatResponse: "x"}, nil)

	w := postChat(router, "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_input", body["category"])
}

func TestHandleChat_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing message", gin.H{"session_id": "sess-1"}},
		{"missing session id", gin.H{"message": "hello"}},
		{"whitespace message", gin.H{"message": "   ", "session_id": "sess-1"}},
		{"bad request id", gin.H{"message": "hello", "session_id": "s", "request_id": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := newChatRouter(&MockLLMClient{ChatResponse: "x"}, nil)
			w := postChat(router, tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "invalid_input", body["category"])
			assert.Equal(t, 0, store.Count(), "no session state on rejected input")
		})
	}
}

func TestHandleChat_GenerationFailure(t *testing.T) {
	client := &MockLLMClient{ChatError: errors.New("backend down")}
	router, store := newChatRouter(client, nil)

	w := postChat(router, gin.H{"message": "hello", "session_id": "sess-1"})
	require.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "generation_failed", body["category"])

	// The user's message is preserved for the next attempt.
	turns := store.All("sess-1")
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Content)
}
