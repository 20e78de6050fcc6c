// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains request and response types for the chat endpoint.
// Analytics payload types live in analytics.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single chat message.
	// Checked in bytes, not runes, to bound memory regardless of encoding.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxSessionIDBytes bounds the caller-supplied session identifier.
	MaxSessionIDBytes = 256
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
// Initialized in init() with custom validators.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces the byte-length cap on message content.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Request
// =============================================================================

// ChatRequest is the body of POST /v1/chat.
//
// # Fields
//
//   - RequestID: Optional. Unique identifier for the request (UUID v4).
//     Generated server-side when absent; used for tracing and correlation.
//   - Timestamp: Optional. Unix milliseconds (UTC) the request was created.
//     Populated server-side when absent.
//   - Message: Required. The user's new message. Limited to 32KB.
//     Whitespace-only messages are rejected by the chat service, not here;
//     the validator only sees structural problems.
//   - SessionID: Required. Caller-supplied opaque session key. The service
//     does not enforce uniqueness; callers own their keyspace.
//
// # Validation
//
// Uses go-playground/validator:
//   - RequestID: optional, must be UUID v4 when present
//   - Message: required, max 32768 bytes
//   - SessionID: required, max 256 bytes
type ChatRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Message   string `json:"message" validate:"required,maxbytes"`
	SessionID string `json:"session_id" validate:"required,max=256"`
}

// Validate validates the ChatRequest fields. Call after binding the JSON
// body and EnsureDefaults.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp if the client omitted
// them, so every request has identifiers for tracing and audit logging.
func (r *ChatRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = generateUUID()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// =============================================================================
// Chat Response
// =============================================================================

// ChatResponse is the body returned by POST /v1/chat.
//
// # Fields
//
//   - ResponseID: Unique identifier for this response (UUID v4),
//     generated server-side.
//   - RequestID: Echo of the request ID for correlation.
//   - Timestamp: Unix milliseconds (UTC) the response was produced.
//   - Answer: The generated assistant text.
//   - SessionID: Echo of the session the turn belongs to.
//   - Sources: Documents cited in the answer, in retrieval order. Empty
//     when the knowledge base had nothing relevant.
//   - TurnCount: Number of turns stored for the session after this
//     exchange, user and assistant turns both counted.
//   - ProcessingTimeMs: Wall-clock time spent handling the turn.
type ChatResponse struct {
	ResponseID       string          `json:"response_id"`
	RequestID        string          `json:"request_id"`
	Timestamp        int64           `json:"timestamp"`
	Answer           string          `json:"answer"`
	SessionID        string          `json:"session_id"`
	Sources          []CitedDocument `json:"sources"`
	TurnCount        int             `json:"turn_count"`
	ProcessingTimeMs int64           `json:"processing_time_ms,omitempty"`
}

// NewChatResponse creates a ChatResponse with auto-generated ID and
// timestamp. Sources is normalized to an empty slice so the JSON field is
// always a list, never null.
func NewChatResponse(requestID, sessionID, answer string, sources []CitedDocument, turnCount int) *ChatResponse {
	if sources == nil {
		sources = []CitedDocument{}
	}
	return &ChatResponse{
		ResponseID: generateUUID(),
		RequestID:  requestID,
		Timestamp:  time.Now().UnixMilli(),
		Answer:     answer,
		SessionID:  sessionID,
		Sources:    sources,
		TurnCount:  turnCount,
	}
}

// generateUUID returns a new UUID v4 string.
func generateUUID() string {
	return uuid.New().String()
}
