// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin HTTP handlers for the answers
// service. Handlers translate HTTP to service calls and map service
// errors onto status codes; all domain logic lives in the services
// package.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
	"github.com/AleutianAI/AleutianAnswers/services"
)

var chatTracer = otel.Tracer("aleutian.answers.handlers")

// HandleChat executes one conversational turn.
//
// Error mapping:
//   - malformed body or failed validation: 400 invalid_input
//   - services.InvalidInputError: 400 invalid_input
//   - services.GenerationError: 502 generation_failed
//   - anything else: 500 internal
func HandleChat(svc *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := chatTracer.Start(c.Request.Context(), "HandleChat")
		defer span.End()

		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the chat request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "invalid request body",
				"category": "invalid_input",
			})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    err.Error(),
				"category": "invalid_input",
			})
			return
		}

		resp, err := svc.Process(ctx, &req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			switch {
			case services.IsInvalidInput(err):
				c.JSON(http.StatusBadRequest, gin.H{
					"error":    err.Error(),
					"category": "invalid_input",
				})
			case services.IsGenerationFailed(err):
				slog.Error("Answer generation failed", "sessionId", req.SessionID, "error", err)
				c.JSON(http.StatusBadGateway, gin.H{
					"error":    "answer generation failed",
					"category": "generation_failed",
				})
			default:
				slog.Error("Chat request failed", "sessionId", req.SessionID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":    "internal error",
					"category": "internal",
				})
			}
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
