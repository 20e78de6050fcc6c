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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAnswers/session"
)

// GetHistory returns the full transcript for a session in
// chronological order. Unknown sessions yield an empty transcript, not
// a 404, so clients can poll before the first turn lands.
func GetHistory(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		turns := store.All(sessionID)
		c.JSON(http.StatusOK, gin.H{
			"session_id": sessionID,
			"history":    turns,
			"turn_count": len(turns),
		})
	}
}

// ClearHistory deletes a session's transcript. Clearing an unknown
// session succeeds; the operation is idempotent.
func ClearHistory(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		store.Clear(sessionID)
		slog.Info("Cleared session history", "sessionId", sessionID)
		c.JSON(http.StatusOK, gin.H{
			"status":     "cleared",
			"session_id": sessionID,
		})
	}
}
