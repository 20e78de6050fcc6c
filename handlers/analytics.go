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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianAnswers/analytics"
)

// DefaultTopQueriesLimit is the number of entries returned when the
// caller does not pass a limit.
const DefaultTopQueriesLimit = 10

// TopQueries returns the most frequent normalized queries, ordered by
// frequency with recency as the tiebreak. An invalid or missing limit
// falls back to the default rather than failing the request.
func TopQueries(ledger *analytics.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := DefaultTopQueriesLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		queries := ledger.TopN(limit)
		c.JSON(http.StatusOK, gin.H{
			"count":   len(queries),
			"queries": queries,
		})
	}
}

// AnalyticsStats returns aggregate counters for the query ledger.
func AnalyticsStats(ledger *analytics.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ledger.Stats())
	}
}
