// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// QueryLogEntry is one normalized query tracked by the analytics ledger.
//
// Query is the natural key: lowercased and trimmed before insert, so
// "Reset Password" and " reset password " collapse into a single entry.
// FirstSeen is immutable; Frequency and LastAsked move on every repeat.
type QueryLogEntry struct {
	Query     string    `json:"query"`
	Frequency int64     `json:"frequency"`
	LastAsked time.Time `json:"last_asked"`
	FirstSeen time.Time `json:"first_seen"`
}

// LedgerStats is the aggregate view returned by GET /v1/analytics/stats.
//
//   - TotalQueries: number of ledger entries.
//   - UniqueQueries: number of distinct normalized queries. Equal to
//     TotalQueries by construction for the in-process ledger; kept as a
//     separate field to preserve the API contract.
//   - TotalFrequency: sum of all frequencies, i.e. total occurrences.
type LedgerStats struct {
	TotalQueries   int64 `json:"total_queries"`
	UniqueQueries  int64 `json:"unique_queries"`
	TotalFrequency int64 `json:"total_frequency"`
}
