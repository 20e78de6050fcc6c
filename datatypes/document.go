// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures shared across the answers
// service: knowledge-base documents, conversation turns, chat request and
// response payloads, and analytics records.
package datatypes

import "time"

// Document is a single knowledge-base entry.
//
// Documents are immutable once loaded into the knowledge store: the store
// hands out copies and nothing downstream mutates them. Title and Body are
// required to be non-empty; the seed loader enforces this invariant.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CitedDocument identifies a document surfaced to the user alongside a chat
// answer. Only the title and ID cross the API boundary; the body stays in
// the prompt context.
type CitedDocument struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}
