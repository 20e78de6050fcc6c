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
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// Context assembly constants. Fixed service-wide; the per-document cap
// bounds worst-case prompt size.
const (
	// NoContextSentinel is returned for an empty document list. Callers
	// must treat it as valid output, not as a failure.
	NoContextSentinel = "No relevant information found in the knowledge base."

	// MaxDocumentChars caps each document body within the assembled
	// context. Counted in runes so truncation never splits a character.
	MaxDocumentChars = 1000

	// TruncationMarker is appended to any body cut at MaxDocumentChars.
	TruncationMarker = "..."
)

// BuildContext renders retrieved documents into a single text block for
// the generation prompt. Each document becomes a labeled block with a
// 1-based index, its title, and its body truncated at MaxDocumentChars;
// blocks are joined by blank lines.
func BuildContext(docs []datatypes.Document) string {
	if len(docs) == 0 {
		return NoContextSentinel
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[Article %d]\nTitle: %s\nContent: %s",
			i+1, doc.Title, truncate(doc.Body, MaxDocumentChars))
	}
	return strings.Join(blocks, "\n\n")
}

// truncate cuts s at max runes, appending the truncation marker when
// anything was removed.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}
