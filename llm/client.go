// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm wraps the external text-generation collaborators. The
// answers core only depends on the Client interface; which backend serves
// it is wiring in main.
package llm

import (
	"context"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// GenerationParams carries optional sampling parameters. Nil fields leave
// the backend's defaults in place.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Client defines the standard interface for any LLM backend. Chat takes
// the full role-tagged message list (system preamble included) and returns
// the generated assistant text. Implementations must honor context
// cancellation; the caller bounds every call with a timeout.
type Client interface {
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}
