// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"errors"
	"fmt"
)

// The chat service distinguishes two caller-visible failure categories.
// Everything else (retrieval trouble, analytics trouble) is absorbed: a
// turn either completes or fails with one of these; partial responses are
// never returned.

// InvalidInputError is returned when the request is rejected before any
// side effect: empty or whitespace-only message, or empty session ID.
// Handlers map it to HTTP 400.
type InvalidInputError struct {
	Reason string
}

// Error implements the error interface for InvalidInputError.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// IsInvalidInput checks if an error is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

// GenerationError is returned when the generation backend errored or the
// generation timeout expired. The user turn stays recorded in the session
// so conversation state is not silently lost; no assistant turn is
// appended. Handlers map it to HTTP 502.
type GenerationError struct {
	Cause    error
	TimedOut bool
}

// Error implements the error interface for GenerationError.
func (e *GenerationError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("generation timed out: %v", e.Cause)
	}
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

// Unwrap exposes the underlying backend error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// IsGenerationFailed checks if an error is a GenerationError.
func IsGenerationFailed(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
