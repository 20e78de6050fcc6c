// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAnswers/datatypes"
)

// seedFile is the on-disk layout of a knowledge-base seed file.
type seedFile struct {
	Documents []seedDocument `yaml:"documents"`
}

type seedDocument struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Body      string    `yaml:"body"`
	Tags      []string  `yaml:"tags"`
	CreatedAt time.Time `yaml:"created_at"`
}

// LoadSeedFile reads a YAML seed file and returns its documents.
//
// Missing IDs are assigned fresh UUIDs and missing timestamps default to
// load time, but an empty title or body is an error: those invariants hold
// for every document the store will ever hand out, so violations are
// rejected at the edge with the document's index in the message.
func LoadSeedFile(path string) ([]datatypes.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	now := time.Now()
	docs := make([]datatypes.Document, 0, len(sf.Documents))
	for i, sd := range sf.Documents {
		if strings.TrimSpace(sd.Title) == "" {
			return nil, fmt.Errorf("seed document %d: title must not be empty", i)
		}
		if strings.TrimSpace(sd.Body) == "" {
			return nil, fmt.Errorf("seed document %d (%q): body must not be empty", i, sd.Title)
		}
		id := sd.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := sd.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		docs = append(docs, datatypes.Document{
			ID:        id,
			Title:     sd.Title,
			Body:      sd.Body,
			Tags:      sd.Tags,
			CreatedAt: createdAt,
		})
	}
	return docs, nil
}
