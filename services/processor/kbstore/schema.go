// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package kbstore

import (
	"context"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding knowledge-base documents.
const ClassName = "KBDocument"

// GetKBDocumentSchema returns the class definition for knowledge-base
// documents. Vectors are attached at import time, so no vectorizer.
func GetKBDocumentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ClassName,
		Description: "An AP Calculus knowledge-base segment with its embedding.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The segment text, possibly paraphrased.",
				Tokenization: "word",
			},
			{
				Name:            "partition",
				DataType:        []string{"text"},
				Description:     "Storage partition (public_kb or paraphrased_kb).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "year",
				DataType:        []string{"int"},
				Description:     "Course year of the material.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "content_type",
				DataType:        []string{"text"},
				Description:     "Notes, Practice, Review, or Example.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "variant",
				DataType:        []string{"text"},
				Description:     "Exam variant (calc_ab or calc_bc).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "source_file",
				DataType:        []string{"text"},
				Description:     "The PDF this segment came from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "page_number",
				DataType:        []string{"int"},
				Description:     "Page of the source document.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:        "figure_caption",
				DataType:    []string{"text"},
				Description: "Caption when the segment references a figure.",
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the segment was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the KBDocument class if it does not exist yet.
func EnsureSchema(client *weaviate.Client) error {
	class := GetKBDocumentSchema()
	slog.Info("Checking schema", "class", class.Class)

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
		return err
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}
