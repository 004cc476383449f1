// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package kbstore persists knowledge-base documents and their vectors
// in Weaviate.
//
// # Description
//
// Document IDs are derived from a content+source hash, so re-ingesting
// the same PDF upserts in place instead of duplicating segments.
package kbstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate/entities/models"
)

// Document is one knowledge-base segment ready for storage.
type Document struct {
	Content       string
	Partition     string
	Year          int
	ContentType   string
	Variant       string
	SourceFile    string
	PageNumber    int
	FigureCaption string
}

// UpsertStats summarizes one batch import.
type UpsertStats struct {
	Attempted  int
	Successful int
	Failed     int
}

// Store wraps a Weaviate client for KBDocument operations.
type Store struct {
	client *weaviate.Client
}

// NewStore builds a Store over an initialized Weaviate client.
func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// DocumentID derives a deterministic UUID from segment content and its
// source file.
func DocumentID(content, sourceFile string) string {
	hash := sha256.Sum256([]byte(sourceFile + "\x00" + content))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

// BuildObjects converts documents and their vectors into Weaviate batch
// objects. Vector i belongs to document i; a nil vectors slice stores
// the documents without embeddings.
func BuildObjects(docs []Document, vectors [][]float32) ([]*models.Object, error) {
	if vectors != nil && len(vectors) != len(docs) {
		return nil, fmt.Errorf("vector count %d does not match document count %d",
			len(vectors), len(docs))
	}

	now := time.Now().UnixMilli()
	objects := make([]*models.Object, len(docs))
	for i, doc := range docs {
		obj := &models.Object{
			Class: ClassName,
			ID:    strfmt.UUID(DocumentID(doc.Content, doc.SourceFile)),
			Properties: map[string]interface{}{
				"content":        doc.Content,
				"partition":      doc.Partition,
				"year":           doc.Year,
				"content_type":   doc.ContentType,
				"variant":        doc.Variant,
				"source_file":    doc.SourceFile,
				"page_number":    doc.PageNumber,
				"figure_caption": doc.FigureCaption,
				"ingested_at":    now,
			},
		}
		if vectors != nil {
			obj.Vector = vectors[i]
		}
		objects[i] = obj
	}
	return objects, nil
}

// UpsertBatch writes documents and their vectors in one batch import.
func (s *Store) UpsertBatch(ctx context.Context, docs []Document, vectors [][]float32) (UpsertStats, error) {
	stats := UpsertStats{Attempted: len(docs)}
	if len(docs) == 0 {
		return stats, nil
	}

	objects, err := BuildObjects(docs, vectors)
	if err != nil {
		return stats, err
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to save objects to Weaviate: %w", err)
	}

	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			stats.Successful++
			continue
		}
		stats.Failed++
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "error", errItem.Message)
			}
		}
	}

	slog.Info("upserted knowledge-base batch",
		"attempted", stats.Attempted, "successful", stats.Successful, "failed", stats.Failed)
	return stats, nil
}

// ListSources returns the distinct source files present in the store.
func (s *Store) ListSources(ctx context.Context) ([]string, error) {
	agg, err := s.client.GraphQL().Aggregate().
		WithClassName(ClassName).
		WithGroupBy("source_file").
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sources: %w", err)
	}

	var sources []string
	aggRoot, ok := agg.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return sources, nil
	}
	groups, ok := aggRoot[ClassName].([]interface{})
	if !ok {
		return sources, nil
	}
	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]interface{})
		if !ok {
			continue
		}
		groupedBy, ok := groupMap["groupedBy"].(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := groupedBy["value"].(string); ok {
			sources = append(sources, source)
		}
	}
	return sources, nil
}

// DeleteBySource removes every document ingested from the given file.
func (s *Store) DeleteBySource(ctx context.Context, sourceFile string) error {
	where := filters.Where().
		WithPath([]string{"source_file"}).
		WithOperator(filters.Equal).
		WithValueString(sourceFile)

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(ClassName).
		WithOutput("minimal").
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete documents for source %s: %w", sourceFile, err)
	}

	slog.Info("deleted knowledge-base documents", "source_file", sourceFile)
	return nil
}
