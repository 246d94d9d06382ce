// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package store defines the vector index boundary: named collections of
// (id, embedding, payload) records with top-k cosine similarity search.
package store

import (
	"context"
	"time"
)

// Record is the unit stored in a collection.
type Record struct {
	ID        string
	Vector    []float32
	Source    string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Result is a search hit. Score is cosine similarity in [0, 1] for
// normalized embeddings; results are ordered by descending score.
type Result struct {
	ID        string
	Score     float32
	Source    string
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Index manages embedding storage and similarity search over named
// collections. Implementations must be safe for concurrent use.
type Index interface {
	// EnsureCollection creates the collection if missing. It is
	// idempotent; an existing collection with different dimensions is a
	// dimension-mismatch error, never silently adapted.
	EnsureCollection(ctx context.Context, name string, dimensions int) error

	// Upsert inserts or replaces records by id.
	Upsert(ctx context.Context, collection string, records []Record) error

	// Search returns up to limit records nearest to vector, sorted by
	// descending score. Results scoring below threshold are excluded;
	// a threshold <= 0 disables the filter.
	Search(ctx context.Context, collection string, vector []float32, limit int, threshold float32) ([]Result, error)

	// Delete removes records by id. Missing ids are not an error.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteBySource removes every record whose Source matches.
	DeleteBySource(ctx context.Context, collection, source string) error

	// Count reports the number of records in the collection.
	Count(ctx context.Context, collection string) (int64, error)

	Close() error
}
