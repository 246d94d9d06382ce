// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package rag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/store"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(0.95, 0)
	ctx := context.Background()

	vec := []float32{0.6, 0.8, 0}
	require.NoError(t, c.Store(ctx, vec, "how do events work?", "use emit_event"))

	answer, ok, err := c.Lookup(ctx, vec)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "use emit_event", answer)

	// An orthogonal vector must miss.
	_, ok, err = c.Lookup(ctx, []float32{-0.8, 0.6, 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheThreshold(t *testing.T) {
	c := NewMemoryCache(0.95, 0)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, []float32{1, 0, 0}, "q", "a"))

	// cos(1,0,0 ; 0.9,0.436,0) ≈ 0.9, below the 0.95 bar.
	_, ok, err := c.Lookup(ctx, []float32{0.9, 0.436, 0})
	require.NoError(t, err)
	assert.False(t, ok, "similarity below threshold must not hit")
}

func TestMemoryCachePicksBestMatch(t *testing.T) {
	c := NewMemoryCache(0.9, 0)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, []float32{0.99, 0.141, 0}, "near", "near answer"))
	require.NoError(t, c.Store(ctx, []float32{1, 0, 0}, "exact", "exact answer"))

	answer, ok, err := c.Lookup(ctx, []float32{1, 0, 0})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "exact answer", answer)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(0.95, time.Hour)
	current := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	require.NoError(t, c.Store(ctx, vec, "q", "a"))

	_, ok, err := c.Lookup(ctx, vec)
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Hour)
	_, ok, err = c.Lookup(ctx, vec)
	require.NoError(t, err)
	assert.False(t, ok, "entries past the TTL must not be served")

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "expired entries are pruned on lookup")
}

func TestMemoryCacheStoreCopiesVector(t *testing.T) {
	c := NewMemoryCache(0.95, 0)
	ctx := context.Background()

	vec := []float32{1, 0, 0}
	require.NoError(t, c.Store(ctx, vec, "q", "a"))
	vec[0] = -1 // caller mutates its slice after storing

	_, ok, err := c.Lookup(ctx, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.True(t, ok)
}

// scriptedIndex lets cache tests control search results without a real
// database.
type scriptedIndex struct {
	results []store.Result
	deleted []string
	stored  []store.Record
	count   int64
}

func (s *scriptedIndex) EnsureCollection(context.Context, string, int) error { return nil }

func (s *scriptedIndex) Upsert(_ context.Context, _ string, records []store.Record) error {
	s.stored = append(s.stored, records...)
	return nil
}

func (s *scriptedIndex) Search(context.Context, string, []float32, int, float32) ([]store.Result, error) {
	return s.results, nil
}

func (s *scriptedIndex) Delete(_ context.Context, _ string, ids []string) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

func (s *scriptedIndex) DeleteBySource(context.Context, string, string) error { return nil }
func (s *scriptedIndex) Count(context.Context, string) (int64, error)         { return s.count, nil }
func (s *scriptedIndex) Close() error                                         { return nil }

func TestVectorCacheLookupHit(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	idx := &scriptedIndex{results: []store.Result{
		{ID: "e1", Score: 0.97, Content: "cached answer", CreatedAt: now.Add(-time.Minute)},
	}}

	c, err := NewVectorCache(context.Background(), idx, "code_knowledge_cache", 3, 0.95, DefaultCacheTTL)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	answer, ok, err := c.Lookup(context.Background(), []float32{1, 0, 0})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached answer", answer)
	assert.Empty(t, idx.deleted)
}

func TestVectorCacheLookupEvictsExpired(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	idx := &scriptedIndex{results: []store.Result{
		{ID: "stale", Score: 0.99, Content: "old answer", CreatedAt: now.Add(-25 * time.Hour)},
	}}

	c, err := NewVectorCache(context.Background(), idx, "code_knowledge_cache", 3, 0.95, DefaultCacheTTL)
	require.NoError(t, err)
	c.now = func() time.Time { return now }

	_, ok, err := c.Lookup(context.Background(), []float32{1, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"stale"}, idx.deleted, "expired entry must be evicted")
}

func TestVectorCacheStore(t *testing.T) {
	idx := &scriptedIndex{}
	c, err := NewVectorCache(context.Background(), idx, "code_knowledge_cache", 3, 0.95, DefaultCacheTTL)
	require.NoError(t, err)

	require.NoError(t, c.Store(context.Background(), []float32{1, 0, 0}, "the query", "the answer"))

	require.Len(t, idx.stored, 1)
	rec := idx.stored[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "the answer", rec.Content)
	assert.Equal(t, "the query", rec.Metadata["query"])
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}), "mismatched lengths")
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}), "zero vector")
}
