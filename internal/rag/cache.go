// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package rag

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/internal/store"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// DefaultCacheThreshold is the similarity a cached query must reach to
// be served. It is deliberately stricter than the retrieval threshold: a
// wrong cache hit silently answers the wrong question.
const DefaultCacheThreshold = 0.95

// DefaultCacheTTL bounds how long a cached answer is served. Entries
// past the TTL are ignored and deleted lazily on lookup.
const DefaultCacheTTL = 24 * time.Hour

// CacheStore is the response cache capability: near-duplicate queries
// short-circuit generation and reuse a stored answer.
type CacheStore interface {
	// Lookup returns the cached answer for the nearest stored query
	// vector when its similarity clears the cache threshold.
	Lookup(ctx context.Context, vector []float32) (answer string, ok bool, err error)

	// Store records an answer keyed by its query embedding.
	Store(ctx context.Context, vector []float32, query, answer string) error

	// Count reports the number of live cache entries.
	Count(ctx context.Context) (int64, error)
}

// VectorCache stores answers in a second index collection, keyed by
// query embedding, mirroring the knowledge collection's mechanics.
type VectorCache struct {
	index      store.Index
	collection string
	threshold  float32
	ttl        time.Duration
	now        func() time.Time
}

// NewVectorCache creates (if needed) the cache collection and returns a
// CacheStore backed by it.
func NewVectorCache(ctx context.Context, index store.Index, collection string, dimensions int, threshold float32, ttl time.Duration) (*VectorCache, error) {
	if threshold <= 0 {
		threshold = DefaultCacheThreshold
	}
	if err := index.EnsureCollection(ctx, collection, dimensions); err != nil {
		return nil, err
	}
	return &VectorCache{
		index:      index,
		collection: collection,
		threshold:  threshold,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

func (c *VectorCache) Lookup(ctx context.Context, vector []float32) (string, bool, error) {
	results, err := c.index.Search(ctx, c.collection, vector, 1, c.threshold)
	if err != nil {
		return "", false, inkerr.Wrapf(err, inkerr.CodeCacheLookupFailure, "searching cache collection %s", c.collection)
	}
	if len(results) == 0 {
		return "", false, nil
	}

	hit := results[0]
	if c.ttl > 0 && c.now().Sub(hit.CreatedAt) > c.ttl {
		// Expired; evict lazily and report a miss.
		if err := c.index.Delete(ctx, c.collection, []string{hit.ID}); err != nil {
			return "", false, inkerr.Wrapf(err, inkerr.CodeCacheLookupFailure, "evicting expired cache entry %s", hit.ID)
		}
		return "", false, nil
	}

	return hit.Content, true, nil
}

func (c *VectorCache) Store(ctx context.Context, vector []float32, query, answer string) error {
	rec := store.Record{
		ID:        uuid.NewString(),
		Vector:    vector,
		Content:   answer,
		Metadata:  map[string]string{"query": query},
		CreatedAt: c.now(),
	}
	if err := c.index.Upsert(ctx, c.collection, []store.Record{rec}); err != nil {
		return inkerr.Wrapf(err, inkerr.CodeCacheStoreFailure, "storing cache entry in %s", c.collection)
	}
	return nil
}

func (c *VectorCache) Count(ctx context.Context) (int64, error) {
	return c.index.Count(ctx, c.collection)
}

// memoryEntry is one cached answer in the in-process cache.
type memoryEntry struct {
	vector    []float32
	answer    string
	createdAt time.Time
}

// MemoryCache is an in-process CacheStore: a linear cosine scan over
// stored query vectors. Suitable for tests and single-node development.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   []memoryEntry
	threshold float32
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryCache creates an in-process cache.
func NewMemoryCache(threshold float32, ttl time.Duration) *MemoryCache {
	if threshold <= 0 {
		threshold = DefaultCacheThreshold
	}
	return &MemoryCache{threshold: threshold, ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Lookup(_ context.Context, vector []float32) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()

	best := -1
	var bestScore float32
	for i, e := range c.entries {
		score := cosineSimilarity(vector, e.vector)
		if score >= c.threshold && (best == -1 || score > bestScore) {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return "", false, nil
	}
	return c.entries[best].answer, true, nil
}

func (c *MemoryCache) Store(_ context.Context, vector []float32, _, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	vec := make([]float32, len(vector))
	copy(vec, vector)
	c.entries = append(c.entries, memoryEntry{vector: vec, answer: answer, createdAt: c.now()})
	return nil
}

func (c *MemoryCache) Count(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.entries)), nil
}

func (c *MemoryCache) pruneLocked() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	live := c.entries[:0]
	for _, e := range c.entries {
		if e.createdAt.After(cutoff) {
			live = append(live, e)
		}
	}
	c.entries = live
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
