// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package rag orchestrates the retrieval-augmented query path: embed
// the query, consult the response cache, search the knowledge
// collection, assemble context, and generate an answer.
package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-dev/inkwell/internal/embed"
	"github.com/inkwell-dev/inkwell/internal/generate"
	"github.com/inkwell-dev/inkwell/internal/store"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

const (
	// DefaultLimit is the number of chunks retrieved per query.
	DefaultLimit = 5

	// DefaultScoreThreshold is the minimum similarity a chunk must
	// reach to be used as context.
	DefaultScoreThreshold = 0.7

	// DefaultUpstreamTimeout bounds each external call.
	DefaultUpstreamTimeout = 30 * time.Second
)

// NoContextAnswer is returned when retrieval finds nothing relevant and
// no-context generation is disabled. The service never fabricates an
// answer from an empty context.
const NoContextAnswer = "I don't have enough information in the migration knowledge base to answer that yet. " +
	"Try asking about specific ink! concepts like storage, messages, events, or constructors."

// Options configures a Service.
type Options struct {
	Collection          string
	Limit               int
	ScoreThreshold      float32
	MaxContextChars     int
	NoContextGeneration bool
	UpstreamTimeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.ScoreThreshold <= 0 {
		o.ScoreThreshold = DefaultScoreThreshold
	}
	if o.MaxContextChars <= 0 {
		o.MaxContextChars = DefaultMaxContextChars
	}
	if o.UpstreamTimeout <= 0 {
		o.UpstreamTimeout = DefaultUpstreamTimeout
	}
	return o
}

// Answer is the outcome of a query: the generated (or cached) text and
// the chunks it was grounded on, sorted by descending score.
type Answer struct {
	Text   string
	Cached bool
	Used   []store.Result
}

// Stats reports collection sizes for the stats endpoint.
type Stats struct {
	RegularDocuments int64
	CachedResponses  int64
}

// Service is the query orchestrator. The external collaborators (the
// embedding model, the vector index, the LLM, the response cache) are
// injected as interfaces so the orchestration is testable with fakes.
type Service struct {
	embedder  embed.Embedder
	index     store.Index
	generator generate.Generator
	cache     CacheStore
	opts      Options
}

// New creates a Service. cache may be nil to disable response caching.
func New(embedder embed.Embedder, index store.Index, generator generate.Generator, cache CacheStore, opts Options) *Service {
	return &Service{
		embedder:  embedder,
		index:     index,
		generator: generator,
		cache:     cache,
		opts:      opts.withDefaults(),
	}
}

// EnsureCollections creates the knowledge collection with the
// embedder's dimensionality. Fails fast on a dimension mismatch.
func (s *Service) EnsureCollections(ctx context.Context) error {
	return s.index.EnsureCollection(ctx, s.opts.Collection, s.embedder.Dimension())
}

// Ask answers a natural-language query against the knowledge
// collection: embed, check the cache, search, build context, generate,
// cache the result.
func (s *Service) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, inkerr.New(inkerr.CodeQueryInvalidInput, "Query cannot be empty")
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Lookup(ctx, vector)
		if err != nil {
			// A broken cache must not take queries down with it.
			slog.Warn("cache lookup failed, continuing without cache", "error", err)
		} else if ok {
			slog.Debug("cache hit", "query", query)
			return &Answer{Text: cached, Cached: true}, nil
		}
	}

	results, err := s.index.Search(ctx, s.opts.Collection, vector, s.opts.Limit, s.opts.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return s.answerWithoutContext(ctx, query)
	}

	snippets := buildSnippets(results, s.opts.MaxContextChars)
	answer, err := s.generate(ctx, generate.Request{Query: query, Snippets: snippets})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, vector, query, answer); err != nil {
			slog.Warn("failed to store answer in cache", "error", err)
		}
	}

	return &Answer{Text: answer, Used: results[:len(snippets)]}, nil
}

// answerWithoutContext handles the empty-retrieval path. Used stays
// empty either way: no sources means no citations.
func (s *Service) answerWithoutContext(ctx context.Context, query string) (*Answer, error) {
	if !s.opts.NoContextGeneration {
		return &Answer{Text: NoContextAnswer}, nil
	}

	answer, err := s.generate(ctx, generate.Request{Query: query, NoContext: true})
	if err != nil {
		return nil, err
	}
	return &Answer{Text: answer}, nil
}

// Search exposes raw retrieval: embed the query and return the chunks
// above the threshold, sorted by descending score.
func (s *Service) Search(ctx context.Context, query string, limit int, threshold float32) ([]store.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, inkerr.New(inkerr.CodeQueryInvalidInput, "Query cannot be empty")
	}
	if limit <= 0 {
		limit = s.opts.Limit
	}
	if threshold <= 0 {
		threshold = s.opts.ScoreThreshold
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return s.index.Search(ctx, s.opts.Collection, vector, limit, threshold)
}

// AddDocument embeds and stores one ad hoc document, returning its id.
func (s *Service) AddDocument(ctx context.Context, text string, metadata map[string]string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", inkerr.New(inkerr.CodeQueryInvalidInput, "Document text cannot be empty")
	}

	vector, err := s.embedQuery(ctx, text)
	if err != nil {
		return "", err
	}

	rec := store.Record{
		ID:       uuid.NewString(),
		Vector:   vector,
		Source:   metadata["source"],
		Content:  text,
		Metadata: metadata,
	}
	if err := s.index.Upsert(ctx, s.opts.Collection, []store.Record{rec}); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Stats reports document and cache entry counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	regular, err := s.index.Count(ctx, s.opts.Collection)
	if err != nil {
		return Stats{}, err
	}

	var cached int64
	if s.cache != nil {
		cached, err = s.cache.Count(ctx)
		if err != nil {
			return Stats{}, err
		}
	}

	return Stats{RegularDocuments: regular, CachedResponses: cached}, nil
}

func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()
	return s.embedder.Embed(ctx, text)
}

func (s *Service) generate(ctx context.Context, req generate.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.UpstreamTimeout)
	defer cancel()
	return s.generator.Generate(ctx, req)
}
