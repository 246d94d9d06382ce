// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inkwell-dev/inkwell/internal/chunker"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/embed"
	"github.com/inkwell-dev/inkwell/internal/generate"
	"github.com/inkwell-dev/inkwell/internal/ingest"
	"github.com/inkwell-dev/inkwell/internal/rag"
	"github.com/inkwell-dev/inkwell/internal/secrets"
	"github.com/inkwell-dev/inkwell/internal/store/sqlite"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// loadConfig reads configuration for a command and resolves keyring://
// secret references in credential fields.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := secrets.ResolveConfig(secrets.NewKeyringStore(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEmbedder builds the configured embedding provider without retry
// wrapping; callers that talk to the upstream repeatedly decide their
// own retry policy.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embed.NewOpenAI(embed.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "google":
		return embed.NewGoogle(embed.GoogleConfig{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "local":
		return embed.NewLocal(cfg.Embedding.Dimensions), nil
	default:
		return nil, inkerr.Errorf(inkerr.CodeCLISetupFailure, "unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func newGenerator(cfg *config.Config) (generate.Generator, error) {
	switch cfg.Generation.Provider {
	case "openai":
		return generate.NewOpenAI(generate.OpenAIConfig{
			APIKey:    cfg.Generation.APIKey,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
		})
	case "google":
		return generate.NewGoogle(generate.GoogleConfig{
			APIKey:    cfg.Generation.APIKey,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
		})
	case "anthropic":
		return generate.NewAnthropic(generate.AnthropicConfig{
			APIKey:    cfg.Generation.APIKey,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
		})
	default:
		return nil, inkerr.Errorf(inkerr.CodeCLISetupFailure, "unknown generation provider %q", cfg.Generation.Provider)
	}
}

func newCache(ctx context.Context, cfg *config.Config, index *sqlite.Index, dimensions int) (rag.CacheStore, error) {
	switch cfg.Cache.Backend {
	case "vector":
		return rag.NewVectorCache(ctx, index, cfg.Storage.Collection+"_cache", dimensions,
			cfg.RAG.CacheThreshold, cfg.RAG.CacheTTL)
	case "memory":
		return rag.NewMemoryCache(cfg.RAG.CacheThreshold, cfg.RAG.CacheTTL), nil
	case "none":
		return nil, nil
	default:
		return nil, inkerr.Errorf(inkerr.CodeCLISetupFailure, "unknown cache backend %q", cfg.Cache.Backend)
	}
}

// buildQueryService assembles the full query stack: index, retried
// embedder, generator, cache, service. The caller owns closing the
// returned index.
func buildQueryService(ctx context.Context, cfg *config.Config) (*rag.Service, *sqlite.Index, error) {
	index, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		index.Close()
		return nil, nil, err
	}
	embedder = embed.WithRetry(embedder, cfg.Upstream.Retries, cfg.Upstream.RetryBaseDelay)

	generator, err := newGenerator(cfg)
	if err != nil {
		index.Close()
		return nil, nil, err
	}

	cache, err := newCache(ctx, cfg, index, embedder.Dimension())
	if err != nil {
		index.Close()
		return nil, nil, err
	}

	svc := rag.New(embedder, index, generator, cache, rag.Options{
		Collection:          cfg.Storage.Collection,
		Limit:               cfg.RAG.Limit,
		ScoreThreshold:      cfg.RAG.ScoreThreshold,
		MaxContextChars:     cfg.RAG.MaxContextChars,
		NoContextGeneration: cfg.RAG.NoContextGeneration,
		UpstreamTimeout:     cfg.Upstream.Timeout,
	})
	if err := svc.EnsureCollections(ctx); err != nil {
		index.Close()
		return nil, nil, err
	}

	return svc, index, nil
}

// buildPipeline assembles the ingestion pipeline. Chunks are embedded
// with a single attempt each; a dead upstream should fail the file, not
// stall the whole run in retries.
func buildPipeline(cfg *config.Config, index *sqlite.Index) (*ingest.Pipeline, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return ingest.NewPipeline(embedder, index, ingest.Options{
		Collection: cfg.Storage.Collection,
		Workers:    cfg.Ingest.Workers,
		Chunk:      chunker.Options{},
		Walk:       ingest.WalkOptions{Extensions: cfg.Ingest.Extensions},
	}), nil
}
