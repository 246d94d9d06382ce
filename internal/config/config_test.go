// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Listen)
	assert.Equal(t, "inkwell.db", cfg.Storage.Path)
	assert.Equal(t, "code_knowledge", cfg.Storage.Collection)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, 5, cfg.RAG.Limit)
	assert.InDelta(t, 0.7, cfg.RAG.ScoreThreshold, 1e-6)
	assert.InDelta(t, 0.95, cfg.RAG.CacheThreshold, 1e-6)
	assert.Equal(t, 24*time.Hour, cfg.RAG.CacheTTL)
	assert.Equal(t, 8000, cfg.RAG.MaxContextChars)
	assert.False(t, cfg.RAG.NoContextGeneration)
	assert.Equal(t, "vector", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 3, cfg.Upstream.Retries)
	assert.Equal(t, 4, cfg.Ingest.Workers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen: "0.0.0.0:9000"
storage:
  path: /var/lib/inkwell/kb.db
  collection: migration_docs
embedding:
  provider: openai
  model: text-embedding-3-small
  api_key: sk-test
  dimensions: 512
rag:
  limit: 8
  score_threshold: 0.5
cache:
  backend: memory
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, "migration_docs", cfg.Storage.Collection)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 512, cfg.Embedding.Dimensions)
	assert.Equal(t, 8, cfg.RAG.Limit)
	assert.InDelta(t, 0.5, cfg.RAG.ScoreThreshold, 1e-6)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	// Unset keys keep their defaults.
	assert.Equal(t, 24*time.Hour, cfg.RAG.CacheTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, inkerr.HasCode(err, inkerr.CodeConfigLoadReadFailure))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INKWELL_STORAGE_COLLECTION", "env_collection")
	t.Setenv("INKWELL_RAG_LIMIT", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env_collection", cfg.Storage.Collection)
	assert.Equal(t, 9, cfg.RAG.Limit)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:     ServerConfig{Listen: "not-an-address"},
		Storage:    StorageConfig{Path: "", Collection: ""},
		Embedding:  EmbeddingConfig{Provider: "nope"},
		Generation: GenerationConfig{Provider: "nope", MaxTokens: 0},
		RAG:        RAGConfig{Limit: 0, ScoreThreshold: 2, CacheThreshold: -1, MaxContextChars: 0},
		Cache:      CacheConfig{Backend: "redis"},
		Upstream:   UpstreamConfig{Timeout: 0, Retries: 0},
		Ingest:     IngestConfig{Workers: 0},
	}

	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 10, "every invalid field reports its own error")
	for _, err := range errs {
		assert.True(t, inkerr.HasCode(err, inkerr.CodeConfigValidateInvalidValue))
	}
}

func TestValidateListenPort(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.Server.Listen = "127.0.0.1:0"
	assert.NotEmpty(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Listen = "127.0.0.1:notaport"
	assert.NotEmpty(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Listen = ":8080" // empty host is fine
	assert.Empty(t, cfg.Validate())
}

func TestValidateInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rag:
  score_threshold: 3.5
`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, inkerr.HasCode(err, inkerr.CodeConfigValidateInvalidValue))
}
