// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package config loads and validates the inkwell configuration from
// file, environment, and defaults.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// Config is the top-level inkwell configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Generation GenerationConfig `mapstructure:"generation"`
	RAG        RAGConfig        `mapstructure:"rag"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
}

// ServerConfig controls how the HTTP API listens.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// StorageConfig locates the vector database.
type StorageConfig struct {
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Dimensions int    `mapstructure:"dimensions"`
}

// GenerationConfig selects and configures the answer-generation
// provider.
type GenerationConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RAGConfig tunes retrieval and answer assembly.
type RAGConfig struct {
	Limit               int           `mapstructure:"limit"`
	ScoreThreshold      float32       `mapstructure:"score_threshold"`
	CacheThreshold      float32       `mapstructure:"cache_threshold"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	MaxContextChars     int           `mapstructure:"max_context_chars"`
	NoContextGeneration bool          `mapstructure:"no_context_generation"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
}

// UpstreamConfig bounds calls to embedding and generation APIs.
type UpstreamConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	Retries        int           `mapstructure:"retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Workers    int      `mapstructure:"workers"`
	Extensions []string `mapstructure:"extensions"`
}

var (
	validProviders     = map[string]bool{"openai": true, "google": true, "local": true}
	validGenProviders  = map[string]bool{"openai": true, "google": true, "anthropic": true}
	validCacheBackends = map[string]bool{"vector": true, "memory": true, "none": true}
)

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix INKWELL_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8000")
	v.SetDefault("storage.path", "inkwell.db")
	v.SetDefault("storage.collection", "code_knowledge")
	v.SetDefault("embedding.provider", "local")
	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.max_tokens", 4096)
	v.SetDefault("rag.limit", 5)
	v.SetDefault("rag.score_threshold", 0.7)
	v.SetDefault("rag.cache_threshold", 0.95)
	v.SetDefault("rag.cache_ttl", "24h")
	v.SetDefault("rag.max_context_chars", 8000)
	v.SetDefault("rag.no_context_generation", false)
	v.SetDefault("cache.backend", "vector")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.retries", 3)
	v.SetDefault("upstream.retry_base_delay", "500ms")
	v.SetDefault("ingest.workers", 4)

	// Environment
	v.SetEnvPrefix("INKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, inkerr.Errorf(inkerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found, collecting issues rather than stopping at
// the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateProviders()...)
	errs = append(errs, c.validateRAG()...)
	errs = append(errs, c.validateUpstream()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if c.Storage.Path == "" {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue, "config: storage.path must not be empty"))
	}
	if c.Storage.Collection == "" {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue, "config: storage.collection must not be empty"))
	}

	return errs
}

func (c *Config) validateProviders() []error {
	var errs []error

	// API keys are checked by the provider constructors, not here:
	// commands that never call the upstream (ingest with a local
	// embedder, stats) must not demand credentials.
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [openai, google, local], got %q",
			c.Embedding.Provider,
		))
	}
	if c.Embedding.Dimensions < 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must not be negative, got %d",
			c.Embedding.Dimensions,
		))
	}

	if !validGenProviders[c.Generation.Provider] {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: generation.provider must be one of [openai, google, anthropic], got %q",
			c.Generation.Provider,
		))
	}
	if c.Generation.MaxTokens <= 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: generation.max_tokens must be greater than 0, got %d",
			c.Generation.MaxTokens,
		))
	}

	return errs
}

func (c *Config) validateRAG() []error {
	var errs []error

	if c.RAG.Limit <= 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: rag.limit must be greater than 0, got %d", c.RAG.Limit))
	}
	if c.RAG.ScoreThreshold < 0 || c.RAG.ScoreThreshold > 1 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: rag.score_threshold must be between 0 and 1, got %g", c.RAG.ScoreThreshold))
	}
	if c.RAG.CacheThreshold < 0 || c.RAG.CacheThreshold > 1 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: rag.cache_threshold must be between 0 and 1, got %g", c.RAG.CacheThreshold))
	}
	if c.RAG.MaxContextChars <= 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: rag.max_context_chars must be greater than 0, got %d", c.RAG.MaxContextChars))
	}
	if !validCacheBackends[c.Cache.Backend] {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: cache.backend must be one of [vector, memory, none], got %q", c.Cache.Backend))
	}

	return errs
}

func (c *Config) validateUpstream() []error {
	var errs []error

	if c.Upstream.Timeout <= 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: upstream.timeout must be greater than 0, got %s", c.Upstream.Timeout))
	}
	if c.Upstream.Retries < 1 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: upstream.retries must be at least 1, got %d", c.Upstream.Retries))
	}
	if c.Ingest.Workers <= 0 {
		errs = append(errs, inkerr.Errorf(inkerr.CodeConfigValidateInvalidValue,
			"config: ingest.workers must be greater than 0, got %d", c.Ingest.Workers))
	}

	return errs
}
