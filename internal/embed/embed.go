// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package embed converts text into fixed-dimension vectors via external
// embedding APIs, behind a narrow interface so orchestration code can be
// tested with fakes.
package embed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// classify maps a transport error to the embed error taxonomy.
func classify(err error, provider string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return inkerr.Wrapf(err, inkerr.CodeEmbedUpstreamTimeout, "%s: embedding request timed out", provider)
	}
	return inkerr.Wrapf(err, inkerr.CodeEmbedUpstreamFailure, "%s: embedding request failed", provider)
}

type retryEmbedder struct {
	inner     Embedder
	attempts  int
	baseDelay time.Duration
}

// WithRetry wraps an Embedder with bounded retries and exponential
// backoff. Only transient upstream failures and timeouts are retried;
// invalid input surfaces immediately.
func WithRetry(inner Embedder, attempts int, baseDelay time.Duration) Embedder {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &retryEmbedder{inner: inner, attempts: attempts, baseDelay: baseDelay}
}

func (r *retryEmbedder) Name() string   { return r.inner.Name() }
func (r *retryEmbedder) Dimension() int { return r.inner.Dimension() }

func (r *retryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.attempts; attempt++ {
		vec, err := r.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !inkerr.IsRetryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		slog.Warn("embedding attempt failed, retrying",
			"provider", r.inner.Name(),
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, classify(ctx.Err(), r.inner.Name())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}
