// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package embed_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/inkwell-dev/inkwell/internal/embed"
	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalDeterministic(t *testing.T) {
	e := embed.NewLocal(0)
	assert.Equal(t, embed.DefaultLocalDimensions, e.Dimension())

	first, err := e.Embed(context.Background(), "flipper contract storage")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "flipper contract storage")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, embed.DefaultLocalDimensions)
}

func TestLocalNormalized(t *testing.T) {
	e := embed.NewLocal(64)
	vec, err := e.Embed(context.Background(), "how does the flipper contract work")
	require.NoError(t, err)

	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, magnitude, 0.001)
}

func TestLocalSharedVocabularyScoresHigher(t *testing.T) {
	e := embed.NewLocal(128)
	ctx := context.Background()

	flipperDoc, err := e.Embed(ctx, "the flipper contract toggles a boolean storage value")
	require.NoError(t, err)
	flipperQuery, err := e.Embed(ctx, "how does the flipper contract work")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "erc20 token transfer allowance approve")
	require.NoError(t, err)

	assert.Greater(t, cosine(flipperQuery, flipperDoc), cosine(flipperQuery, unrelated))
}

func TestLocalRejectsEmptyText(t *testing.T) {
	e := embed.NewLocal(16)
	_, err := e.Embed(context.Background(), "   ")
	assert.True(t, inkerr.IsInvalidInput(err))
}

// flakyEmbedder fails a fixed number of times before succeeding.
type flakyEmbedder struct {
	failures int
	calls    int
	err      error
}

func (f *flakyEmbedder) Name() string   { return "flaky" }
func (f *flakyEmbedder) Dimension() int { return 3 }

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, err: inkerr.New(inkerr.CodeEmbedUpstreamFailure, "connection reset")}
	e := embed.WithRetry(inner, 3, time.Millisecond)

	vec, err := e.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryGivesUpAfterAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: inkerr.New(inkerr.CodeEmbedUpstreamTimeout, "deadline exceeded")}
	e := embed.WithRetry(inner, 3, time.Millisecond)

	_, err := e.Embed(context.Background(), "query")
	require.Error(t, err)
	assert.True(t, inkerr.IsTimeout(err))
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetryDoesNotRetryInvalidInput(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, err: inkerr.New(inkerr.CodeEmbedRequestInvalid, "empty text")}
	e := embed.WithRetry(inner, 3, time.Millisecond)

	_, err := e.Embed(context.Background(), "")
	require.Error(t, err)
	assert.True(t, inkerr.IsInvalidInput(err))
	assert.Equal(t, 1, inner.calls)
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	_, err := embed.NewOpenAI(embed.OpenAIConfig{})
	assert.True(t, inkerr.IsInvalidInput(err))
}

func TestNewGoogleRequiresAPIKey(t *testing.T) {
	_, err := embed.NewGoogle(embed.GoogleConfig{})
	assert.True(t, inkerr.IsInvalidInput(err))
}
