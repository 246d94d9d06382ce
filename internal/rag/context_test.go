// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dev/inkwell/internal/store"
)

func TestBuildSnippetsKeepsAllWithinBudget(t *testing.T) {
	results := []store.Result{
		{Source: "a.md", Content: "first", Score: 0.9},
		{Source: "b.md", Content: "second", Score: 0.8},
	}

	snippets := buildSnippets(results, 100)
	require.Len(t, snippets, 2)
	assert.Equal(t, "first", snippets[0].Content)
	assert.Equal(t, "b.md", snippets[1].Source)
}

func TestBuildSnippetsDropsLowestScoringFirst(t *testing.T) {
	results := []store.Result{
		{Source: "a.md", Content: strings.Repeat("x", 60), Score: 0.9},
		{Source: "b.md", Content: strings.Repeat("y", 60), Score: 0.8},
		{Source: "c.md", Content: strings.Repeat("z", 60), Score: 0.7},
	}

	snippets := buildSnippets(results, 130)
	require.Len(t, snippets, 2)
	assert.Equal(t, "a.md", snippets[0].Source)
	assert.Equal(t, "b.md", snippets[1].Source)
}

func TestBuildSnippetsClipsOversizedTopResult(t *testing.T) {
	results := []store.Result{
		{Source: "big.md", Content: strings.Repeat("x", 500), Score: 0.9},
		{Source: "small.md", Content: "short", Score: 0.8},
	}

	snippets := buildSnippets(results, 100)
	require.Len(t, snippets, 1, "top result alone fills the budget")
	assert.Len(t, snippets[0].Content, 100)
	assert.Equal(t, "big.md", snippets[0].Source)
}

func TestBuildSnippetsClipsOnRuneBoundary(t *testing.T) {
	// 3-byte runes; a budget of 100 bytes falls mid-rune.
	results := []store.Result{
		{Source: "unicode.md", Content: strings.Repeat("世", 50), Score: 0.9},
	}

	snippets := buildSnippets(results, 100)
	require.Len(t, snippets, 1)
	assert.True(t, utf8.ValidString(snippets[0].Content))
	assert.LessOrEqual(t, len(snippets[0].Content), 100)
	assert.Equal(t, strings.Repeat("世", 33), snippets[0].Content)
}

func TestBuildSnippetsEmptyResults(t *testing.T) {
	assert.Empty(t, buildSnippets(nil, 100))
}
