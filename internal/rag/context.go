// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package rag

import (
	"unicode/utf8"

	"github.com/inkwell-dev/inkwell/internal/generate"
	"github.com/inkwell-dev/inkwell/internal/store"
)

// DefaultMaxContextChars bounds the combined size of retrieved chunk
// text handed to the generator, keeping the prompt inside the model's
// input budget.
const DefaultMaxContextChars = 8000

// buildSnippets converts search results into generator snippets within
// the character budget. Results arrive sorted by descending score, so
// dropping from the tail truncates the lowest-scoring chunks first. The
// top result is always included, clipped to the budget if it alone
// exceeds it.
func buildSnippets(results []store.Result, maxChars int) []generate.Snippet {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	var snippets []generate.Snippet
	used := 0
	for i, r := range results {
		content := r.Content
		if i == 0 && len(content) > maxChars {
			content = clipToRuneBoundary(content, maxChars)
		}
		if used+len(content) > maxChars && len(snippets) > 0 {
			break
		}
		snippets = append(snippets, generate.Snippet{
			Source:  r.Source,
			Content: content,
			Score:   r.Score,
		})
		used += len(content)
	}
	return snippets
}

// clipToRuneBoundary truncates s to at most max bytes without splitting
// a UTF-8 sequence.
func clipToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
