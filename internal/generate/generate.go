// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package generate is the text-generation boundary: it assembles the
// migration prompt from retrieved context and forwards it to an external
// LLM behind a narrow interface.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// Snippet is one retrieved context block handed to the generator.
type Snippet struct {
	Source  string
	Content string
	Score   float32
}

// Request carries the user query and its retrieved context. NoContext
// marks a request where retrieval found nothing relevant; the generator
// is told so explicitly instead of being left to improvise sources.
type Request struct {
	Query     string
	Snippets  []Snippet
	NoContext bool
}

// Generator produces an answer for a query given retrieved context.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

const systemPrompt = `You are an expert in both Solidity and ink! smart contracts,
helping developers migrate contracts from Solidity to ink! on Polkadot.

Answer with a clear, step-by-step explanation grounded in the provided examples:
1. Key differences: the main conceptual differences between Solidity and ink!
2. Migration steps: concrete, actionable steps for converting the pattern
3. Code examples: before/after snippets drawn from the provided context
4. Best practices: important considerations and gotchas

Format responses with markdown code blocks, not raw code dumps.`

const noContextNote = `No matching migration examples were found in the knowledge
base for this question. Say so explicitly, answer only from general Solidity and
ink! knowledge, and do not invent example files or sources.`

// BuildPrompt renders the system and user prompts for a request. The
// answer text returned by a Generator is passed through verbatim; only
// the prompt side is shaped here.
func BuildPrompt(req Request) (system, user string) {
	var b strings.Builder

	if req.NoContext {
		b.WriteString(noContextNote)
		b.WriteString("\n\n")
	}

	if len(req.Snippets) > 0 {
		b.WriteString("Context from the migration knowledge base, most relevant first:\n\n")
		for i, s := range req.Snippets {
			fmt.Fprintf(&b, "--- Example %d", i+1)
			if s.Source != "" {
				fmt.Fprintf(&b, " (source: %s)", s.Source)
			}
			b.WriteString(" ---\n")
			b.WriteString(s.Content)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("Question: ")
	b.WriteString(req.Query)

	return systemPrompt, b.String()
}

// classify maps a transport error to the generate error taxonomy.
func classify(err error, provider string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return inkerr.Wrapf(err, inkerr.CodeGenerateUpstreamTimeout, "%s: generation request timed out", provider)
	}
	return inkerr.Wrapf(err, inkerr.CodeGenerateUpstreamFailure, "%s: generation request failed", provider)
}

func validate(req Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return inkerr.New(inkerr.CodeGenerateRequestInvalid, "query must not be empty")
	}
	return nil
}
