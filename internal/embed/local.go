// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// DefaultLocalDimensions matches the sentence-transformer dimensionality
// the hosted embedders are commonly configured with in development.
const DefaultLocalDimensions = 384

// Local is a deterministic, credential-free embedder. Each token seeds a
// pseudo-random vector and the token vectors are summed and normalized,
// so texts sharing vocabulary land near each other. Useful for local
// development and tests; not a substitute for a real embedding model.
type Local struct {
	dimensions int
}

// NewLocal creates a local embedder with the given dimensionality.
func NewLocal(dimensions int) *Local {
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}
	return &Local{dimensions: dimensions}
}

func (e *Local) Name() string   { return "local" }
func (e *Local) Dimension() int { return e.dimensions }

func (e *Local) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, inkerr.New(inkerr.CodeEmbedRequestInvalid, "local: text must not be empty")
	}

	vec := make([]float64, e.dimensions)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		seed := h.Sum64()
		for i := range vec {
			seed = seed*1103515245 + 12345
			vec[i] += float64(seed)/float64(math.MaxUint64)*2 - 1
		}
	}

	var magnitude float64
	for _, v := range vec {
		magnitude += v * v
	}
	magnitude = math.Sqrt(magnitude)

	out := make([]float32, e.dimensions)
	if magnitude > 0 {
		for i, v := range vec {
			out[i] = float32(v / magnitude)
		}
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
