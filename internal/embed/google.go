// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package embed

import (
	"context"
	"strings"

	"google.golang.org/genai"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// GoogleConfig holds Gemini embedder configuration.
type GoogleConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

// Google implements Embedder using the Gemini embedding API.
type Google struct {
	client *genai.Client
	config GoogleConfig
}

// NewGoogle creates a Gemini embedder. Returns an error if the API key
// is missing.
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, inkerr.New(inkerr.CodeEmbedRequestInvalid, "google: missing api_key in config", inkerr.FieldProvider("google"))
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 768
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeEmbedUpstreamFailure, "google: creating client")
	}

	return &Google{client: client, config: cfg}, nil
}

func (e *Google) Name() string   { return "google" }
func (e *Google) Dimension() int { return e.config.Dimensions }

func (e *Google) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, inkerr.New(inkerr.CodeEmbedRequestInvalid, "google: text must not be empty")
	}

	dims := int32(e.config.Dimensions)
	res, err := e.client.Models.EmbedContent(ctx, e.config.Model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, classify(err, "google")
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, inkerr.New(inkerr.CodeEmbedResponseInvalid, "google: embedding response contained no values")
	}

	vec := res.Embeddings[0].Values
	if len(vec) != e.config.Dimensions {
		return nil, inkerr.New(inkerr.CodeEmbedDimensionInvalid,
			"google: unexpected embedding dimensions",
			inkerr.Field("expected", e.config.Dimensions),
			inkerr.Field("actual", len(vec)),
		)
	}
	return vec, nil
}
