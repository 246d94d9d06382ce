// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package embed

import (
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// OpenAIConfig holds OpenAI embedder configuration.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional, useful for testing against a mock server
	Model      string
	Dimensions int
}

// OpenAI implements Embedder using the OpenAI Embeddings API.
type OpenAI struct {
	client openaisdk.Client
	config OpenAIConfig
}

// NewOpenAI creates an OpenAI embedder. Returns an error if the API key
// is missing.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, inkerr.New(inkerr.CodeEmbedRequestInvalid, "openai: missing api_key in config", inkerr.FieldProvider("openai"))
	}
	if cfg.Model == "" {
		cfg.Model = string(openaisdk.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (e *OpenAI) Name() string   { return "openai" }
func (e *OpenAI) Dimension() int { return e.config.Dimensions }

func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, inkerr.New(inkerr.CodeEmbedRequestInvalid, "openai: text must not be empty")
	}

	res, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model:      openaisdk.EmbeddingModel(e.config.Model),
		Dimensions: param.NewOpt(int64(e.config.Dimensions)),
	})
	if err != nil {
		return nil, classify(err, "openai")
	}
	if len(res.Data) == 0 {
		return nil, inkerr.New(inkerr.CodeEmbedResponseInvalid, "openai: embedding response contained no data")
	}

	raw := res.Data[0].Embedding
	if len(raw) != e.config.Dimensions {
		return nil, inkerr.New(inkerr.CodeEmbedDimensionInvalid,
			"openai: unexpected embedding dimensions",
			inkerr.Field("expected", e.config.Dimensions),
			inkerr.Field("actual", len(raw)),
		)
	}

	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
