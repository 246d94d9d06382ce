// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package generate

import (
	"context"

	"google.golang.org/genai"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// GoogleConfig holds Gemini generator configuration.
type GoogleConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Google implements Generator using the Gemini API.
type Google struct {
	client *genai.Client
	config GoogleConfig
}

// NewGoogle creates a Gemini generator. Returns an error if the API key
// is missing.
func NewGoogle(cfg GoogleConfig) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, inkerr.New(inkerr.CodeGenerateRequestInvalid, "google: missing api_key in config", inkerr.FieldProvider("google"))
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, inkerr.Wrapf(err, inkerr.CodeGenerateUpstreamFailure, "google: creating client")
	}

	return &Google{client: client, config: cfg}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Generate(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	system, user := BuildPrompt(req)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.config.MaxTokens),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	res, err := g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(user), config)
	if err != nil {
		return "", classify(err, "google")
	}

	answer := res.Text()
	if answer == "" {
		return "", inkerr.New(inkerr.CodeGenerateResponseInvalid, "google: generation response contained no text")
	}
	return answer, nil
}
