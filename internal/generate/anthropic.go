// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package generate

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// AnthropicConfig holds Anthropic generator configuration.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string // optional, useful for testing against a mock server
	Model     string
	MaxTokens int
}

// Anthropic implements Generator using the Messages API.
type Anthropic struct {
	client anthropicsdk.Client
	config AnthropicConfig
}

// NewAnthropic creates an Anthropic generator. Returns an error if the
// API key is missing.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, inkerr.New(inkerr.CodeGenerateRequestInvalid, "anthropic: missing api_key in config", inkerr.FieldProvider("anthropic"))
	}
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{client: anthropicsdk.NewClient(opts...), config: cfg}, nil
}

func (g *Anthropic) Name() string { return "anthropic" }

func (g *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	system, user := BuildPrompt(req)
	res, err := g.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(g.config.Model),
		MaxTokens: int64(g.config.MaxTokens),
		System: []anthropicsdk.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", classify(err, "anthropic")
	}

	var b strings.Builder
	for _, block := range res.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", inkerr.New(inkerr.CodeGenerateResponseInvalid, "anthropic: generation response contained no text")
	}
	return b.String(), nil
}
