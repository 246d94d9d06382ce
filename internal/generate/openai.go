// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

package generate

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	inkerr "github.com/inkwell-dev/inkwell/pkg/errors"
)

// OpenAIConfig holds OpenAI generator configuration.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // optional, useful for testing against a mock server
	Model     string
	MaxTokens int
}

// OpenAI implements Generator using the Chat Completions API.
type OpenAI struct {
	client openaisdk.Client
	config OpenAIConfig
}

// NewOpenAI creates an OpenAI generator. Returns an error if the API key
// is missing.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, inkerr.New(inkerr.CodeGenerateRequestInvalid, "openai: missing api_key in config", inkerr.FieldProvider("openai"))
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
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

	return &OpenAI{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (g *OpenAI) Name() string { return "openai" }

func (g *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	system, user := BuildPrompt(req)
	res, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: shared.ChatModel(g.config.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		MaxCompletionTokens: param.NewOpt(int64(g.config.MaxTokens)),
	})
	if err != nil {
		return "", classify(err, "openai")
	}
	if len(res.Choices) == 0 || res.Choices[0].Message.Content == "" {
		return "", inkerr.New(inkerr.CodeGenerateResponseInvalid, "openai: generation response contained no text")
	}

	return res.Choices[0].Message.Content, nil
}
