// Package groq talks to Groq through its OpenAI-compatible chat completions API.
package groq

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/Skufu/symptomcheck/internal/analysis"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

type groqGenerator struct {
	options analysis.Options
	client  *openai.Client
}

func (g *groqGenerator) Generate(ctx context.Context, system string, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.options.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Temperature: g.options.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 {
		return "", nil
	}

	return rsp.Choices[0].Message.Content, nil
}

func NewGenerator(opts ...analysis.Option) analysis.Generator {
	options := analysis.NewOptions(opts...)
	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}
	if len(options.BaseURL) == 0 {
		options.BaseURL = DefaultBaseURL
	}

	g := &groqGenerator{
		options: options,
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	cfg.BaseURL = options.BaseURL

	g.client = openai.NewClientWithConfig(cfg)

	return g
}
