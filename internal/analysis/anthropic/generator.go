package anthropic

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Skufu/symptomcheck/internal/analysis"
)

const DefaultModel = "claude-3-5-haiku-latest"

type anthropicGenerator struct {
	options analysis.Options
	client  *anthropic.Client
}

// Anthropic has no JSON response mode; the system prompt alone asks for JSON.
func (g *anthropicGenerator) Generate(ctx context.Context, system string, user string) (string, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.options.Model),
		MaxTokens:   2048,
		Temperature: anthropic.Float(float64(g.options.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	return b.String(), nil
}

func NewGenerator(opts ...analysis.Option) analysis.Generator {
	options := analysis.NewOptions(opts...)
	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	g := &anthropicGenerator{
		options: options,
	}

	clientOpts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(options.ApiKey),
		anthropicopt.WithMaxRetries(0),
	}
	if len(options.BaseURL) > 0 {
		clientOpts = append(clientOpts, anthropicopt.WithBaseURL(options.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	g.client = &client

	return g
}
