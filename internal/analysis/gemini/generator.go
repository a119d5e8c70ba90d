package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"

	"github.com/Skufu/symptomcheck/internal/analysis"
)

const DefaultModel = "gemini-1.5-flash"

type geminiGenerator struct {
	options analysis.Options
	client  *genai.Client
}

func (g *geminiGenerator) Generate(ctx context.Context, system string, user string) (string, error) {
	model := g.client.GenerativeModel(g.options.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.SetTemperature(g.options.Temperature)
	model.ResponseMIMEType = "application/json"

	rsp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}

	if len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}

func (g *geminiGenerator) Close() error {
	return g.client.Close()
}

func NewGenerator(opts ...analysis.Option) (analysis.Generator, error) {
	return newGenerator(analysis.NewOptions(opts...))
}

func newGenerator(options analysis.Options, clientOpts ...genaiopt.ClientOption) (analysis.Generator, error) {
	if len(options.Model) == 0 {
		options.Model = DefaultModel
	}

	// the API key goes first; genai only looks at the first auth option
	clientOpts = append([]genaiopt.ClientOption{genaiopt.WithAPIKey(options.ApiKey)}, clientOpts...)

	client, err := genai.NewClient(options.Context, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiGenerator{
		options: options,
		client:  client,
	}, nil
}
