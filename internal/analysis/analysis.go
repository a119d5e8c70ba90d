// Package analysis turns symptom text into a structured analysis produced by an external model.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyModelResponse = errors.New("no analysis could be generated from the AI model")
	ErrInvalidModelOutput = errors.New("model output was not valid JSON")
	ErrGatewayUnavailable = errors.New("model provider unavailable")
)

const (
	StrongMatch   = "Strong Match"
	PossibleMatch = "Possible Match"
	UnlikelyMatch = "Unlikely Match"
)

type Condition struct {
	Name        string `json:"name"`
	Match       string `json:"match"`
	Description string `json:"description"`
}

type Refinement struct {
	Condition string   `json:"condition"`
	Symptoms  []string `json:"symptoms"`
}

// Analysis is the shape the system prompt asks the model for. The gateway only
// enforces it in strict mode; otherwise the raw document is passed through.
type Analysis struct {
	Summary        string       `json:"summary"`
	Conditions     []Condition  `json:"conditions"`
	RefineSymptoms []Refinement `json:"refineSymptoms"`
	NextSteps      []string     `json:"nextSteps"`
	Disclaimer     string       `json:"disclaimer"`
}

func (a Analysis) Validate() error {
	if strings.TrimSpace(a.Summary) == "" {
		return errors.New("summary is empty")
	}
	if len(a.Conditions) == 0 {
		return errors.New("no conditions")
	}
	for i, c := range a.Conditions {
		switch c.Match {
		case StrongMatch, PossibleMatch, UnlikelyMatch:
		default:
			return fmt.Errorf("condition %d: unknown match %q", i, c.Match)
		}
	}
	return nil
}

// Generator is a single chat completion against a model provider.
type Generator interface {
	Generate(ctx context.Context, system string, user string) (string, error)
}

type Gateway interface {
	Analyze(ctx context.Context, symptoms string) (json.RawMessage, error)
}

type gateway struct {
	options   Options
	generator Generator
}

func (g *gateway) Analyze(ctx context.Context, symptoms string) (json.RawMessage, error) {
	if g.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.options.Timeout)
		defer cancel()
	}

	content, err := g.generator.Generate(ctx, g.options.SystemPrompt, UserMessage(symptoms))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	if len(strings.TrimSpace(content)) == 0 {
		return nil, ErrEmptyModelResponse
	}

	return Parse(content, g.options.Strict)
}

// Parse checks that content is a JSON document and returns it compacted.
// A bare null counts as no analysis at all.
// With strict set the document must also satisfy Analysis.Validate.
func Parse(content string, strict bool) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(content)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelOutput, err)
	}
	raw := json.RawMessage(buf.Bytes())
	if bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyModelResponse
	}

	if strict {
		var a Analysis
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidModelOutput, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidModelOutput, err)
		}
	}

	return raw, nil
}

func NewGateway(gen Generator, opts ...Option) Gateway {
	options := NewOptions(opts...)

	return &gateway{
		options:   options,
		generator: gen,
	}
}
