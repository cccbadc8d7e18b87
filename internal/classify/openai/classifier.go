// Package openai classifies page content through any OpenAI-compatible chat
// completions endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/shpitdev/paper-annotator/internal/classify"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You classify scientific web pages. Reply with a single JSON object and nothing else."

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Classifier struct {
	client llms.Model
	model  string
}

func New(cfg Config) (*Classifier, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	// Local OpenAI-compatible services accept any token.
	token := strings.TrimSpace(cfg.APIKey)
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: new client: %w", err)
	}
	return &Classifier{client: client, model: model}, nil
}

// Model returns the resolved model name.
func (c *Classifier) Model() string { return c.model }

func (c *Classifier) Classify(ctx context.Context, content, template string) (core.Classification, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, classify.RenderPrompt(template, content)),
	}
	resp, err := c.client.GenerateContent(ctx, messages, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		return core.Classification{}, classify.ServiceError(err, 0)
	}
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return core.Classification{}, classify.ServiceError(errors.New("no choices returned"), 0)
	}
	return classify.ParseResponse(resp.Choices[0].Content)
}
