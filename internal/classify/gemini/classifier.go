// Package gemini classifies page content with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shpitdev/paper-annotator/internal/classify"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

const DefaultModel = "gemini-1.5-flash-latest"

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Classifier struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Classifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &core.ConfigError{Field: "GEMINI_API_KEY", Err: errors.New("is required")}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Classifier{client: client, model: model}, nil
}

// Model returns the resolved model name.
func (c *Classifier) Model() string { return c.model }

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isModel":    {Type: genai.TypeBoolean, Description: "Is it a biological model?"},
		"isDatabase": {Type: genai.TypeBoolean, Description: "Is it a biological database?"},
		"Input":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"Output":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required:         []string{"isModel", "isDatabase", "Input", "Output"},
	PropertyOrdering: []string{"isModel", "isDatabase", "Input", "Output"},
}

func (c *Classifier) Classify(ctx context.Context, content, template string) (core.Classification, error) {
	prompt := classify.RenderPrompt(template, content)
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return core.Classification{}, serviceErr(err)
	}
	return classify.ParseResponse(resp.Text())
}

func serviceErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classify.ServiceError(err, apiErr.Code)
	}
	return classify.ServiceError(err, 0)
}
