package main

import (
	"context"
	"fmt"

	"github.com/shpitdev/paper-annotator/internal/classify/gemini"
	"github.com/shpitdev/paper-annotator/internal/classify/openai"
	"github.com/shpitdev/paper-annotator/internal/config"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

func newClassifier(ctx context.Context, cfg config.Config, apiKey string) (core.Classifier, error) {
	switch cfg.Classifier.Provider {
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:  apiKey,
			Model:   cfg.Classifier.Model,
			BaseURL: cfg.Classifier.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOpenAI:
		c, err := openai.New(openai.Config{
			APIKey:  apiKey,
			Model:   cfg.Classifier.Model,
			BaseURL: cfg.Classifier.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &core.ConfigError{
			Field: "classifier.provider",
			Err:   fmt.Errorf("unknown provider %q", cfg.Classifier.Provider),
		}
	}
}
