// Package config loads run configuration from defaults, a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/batch"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	InputPath          string `yaml:"input_path"`
	OutputPath         string `yaml:"output_path"`
	PromptTemplatePath string `yaml:"prompt_template_path"`

	BatchSize int `yaml:"batch_size"`
	// RequestTimeout bounds one record's fetch and classify. Zero disables.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Classifier Classifier `yaml:"classifier"`
	Fetch      Fetch      `yaml:"fetch"`

	LogLevel string `yaml:"log_level"`
}

type Classifier struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

func Default() Config {
	return Config{
		BatchSize:  batch.DefaultSize,
		Classifier: Classifier{Provider: ProviderGemini},
		Fetch:      Fetch{Timeout: 30 * time.Second},
		LogLevel:   "info",
	}
}

// fileConfig accepts the legacy config.yaml keys next to the current ones.
type fileConfig struct {
	Config `yaml:",inline"`

	PromptFile string `yaml:"prompt_file"`
	InNotion   string `yaml:"in_notion"`
	OutNotion  string `yaml:"out_notion"`
}

// LoadFile overlays the YAML file at path onto base. Keys absent from the file
// keep their base values.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &core.ConfigError{Field: "config", Err: err}
	}

	fc := fileConfig{Config: base}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base, &core.ConfigError{Field: "config", Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	// Legacy keys apply only when the current key left the base value alone.
	cfg := fc.Config
	if fc.PromptFile != "" && cfg.PromptTemplatePath == base.PromptTemplatePath {
		cfg.PromptTemplatePath = fc.PromptFile
	}
	if fc.InNotion != "" && cfg.InputPath == base.InputPath {
		cfg.InputPath = fc.InNotion
	}
	if fc.OutNotion != "" && cfg.OutputPath == base.OutputPath {
		cfg.OutputPath = fc.OutNotion
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return &core.ConfigError{Field: "input_path", Err: errors.New("is required")}
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return &core.ConfigError{Field: "output_path", Err: errors.New("is required")}
	}
	if strings.TrimSpace(c.PromptTemplatePath) == "" {
		return &core.ConfigError{Field: "prompt_template_path", Err: errors.New("is required")}
	}
	if c.BatchSize <= 0 {
		return &core.ConfigError{Field: "batch_size", Err: fmt.Errorf("must be positive, got %d", c.BatchSize)}
	}
	if c.RequestTimeout < 0 {
		return &core.ConfigError{Field: "request_timeout", Err: fmt.Errorf("must not be negative, got %s", c.RequestTimeout)}
	}
	if c.Fetch.Timeout < 0 {
		return &core.ConfigError{Field: "fetch.timeout", Err: fmt.Errorf("must not be negative, got %s", c.Fetch.Timeout)}
	}
	switch c.Classifier.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return &core.ConfigError{
			Field: "classifier.provider",
			Err:   fmt.Errorf("unknown provider %q (want %s or %s)", c.Classifier.Provider, ProviderGemini, ProviderOpenAI),
		}
	}
	return nil
}

// LoadPromptTemplate reads the prompt template. A missing or blank template is
// a ConfigError.
func LoadPromptTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &core.ConfigError{Field: "prompt_template_path", Err: err}
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", &core.ConfigError{Field: "prompt_template_path", Err: fmt.Errorf("%s is empty", path)}
	}
	return string(data), nil
}

// APIKey returns the key for provider, falling back to API_KEY.
func APIKey(provider string, lookupEnv func(string) (string, bool)) string {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	names := []string{"API_KEY"}
	switch provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "API_KEY"}
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY", "API_KEY"}
	}
	for _, name := range names {
		if v, ok := lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
