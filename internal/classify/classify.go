// Package classify renders the classification prompt and validates model
// responses against the expected shape.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

const (
	SchemaPlaceholder  = "{JsonSchema}"
	ContentPlaceholder = "{markdown}"
)

// ResponseSchema is the JSON Schema substituted into prompt templates.
const ResponseSchema = `{
  "type": "object",
  "properties": {
    "isModel": {
      "type": "boolean",
      "description": "Is it a biological model?"
    },
    "isDatabase": {
      "type": "boolean",
      "description": "Is it a biological database?"
    },
    "Input": {
      "type": "array",
      "items": { "type": "string" },
      "description": "Inputs consumed by the model or database"
    },
    "Output": {
      "type": "array",
      "items": { "type": "string" },
      "description": "Outputs produced by the model or database"
    }
  },
  "required": ["isModel", "isDatabase", "Input", "Output"]
}`

const maxRawInError = 200

// RenderPrompt substitutes the first occurrence of each placeholder.
// The schema goes in before the content so page text containing a
// placeholder is never expanded.
func RenderPrompt(template, content string) string {
	out := strings.Replace(template, SchemaPlaceholder, ResponseSchema, 1)
	return strings.Replace(out, ContentPlaceholder, content, 1)
}

type response struct {
	IsModel    *bool    `json:"isModel"`
	IsDatabase *bool    `json:"isDatabase"`
	Input      []string `json:"Input"`
	Output     []string `json:"Output"`
}

func (r response) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsModel, validation.NotNil),
		validation.Field(&r.IsDatabase, validation.NotNil),
		validation.Field(&r.Input, validation.NotNil),
		validation.Field(&r.Output, validation.NotNil),
	)
}

// ParseResponse decodes a model reply into a Classification. Any decoding or
// shape failure is a *core.ClassificationError of kind InvalidResponse.
func ParseResponse(text string) (core.Classification, error) {
	body := stripFences(text)
	if body == "" {
		return core.Classification{}, invalid(errors.New("empty response"), text)
	}

	var r response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return core.Classification{}, invalid(fmt.Errorf("decode json: %w", err), text)
	}
	if err := r.Validate(); err != nil {
		return core.Classification{}, invalid(err, text)
	}

	return core.Classification{
		IsModel:    *r.IsModel,
		IsDatabase: *r.IsDatabase,
		Input:      trimAll(r.Input),
		Output:     trimAll(r.Output),
	}, nil
}

// ServiceError wraps a backend failure. code is the upstream HTTP status, or 0.
func ServiceError(err error, code int) error {
	var ce *core.ClassificationError
	if errors.As(err, &ce) {
		return err
	}
	return &core.ClassificationError{Kind: core.ClassificationServiceError, Code: code, Err: err}
}

func invalid(err error, raw string) error {
	return &core.ClassificationError{
		Kind: core.ClassificationInvalidResponse,
		Err:  fmt.Errorf("%w (response: %q)", err, truncate(strings.TrimSpace(raw), maxRawInError)),
	}
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func trimAll(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
