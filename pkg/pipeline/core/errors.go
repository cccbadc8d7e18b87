package core

import (
	"fmt"
	"strings"
)

// ParseError reports a structurally malformed input row. It is fatal to a run.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil || e.Err == nil {
		return "parse error"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error on line %d: %v", e.Line, e.Err)
	}
	return "parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError reports missing or invalid configuration. It is fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e == nil || e.Err == nil {
		return "config error"
	}
	if strings.TrimSpace(e.Field) == "" {
		return "config error: " + e.Err.Error()
	}
	return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FetchError reports a content retrieval failure for one URL.
type FetchError struct {
	URL string
	// StatusCode is set when the server answered with a non-success status.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil || e.Err == nil {
		return "fetch error"
	}
	if e.URL == "" {
		return "fetch: " + e.Err.Error()
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ClassificationErrorKind separates service failures from unusable responses.
type ClassificationErrorKind int

const (
	ClassificationServiceError ClassificationErrorKind = iota
	ClassificationInvalidResponse
)

// ClassificationError reports a classifier failure for one record.
type ClassificationError struct {
	Kind ClassificationErrorKind
	// Code is the upstream HTTP status when the service returned one.
	Code int
	Err  error
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return "classifier error"
	}
	prefix := "classifier service error"
	if e.Kind == ClassificationInvalidResponse {
		prefix = "classifier response failed validation"
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *ClassificationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
