package core

import "context"

// ContentFetcher turns a URL into normalized text content.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Classifier turns fetched content and a prompt template into a Classification.
//
// Implementations should return *ClassificationError so callers can tell a
// failing service apart from a response that does not match the expected shape.
type Classifier interface {
	Classify(ctx context.Context, content, template string) (Classification, error)
}

// FetchFunc adapts a function to the ContentFetcher interface.
type FetchFunc func(ctx context.Context, url string) (string, error)

func (f FetchFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// ClassifyFunc adapts a function to the Classifier interface.
type ClassifyFunc func(ctx context.Context, content, template string) (Classification, error)

func (f ClassifyFunc) Classify(ctx context.Context, content, template string) (Classification, error) {
	return f(ctx, content, template)
}
