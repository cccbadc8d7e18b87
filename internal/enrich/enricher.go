// Package enrich turns one input record into an enriched record by fetching
// its URL and classifying the page.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/redact"
)

// MissingURLMessage is the Error column value for rows without a URL.
const MissingURLMessage = "No URL provided"

type Enricher struct {
	fetcher    core.ContentFetcher
	classifier core.Classifier
	template   string

	logger  zerolog.Logger
	sampler *rate.Sometimes
}

type Option func(*Enricher)

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

func New(fetcher core.ContentFetcher, classifier core.Classifier, template string, opts ...Option) *Enricher {
	e := &Enricher{
		fetcher:    fetcher,
		classifier: classifier,
		template:   template,
		logger:     zerolog.Nop(),
		sampler:    &rate.Sometimes{First: 3, Interval: time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich never fails: every failure is captured in the returned Outcome.
func (e *Enricher) Enrich(ctx context.Context, rec core.Record) core.EnrichedRecord {
	out := core.EnrichedRecord{Record: rec}

	url := rec.URL()
	if url == "" {
		out.Outcome = core.Failed(core.ErrorKindMissingURL, MissingURLMessage)
		return out
	}

	start := time.Now()
	content, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		out.Outcome = e.fail(url, core.ErrorKindFetch, err)
		return out
	}

	c, err := e.classifier.Classify(ctx, content, e.template)
	if err != nil {
		err = classifyErr(err)
		kind := core.ErrorKindClassifierService
		var ce *core.ClassificationError
		if errors.As(err, &ce) && ce.Kind == core.ClassificationInvalidResponse {
			kind = core.ErrorKindClassifierResponse
		}
		out.Outcome = e.fail(url, kind, err)
		return out
	}

	e.sampler.Do(func() {
		e.logger.Debug().
			Str("url", url).
			Int("content_bytes", len(content)).
			Dur("elapsed", time.Since(start).Round(time.Millisecond)).
			Msg("record enriched")
	})
	out.Outcome = core.Merged(c)
	return out
}

func (e *Enricher) fail(url string, kind core.ErrorKind, err error) core.Outcome {
	msg := redact.Secrets(err.Error())
	e.logger.Warn().Str("url", url).Str("kind", string(kind)).Msg(msg)
	return core.Failed(kind, msg)
}

// classifyErr treats any untyped classifier failure as a service error.
func classifyErr(err error) error {
	var ce *core.ClassificationError
	if errors.As(err, &ce) {
		return err
	}
	return &core.ClassificationError{Kind: core.ClassificationServiceError, Err: err}
}
