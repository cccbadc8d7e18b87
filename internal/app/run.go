// Package app wires the record source, enricher and writer into a batch run.
package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/shpitdev/paper-annotator/internal/config"
	"github.com/shpitdev/paper-annotator/internal/enrich"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/batch"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	localio "github.com/shpitdev/paper-annotator/pkg/pipeline/io/local"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/worker"
)

// Deps are the external services a run talks to.
type Deps struct {
	Fetcher    core.ContentFetcher
	Classifier core.Classifier
}

// Summary reports what a run wrote.
type Summary struct {
	Batches   int
	Rows      int
	ErrorRows int
	Output    string
}

// BatchWriter receives each completed batch in input order.
type BatchWriter interface {
	WriteBatch(recs []core.EnrichedRecord) error
}

type Options struct {
	BatchSize int
	// RequestTimeout bounds each record. Zero disables.
	RequestTimeout time.Duration
}

// EnrichFunc enriches one record. It must not fail; failures go in the Outcome.
type EnrichFunc func(ctx context.Context, rec core.Record) core.EnrichedRecord

// Run reads cfg.InputPath, enriches every record and appends the results to
// cfg.OutputPath. Configuration and parse errors abort the run; per-record
// failures end up in the Error column.
func Run(ctx context.Context, cfg config.Config, deps Deps, logger zerolog.Logger) (Summary, error) {
	if deps.Fetcher == nil || deps.Classifier == nil {
		return Summary{}, errors.New("app: fetcher and classifier are required")
	}
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	log := logger.With().Str("run", runID).Logger()
	runStart := time.Now()

	tpl, err := config.LoadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return Summary{}, err
	}

	inF, err := os.Open(cfg.InputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		_ = inF.Close()
	}()

	src, err := localio.NewSource(inF)
	if err != nil {
		return Summary{}, err
	}

	out, err := localio.OpenAppend(cfg.OutputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("open output: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()
	if out.Existing() {
		log.Warn().Str("output", cfg.OutputPath).Msg("output file already has content; appending a new header and rows")
	}

	log.Info().
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputPath).
		Strs("columns", src.Columns()).
		Int("batch_size", cfg.BatchSize).
		Dur("request_timeout", cfg.RequestTimeout).
		Str("provider", cfg.Classifier.Provider).
		Msg("run start")

	enricher := enrich.New(deps.Fetcher, deps.Classifier, tpl, enrich.WithLogger(log))

	summary, err := Process(ctx, src.Records(), enricher.Enrich, out, Options{
		BatchSize:      cfg.BatchSize,
		RequestTimeout: cfg.RequestTimeout,
	}, log)
	summary.Output = cfg.OutputPath
	if err != nil {
		return summary, err
	}
	if err := out.Close(); err != nil {
		return summary, fmt.Errorf("close output: %w", err)
	}

	log.Info().
		Int("rows", summary.Rows).
		Int("error_rows", summary.ErrorRows).
		Int("batches", summary.Batches).
		Str("output", summary.Output).
		Dur("duration", time.Since(runStart).Round(time.Millisecond)).
		Msg("run complete")
	return summary, nil
}

// Process enriches records batch by batch. Each batch runs concurrently and is
// written only after all of its records complete; batches never overlap.
func Process(
	ctx context.Context,
	records iter.Seq2[core.Record, error],
	enrichFn EnrichFunc,
	w BatchWriter,
	opts Options,
	log zerolog.Logger,
) (Summary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	progress := &rate.Sometimes{First: 1, Interval: 2 * time.Second}

	var summary Summary
	for b, err := range batch.Batches(records, opts.BatchSize) {
		if err != nil {
			return summary, err
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		batchNo := summary.Batches + 1
		start := time.Now()
		completed := 0
		results := worker.ProcessAllWithCallback(ctx, b, enrichFn, func(int, core.EnrichedRecord) {
			completed++
			progress.Do(func() {
				log.Debug().
					Int("batch", batchNo).
					Int("completed", completed).
					Int("size", len(b)).
					Msg("batch progress")
			})
		}, worker.Options{
			Workers:     len(b),
			ItemTimeout: opts.RequestTimeout,
		})

		// A canceled run drops the in-flight batch.
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := w.WriteBatch(results); err != nil {
			return summary, fmt.Errorf("write batch %d: %w", batchNo, err)
		}

		errs := 0
		for _, r := range results {
			if r.Outcome.Failed() {
				errs++
			}
		}
		summary.Batches++
		summary.Rows += len(results)
		summary.ErrorRows += errs

		log.Info().
			Int("batch", batchNo).
			Int("rows", len(results)).
			Int("errors", errs).
			Int("total_rows", summary.Rows).
			Dur("elapsed", time.Since(start).Round(time.Millisecond)).
			Msg("batch written")
	}
	return summary, nil
}
