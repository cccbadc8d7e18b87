package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Workers caps the number of items in flight. Set to <=0 to run every item at once.
	Workers int

	// ItemTimeout bounds each processor call. Set to <=0 to disable.
	ItemTimeout time.Duration
}

func (o Options) withDefaults(items int) Options {
	if o.Workers <= 0 || o.Workers > items {
		o.Workers = items
	}
	if o.ItemTimeout < 0 {
		o.ItemTimeout = 0
	}
	return o
}

// ProcessAll runs the processor over all items concurrently and returns the
// outputs in input order, once every item has completed.
//
// The processor is expected to be total: failures belong in Out.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) Out,
	opts Options,
) []Out {
	return ProcessAllWithCallback(ctx, items, processor, nil, opts)
}

// ProcessAllWithCallback is ProcessAll with onResult invoked as each item
// completes. The callback receives completion-order results with their input
// index; calls are serialized.
func ProcessAllWithCallback[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) Out,
	onResult func(idx int, out Out),
	opts Options,
) []Out {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out
	}
	opts = opts.withDefaults(len(items))

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	var mu sync.Mutex
	for i, item := range items {
		g.Go(func() error {
			res := processOne(ctx, item, processor, opts.ItemTimeout)
			// Each goroutine owns out[i]; Wait publishes the writes.
			out[i] = res
			if onResult != nil {
				mu.Lock()
				onResult(i, res)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func processOne[In any, Out any](
	ctx context.Context,
	item In,
	processor func(context.Context, In) Out,
	timeout time.Duration,
) Out {
	if timeout <= 0 {
		return processor(ctx, item)
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return processor(reqCtx, item)
}
