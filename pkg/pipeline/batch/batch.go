package batch

import (
	"iter"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

// DefaultSize is used when a non-positive batch size is requested.
const DefaultSize = 10

// Batches groups records into order-preserving batches of up to size records.
// Only the last batch may be smaller. An error from records is yielded as is
// and ends the sequence; records buffered before it are dropped.
func Batches(records iter.Seq2[core.Record, error], size int) iter.Seq2[core.Batch, error] {
	if size <= 0 {
		size = DefaultSize
	}
	return func(yield func(core.Batch, error) bool) {
		buf := make(core.Batch, 0, size)
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			buf = append(buf, rec)
			if len(buf) < size {
				continue
			}
			if !yield(buf, nil) {
				return
			}
			buf = make(core.Batch, 0, size)
		}
		if len(buf) > 0 {
			yield(buf, nil)
		}
	}
}
