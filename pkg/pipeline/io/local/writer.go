package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/schema"
)

// Writer appends enriched batches to a CSV sink, writing the header once,
// before the first row.
type Writer struct {
	cw       *csv.Writer
	closer   io.Closer
	header   []string
	rows     int
	existing bool
}

// NewWriter writes to w. The caller owns w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// OpenAppend opens path for appending, creating it if needed. Existing content
// is kept.
func OpenAppend(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := NewWriter(f)
	w.closer = f
	w.existing = st.Size() > 0
	return w, nil
}

// Existing reports whether the sink already had content when it was opened.
func (w *Writer) Existing() bool {
	return w.existing
}

// Header returns the header written so far, or nil before the first batch.
func (w *Writer) Header() []string {
	return w.header
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// WriteBatch appends recs as rows and flushes. The header is derived from the
// first record of the first non-empty batch.
func (w *Writer) WriteBatch(recs []core.EnrichedRecord) error {
	if len(recs) == 0 {
		return nil
	}
	if w.header == nil {
		header := schema.Header(recs[0].Columns)
		if err := w.cw.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		w.header = header
	}
	for _, rec := range recs {
		if err := w.cw.Write(schema.Row(w.header, rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.cw.Flush()
	if err := w.cw.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	w.rows += len(recs)
	return nil
}

// Close flushes pending output and closes the file opened by OpenAppend.
func (w *Writer) Close() error {
	w.cw.Flush()
	err := w.cw.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}
