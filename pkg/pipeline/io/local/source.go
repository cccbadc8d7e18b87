package local

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

// Source streams records from a CSV with a header row.
//
// Records are read lazily in a single forward pass; the sequence cannot be
// restarted.
type Source struct {
	cr      *csv.Reader
	columns []string
	done    bool
}

// NewSource reads the header from r. An empty input yields a Source with no
// records.
func NewSource(r io.Reader) (*Source, error) {
	cr := csv.NewReader(r)
	// The header fixes the column count; rows that differ fail with csv.ErrFieldCount.
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Source{cr: cr, done: true}, nil
	}
	if err != nil {
		return nil, toParseError(fmt.Errorf("read header: %w", err))
	}

	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		col = strings.TrimSpace(col)
		if _, ok := seen[col]; ok {
			return nil, &core.ParseError{Line: 1, Err: fmt.Errorf("duplicate column %q", col)}
		}
		seen[col] = struct{}{}
		columns[i] = col
	}
	return &Source{cr: cr, columns: columns}, nil
}

// Columns returns the header columns in file order.
func (s *Source) Columns() []string {
	return s.columns
}

// Records yields one Record per data row. A malformed row yields a
// *core.ParseError and ends the sequence.
func (s *Source) Records() iter.Seq2[core.Record, error] {
	return func(yield func(core.Record, error) bool) {
		for !s.done {
			row, err := s.cr.Read()
			if errors.Is(err, io.EOF) {
				s.done = true
				return
			}
			if err != nil {
				s.done = true
				yield(core.Record{}, toParseError(err))
				return
			}
			if !yield(core.NewRecord(s.columns, row), nil) {
				return
			}
		}
	}
}

func toParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &core.ParseError{Line: pe.StartLine, Err: pe.Err}
	}
	return &core.ParseError{Err: err}
}
