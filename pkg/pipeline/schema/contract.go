package schema

import (
	"strconv"
	"strings"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
)

// ListDelimiter joins the elements of the Input and Output columns.
const ListDelimiter = ";"

const (
	ColumnIsModel    = "isModel"
	ColumnIsDatabase = "isDatabase"
	ColumnInput      = "Input"
	ColumnOutput     = "Output"
	ColumnError      = "Error"
)

// EnrichmentColumns returns the columns appended to every output row, in order.
func EnrichmentColumns() []string {
	return []string{
		ColumnIsModel,
		ColumnIsDatabase,
		ColumnInput,
		ColumnOutput,
		ColumnError,
	}
}

func isEnrichmentColumn(col string) bool {
	switch col {
	case ColumnIsModel, ColumnIsDatabase, ColumnInput, ColumnOutput, ColumnError:
		return true
	}
	return false
}

// Header returns the output header for rows read with inputColumns.
//
// Input columns keep their order. An input column that repeats, or that
// shares a name with an enrichment column, appears once; enrichment values win.
func Header(inputColumns []string) []string {
	out := make([]string, 0, len(inputColumns)+5)
	seen := make(map[string]struct{}, len(inputColumns))
	for _, col := range inputColumns {
		if isEnrichmentColumn(col) {
			continue
		}
		if _, ok := seen[col]; ok {
			continue
		}
		seen[col] = struct{}{}
		out = append(out, col)
	}
	return append(out, EnrichmentColumns()...)
}

// Fields returns the five enrichment values for o, in EnrichmentColumns order.
// A failed Outcome always yields false, false, "", "", message.
func Fields(o core.Outcome) []string {
	c, ok := o.Classification()
	if !ok {
		return []string{"false", "false", "", "", o.Message()}
	}
	return []string{
		strconv.FormatBool(c.IsModel),
		strconv.FormatBool(c.IsDatabase),
		JoinList(c.Input),
		JoinList(c.Output),
		"",
	}
}

// Row serializes rec in header order. Header columns rec does not carry are empty.
func Row(header []string, rec core.EnrichedRecord) []string {
	fields := Fields(rec.Outcome)
	out := make([]string, len(header))
	for i, col := range header {
		switch col {
		case ColumnIsModel:
			out[i] = fields[0]
		case ColumnIsDatabase:
			out[i] = fields[1]
		case ColumnInput:
			out[i] = fields[2]
		case ColumnOutput:
			out[i] = fields[3]
		case ColumnError:
			out[i] = fields[4]
		default:
			out[i] = rec.Get(col)
		}
	}
	return out
}

// JoinList joins vals with ListDelimiter. nil and empty lists yield "".
func JoinList(vals []string) string {
	return strings.Join(vals, ListDelimiter)
}
