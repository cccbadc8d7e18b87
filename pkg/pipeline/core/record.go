package core

import "strings"

// URLColumn is the column a row must carry to be enriched.
const URLColumn = "URL"

// Record is one input row. Columns keeps the header order; Values is keyed by
// column name.
type Record struct {
	Columns []string
	Values  map[string]string
}

// NewRecord zips a header and a row into a Record. Missing trailing values are
// left empty.
func NewRecord(columns, row []string) Record {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			values[col] = row[i]
			continue
		}
		values[col] = ""
	}
	return Record{Columns: columns, Values: values}
}

// Get returns the value of col, or "" when the record has no such column.
func (r Record) Get(col string) string {
	return r.Values[col]
}

// URL returns the URL cell with surrounding whitespace and one pair of
// wrapping quotes removed.
func (r Record) URL() string {
	u := strings.TrimSpace(r.Values[URLColumn])
	if len(u) >= 2 && (u[0] == '"' || u[0] == '\'') && u[len(u)-1] == u[0] {
		u = strings.TrimSpace(u[1 : len(u)-1])
	}
	return u
}

// Batch is an ordered group of records processed together.
type Batch []Record

// Classification is the structured answer returned by a Classifier.
type Classification struct {
	IsModel    bool     `json:"isModel"`
	IsDatabase bool     `json:"isDatabase"`
	Input      []string `json:"Input"`
	Output     []string `json:"Output"`
}
