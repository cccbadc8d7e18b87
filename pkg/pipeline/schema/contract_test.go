package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/schema"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "appends enrichment columns",
			in:   []string{"Name", "URL"},
			want: []string{"Name", "URL", "isModel", "isDatabase", "Input", "Output", "Error"},
		},
		{
			name: "no input columns",
			in:   nil,
			want: []string{"isModel", "isDatabase", "Input", "Output", "Error"},
		},
		{
			name: "colliding columns appear once",
			in:   []string{"URL", "Error", "Name", "isModel"},
			want: []string{"URL", "Name", "isModel", "isDatabase", "Input", "Output", "Error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.Header(tt.in))
		})
	}
}

func TestFields(t *testing.T) {
	t.Run("merged", func(t *testing.T) {
		got := schema.Fields(core.Merged(core.Classification{
			IsModel: true,
			Input:   []string{"a", "b"},
			Output:  []string{"c"},
		}))
		assert.Equal(t, []string{"true", "false", "a;b", "c", ""}, got)
	})

	t.Run("merged with empty lists", func(t *testing.T) {
		got := schema.Fields(core.Merged(core.Classification{IsDatabase: true}))
		assert.Equal(t, []string{"false", "true", "", "", ""}, got)
	})

	t.Run("failed", func(t *testing.T) {
		got := schema.Fields(core.Failed(core.ErrorKindMissingURL, "No URL provided"))
		assert.Equal(t, []string{"false", "false", "", "", "No URL provided"}, got)
	})
}

func TestRowFollowsHeaderOrder(t *testing.T) {
	header := []string{"B", "A", "Missing", "isModel", "isDatabase", "Input", "Output", "Error"}
	rec := core.EnrichedRecord{
		Record:  core.NewRecord([]string{"A", "B"}, []string{"a", "b"}),
		Outcome: core.Merged(core.Classification{Output: []string{"x"}}),
	}
	assert.Equal(t, []string{"b", "a", "", "false", "false", "", "x", ""}, schema.Row(header, rec))
}

func TestRowEnrichmentOverridesInput(t *testing.T) {
	rec := core.EnrichedRecord{
		Record:  core.NewRecord([]string{"URL", "Error"}, []string{"u", "stale"}),
		Outcome: core.Merged(core.Classification{}),
	}
	header := schema.Header(rec.Columns)
	row := schema.Row(header, rec)
	assert.Equal(t, "", row[len(row)-1])
}
