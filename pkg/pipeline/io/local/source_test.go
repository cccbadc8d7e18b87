package local_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/paper-annotator/pkg/pipeline/core"
	"github.com/shpitdev/paper-annotator/pkg/pipeline/io/local"
)

func collect(t *testing.T, src *local.Source) ([]core.Record, error) {
	t.Helper()
	var out []core.Record
	for rec, err := range src.Records() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestSource(t *testing.T) {
	t.Run("reads rows in order", func(t *testing.T) {
		in := "Name,URL\nalpha,https://a.test\n\nbeta,https://b.test\n"
		src, err := local.NewSource(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "URL"}, src.Columns())

		recs, err := collect(t, src)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "alpha", recs[0].Get("Name"))
		assert.Equal(t, "https://b.test", recs[1].URL())
	})

	t.Run("empty input has no records", func(t *testing.T) {
		src, err := local.NewSource(strings.NewReader(""))
		require.NoError(t, err)
		recs, err := collect(t, src)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("strips byte order mark and header whitespace", func(t *testing.T) {
		src, err := local.NewSource(strings.NewReader("\ufeffName , URL\nx,y\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Name", "URL"}, src.Columns())
	})

	t.Run("column count mismatch is a parse error", func(t *testing.T) {
		in := "Name,URL\nalpha,https://a.test\nbeta\ngamma,https://c.test\n"
		src, err := local.NewSource(strings.NewReader(in))
		require.NoError(t, err)

		recs, err := collect(t, src)
		require.Error(t, err)
		var pe *core.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 3, pe.Line)
		assert.Len(t, recs, 1)
	})

	t.Run("duplicate header column is a parse error", func(t *testing.T) {
		_, err := local.NewSource(strings.NewReader("URL,URL\na,b\n"))
		var pe *core.ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("malformed quoting is a parse error", func(t *testing.T) {
		src, err := local.NewSource(strings.NewReader("Name,URL\n\"unterminated,x\n"))
		require.NoError(t, err)
		_, err = collect(t, src)
		var pe *core.ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("single forward pass", func(t *testing.T) {
		src, err := local.NewSource(strings.NewReader("URL\na\nb\n"))
		require.NoError(t, err)
		first, err := collect(t, src)
		require.NoError(t, err)
		assert.Len(t, first, 2)
		second, err := collect(t, src)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("stopping early leaves the rest unread", func(t *testing.T) {
		src, err := local.NewSource(strings.NewReader("URL\na\nb\nc\n"))
		require.NoError(t, err)
		for rec, err := range src.Records() {
			require.NoError(t, err)
			assert.Equal(t, "a", rec.Get("URL"))
			break
		}
		rest, err := collect(t, src)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.Equal(t, "b", rest[0].Get("URL"))
	})
}
