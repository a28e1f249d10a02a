package metadata_test

import (
	"strings"
	"testing"

	"github.com/gnps/groupselector/pkg/metadata"
	"github.com/gnps/groupselector/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, tsv string) *table.Table {
	t.Helper()
	tbl, err := table.ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	return tbl
}

func TestResolveColumns(t *testing.T) {
	t.Run("it drops columns whose name contains filename, keeping table order", func(t *testing.T) {
		tbl := parse(t, "filename\tATTRIBUTE_type\tmzML_filename\tATTRIBUTE_time\tFilename\n")

		cols := metadata.ResolveColumns(tbl)

		assert.Equal(t, []string{"ATTRIBUTE_type", "ATTRIBUTE_time", "Filename"}, cols.Names)
		assert.Equal(t, "ATTRIBUTE_type", cols.Default)
		for _, c := range cols.Names {
			assert.NotContains(t, c, metadata.FilenameMarker)
		}
	})

	t.Run("a table with only filename columns has no selection", func(t *testing.T) {
		cols := metadata.ResolveColumns(parse(t, "filename\traw_filename\n"))

		assert.True(t, cols.Empty())
		assert.Equal(t, "", cols.Default)
		assert.False(t, cols.Contains(""))
	})

	t.Run("a nil table has no selection", func(t *testing.T) {
		assert.True(t, metadata.ResolveColumns(nil).Empty())
	})
}

func TestResolveTerms(t *testing.T) {
	t.Run("comma-combined cells are split into individual terms", func(t *testing.T) {
		tbl := parse(t, "filename\tATTRIBUTE_type\n"+
			"a.mzML\tcase\n"+
			"b.mzML\tcontrol,case\n"+
			"c.mzML\tcontrol\n")

		terms := metadata.ResolveTerms(tbl, "ATTRIBUTE_type")

		assert.ElementsMatch(t, []string{"case", "control"}, terms.Values)
		assert.Equal(t, []string{"case", "control"}, terms.Values)
		assert.Equal(t, "case", terms.Default1)
		assert.Equal(t, "control", terms.Default2)
	})

	t.Run("missing values are dropped and order is first-seen", func(t *testing.T) {
		tbl := parse(t, "filename\tg\n"+
			"a\t\n"+
			"b\tzeta\n"+
			"c\talpha,zeta,beta\n"+
			"d\tNA\n"+
			"e\tzeta\n")

		terms := metadata.ResolveTerms(tbl, "g")

		assert.Equal(t, []string{"zeta", "alpha", "beta"}, terms.Values)
		assert.Equal(t, "zeta", terms.Default1)
		assert.Equal(t, "beta", terms.Default2)
	})

	t.Run("each term is a piece of some original cell", func(t *testing.T) {
		cells := []string{"x,y", "y", "z, w", "x,,v"}
		tsv := "g\n" + strings.Join(cells, "\n") + "\n"

		terms := metadata.ResolveTerms(parse(t, tsv), "g")

		for _, term := range terms.Values {
			found := false
			for _, c := range cells {
				for _, piece := range strings.Split(c, ",") {
					if piece == term {
						found = true
					}
				}
			}
			assert.True(t, found, "term %q is not a piece of any cell", term)
		}
		assert.True(t, terms.Contains(" w"), "pieces should not be trimmed")
		assert.True(t, terms.Contains(""), "empty pieces are kept")
	})

	t.Run("a single term is both defaults", func(t *testing.T) {
		terms := metadata.ResolveTerms(parse(t, "g\nonly\n"), "g")
		assert.Equal(t, "only", terms.Default1)
		assert.Equal(t, "only", terms.Default2)
	})

	t.Run("an unknown column gives no terms", func(t *testing.T) {
		terms := metadata.ResolveTerms(parse(t, "g\nx\n"), "h")
		assert.True(t, terms.Empty())
		assert.Equal(t, "", terms.Default1)
	})

	t.Run("a column of missing values gives no terms", func(t *testing.T) {
		terms := metadata.ResolveTerms(parse(t, "f\tg\na\t\nb\t\n"), "g")
		assert.True(t, terms.Empty())
	})
}
