package frame

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

func loadFixture(t *testing.T) *Frame {
	t.Helper()
	f, err := Read(strings.NewReader(strings.Join(csvRows, "\n")), "fixture.csv", DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestReadInfersKindsUnitsAndLocale(t *testing.T) {
	f := loadFixture(t)

	assert.Equal(t, "(10, 7)", f.Shape().String())
	assert.Equal(t, "(10, 7)", fmt.Sprint(f.Shape()))
	assert.Equal(t, []string{"Group", "Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber", "Category", "Note"}, f.Columns())

	assert.Equal(t, KindCategorical, f.Col("Group").Kind)
	assert.Equal(t, KindNumeric, f.Col("Score").Kind)
	assert.Equal(t, KindCategorical, f.Col("Category").Kind)

	conc := f.Col("Concentration")
	assert.Equal(t, "g/L", conc.Unit)
	assert.InDelta(t, 0.5, conc.Float(0), 1e-9)
	assert.Equal(t, "°F", f.Col("temp").Unit)

	assert.InDelta(t, 139.6, f.Col("Score").Sum(), 1e-9)
	assert.InDelta(t, 13.96, f.Col("Score").Mean(), 1e-9)
	assert.InDelta(t, 5000, f.Col("LocaleNumber").Max(), 1e-9)
	assert.InDelta(t, 880, f.Col("LocaleNumber").Min(), 1e-9)
}

func TestReadEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := Read(strings.NewReader("  \n"), "empty.csv", DefaultOptions())
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("ragged rows are padded", func(t *testing.T) {
		f, err := Read(strings.NewReader("a,b\n1\n2,3\n"), "r.csv", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 2, f.Len())
		assert.Equal(t, 1, f.Col("b").Missing())
		assert.True(t, f.Row(0).IsNA("b"))
		assert.InDelta(t, 3, f.Row(1).Float("b"), 1e-9)
	})

	t.Run("tsv extension forces tab", func(t *testing.T) {
		f, err := Read(strings.NewReader("x,y\tz\n1,5\t2\n"), "data.tsv", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []string{"x,y", "z"}, f.Columns())
	})

	t.Run("duplicate and blank headers", func(t *testing.T) {
		f, err := Read(strings.NewReader("a,a,\n1,2,3\n"), "d.csv", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a.1", "Unnamed: 2"}, f.Columns())
	})

	t.Run("datetime and percent", func(t *testing.T) {
		f, err := Read(strings.NewReader("when,rate\n2024-01-05,10%\n2024-02-05,12.5%\n"), "t.csv", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, KindDatetime, f.Col("when").Kind)
		assert.Equal(t, "%", f.Col("rate").Unit)
		assert.InDelta(t, 12.5, f.Col("rate").Max(), 1e-9)
		ts, ok := f.Col("when").Time(1)
		require.True(t, ok)
		assert.Equal(t, 2, int(ts.Month()))
	})

	t.Run("max rows", func(t *testing.T) {
		f, err := Read(strings.NewReader("a\n1\n2\n3\n"), "m.csv", Options{MaxRows: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, f.Len())
		assert.True(t, f.Truncated())

		f, err = Read(strings.NewReader("a\n1\n2\n"), "m.csv", Options{MaxRows: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, f.Len())
		assert.False(t, f.Truncated())
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(p, []byte("\xef\xbb\xbfname,value\nx,1\ny,2\n"), 0o644))

	f, err := LoadFile(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "data.csv", f.Name())
	assert.Equal(t, []string{"name", "value"}, f.Columns())

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), DefaultOptions())
	assert.Error(t, err)
}

func TestFrameOperationsDoNotMutate(t *testing.T) {
	f := loadFixture(t)

	head := f.Head(3)
	assert.Equal(t, 3, head.Len())
	assert.Equal(t, "first", head.Col("Note").Str(0))

	tail := f.Tail(2)
	assert.Equal(t, []string{"ninth", "tenth"}, tail.Col("Note").Strings())

	onlyA := f.Filter(func(r Row) bool { return r.Str("Group") == "A" })
	assert.Equal(t, 5, onlyA.Len())

	sorted := f.SortBy("Score", false)
	assert.Equal(t, "ninth", sorted.Col("Note").Str(0))
	assert.Equal(t, "seventh", sorted.Col("Note").Str(9))

	sel := f.Select("Note", "Group")
	assert.Equal(t, []string{"Note", "Group"}, sel.Columns())

	doubled := make([]float64, f.Len())
	for i := range doubled {
		doubled[i] = f.Col("Score").Float(i) * 2
	}
	wc := f.WithColumn("Score2", doubled)
	assert.Equal(t, 8, len(wc.Columns()))

	// the source frame is untouched
	assert.Equal(t, "(10, 7)", f.Shape().String())
	assert.Equal(t, "first", f.Col("Note").Str(0))
	assert.False(t, f.Has("Score2"))
}

func TestColPanicsOnUnknownColumn(t *testing.T) {
	f := loadFixture(t)
	assert.PanicsWithValue(t,
		`frame: column "Amount" not found (available: Group, Concentration (g/L), Temp (°F), Score, LocaleNumber, Category, Note)`,
		func() { f.Col("Amount") })
}

func TestSortByPutsMissingLast(t *testing.T) {
	f, err := Read(strings.NewReader("v,w\n3,a\n,b\n1,c\n2,d\n"), "s.csv", DefaultOptions())
	require.NoError(t, err)

	asc := f.SortBy("v", true)
	assert.Equal(t, []string{"1", "2", "3", ""}, asc.Col("v").Strings())
	desc := f.SortBy("v", false)
	assert.Equal(t, []string{"3", "2", "1", ""}, desc.Col("v").Strings())

	assert.Equal(t, 3, f.DropNA().Len())
	assert.Equal(t, 3, f.DropNA("v").Len())

	filled := f.Col("v").FillNA(0)
	assert.Equal(t, 0, filled.Missing())
	assert.InDelta(t, 6, filled.Sum(), 1e-9)
}

func TestSeriesStatistics(t *testing.T) {
	s := NewNumeric("x", []float64{1, 2, 3, 4, math.NaN()})

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, 1, s.Missing())
	assert.InDelta(t, 2.5, s.Mean(), 1e-9)
	assert.InDelta(t, 2.5, s.Median(), 1e-9)
	assert.InDelta(t, 1.75, s.Quantile(0.25), 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std(), 1e-9)
	assert.Equal(t, []float64{1, 2, 3, 4}, s.Floats())

	empty := NewNumeric("e", nil)
	assert.True(t, math.IsNaN(empty.Mean()))
	assert.True(t, math.IsNaN(empty.Std()))
}

func TestValueCountsAndUnique(t *testing.T) {
	f := loadFixture(t)
	c := f.Col("Category")

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, c.Unique())
	assert.Equal(t, []ValueCount{{"alpha", 5}, {"beta", 3}, {"gamma", 2}}, c.ValueCounts())
}

func TestGroupByAgg(t *testing.T) {
	f := loadFixture(t)

	g := f.GroupBy("Group")
	assert.Equal(t, []string{"A", "B"}, g.Keys())

	means := g.Agg("Score", "mean")
	assert.Equal(t, []string{"Group", "Score_mean"}, means.Columns())
	assert.InDelta(t, 17.86, means.Col("Score_mean").Float(0), 1e-9)
	assert.InDelta(t, 10.06, means.Col("Score_mean").Float(1), 1e-9)

	counts := g.Agg("Score", "count")
	assert.InDelta(t, 5, counts.Col("Score_count").Float(1), 1e-9)

	size := g.Size()
	assert.Equal(t, 2, size.Len())

	assert.Panics(t, func() { g.Agg("Score", "variance") })
}

func TestCorr(t *testing.T) {
	f := loadFixture(t)
	assert.Greater(t, f.Corr("Concentration", "Score"), 0.9)
	assert.InDelta(t, 1.0, f.Corr("Score", "Score"), 1e-9)
	assert.True(t, math.IsNaN(f.Corr("Group", "Score")))

	pairs := f.TopCorrelations(3)
	require.Len(t, pairs, 3)
	assert.GreaterOrEqual(t, math.Abs(pairs[0].R), math.Abs(pairs[1].R))
}

func TestMarkdownAndString(t *testing.T) {
	f, err := Read(strings.NewReader("name,note\nx,a|b\ny,\n"), "m.csv", DefaultOptions())
	require.NoError(t, err)

	md := f.Markdown()
	assert.Equal(t, "| name | note |\n| --- | --- |\n| x | a/b |\n| y |  |\n", md)

	s := f.String()
	assert.Contains(t, s, "name")
	assert.Contains(t, s, "NaN")
	assert.True(t, strings.HasSuffix(s, "[2 rows x 2 columns]"))
}

func TestDescribe(t *testing.T) {
	f := loadFixture(t)
	out := f.Describe()

	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: fixture.csv",
		"Rows: 10",
		"[SCHEMA]",
		"- Category: categorical",
		"alpha(5), beta(3), gamma(2)",
		"- Concentration (g/L): numeric",
		"- Score: numeric",
		"outliers: 1",
		"[CORRELATIONS]",
		"[HEAD]",
	} {
		assert.Contains(t, out, want)
	}

	sum := Summarize(f, SummaryOptions{GroupBy: "Group", OutlierZ: 3.5})
	md := sum.Markdown()
	assert.Contains(t, md, "[GROUP-BY SUMMARY]")
	assert.Contains(t, md, "- A (n=5)")
	assert.NotContains(t, md, "[HEAD]")

	missing := Summarize(f, SummaryOptions{GroupBy: "Nope"})
	assert.Contains(t, missing.Markdown(), `group-by column "Nope" not found`)
}
