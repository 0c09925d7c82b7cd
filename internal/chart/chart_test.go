package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarScalesToPeak(t *testing.T) {
	c := Bar("Vendas", []string{"A", "Bravo"}, []float64{10, 5})
	out := c.Render()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Vendas", lines[0])
	assert.Equal(t, "A     │"+strings.Repeat("█", Width)+" 10", lines[1])
	assert.Equal(t, "Bravo │"+strings.Repeat("█", Width/2)+" 5", lines[2])
}

func TestBarNumbersMissingLabels(t *testing.T) {
	c := Bar("", nil, []float64{1, math.NaN()})
	assert.Equal(t, []string{"0", "1"}, c.Labels)
	assert.Contains(t, c.Render(), "1 │ NaN")
}

func TestHistCountsEveryValue(t *testing.T) {
	c := Hist("h", []float64{1, 2, 2, 3, 4, 5}, 2)
	out := c.Render()
	assert.Contains(t, out, "[1, 3) │")
	assert.Contains(t, out, "[3, 5] │")
	// 1,2,2 fall in the first bin, 3,4,5 in the last
	assert.Equal(t, 2, strings.Count(out, " 3\n"))
}

func TestHistSingleValue(t *testing.T) {
	out := Hist("", []float64{7, 7}, 0).Render()
	assert.Equal(t, "7 │"+strings.Repeat("█", Width)+" 2\n", out)
}

func TestLineSparkline(t *testing.T) {
	out := Line("", []float64{0, 7, math.NaN(), 7}).Render()
	assert.True(t, strings.HasPrefix(out, "▁█ █\n"))
	assert.Contains(t, out, "min 0  max 7  n=3")
}

func TestBoxSummary(t *testing.T) {
	out := Box("b", []float64{1, 2, 3, 4, 5}).Render()
	assert.Contains(t, out, "min 1  q1 2  median 3  q3 4  max 5  n=5")
	assert.Contains(t, out, "├")
	assert.Contains(t, out, "┃")
	assert.Contains(t, out, "┤")
}

func TestEmptyChart(t *testing.T) {
	assert.Equal(t, "t\n(sem dados)\n", Box("t", nil).Render())
}

func TestConstructorsCopyValues(t *testing.T) {
	v := []float64{1, 2}
	c := Line("", v)
	v[0] = 99
	assert.Equal(t, 1.0, c.Values[0])
}
