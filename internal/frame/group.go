package frame

import (
	"fmt"
	"math"
	"sort"
)

// Grouping partitions rows by the values of a key column.
type Grouping struct {
	f     *Frame
	key   string
	keys  []string
	index map[string][]int
}

// GroupBy groups rows by key. Missing keys are skipped; groups appear in
// order of first appearance.
func (f *Frame) GroupBy(key string) *Grouping {
	col := f.Col(key)
	g := &Grouping{f: f, key: col.Name, index: map[string][]int{}}
	for i := 0; i < f.rows; i++ {
		if col.IsNA(i) {
			continue
		}
		k := col.Str(i)
		if _, ok := g.index[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.index[k] = append(g.index[k], i)
	}
	return g
}

// Keys returns the group keys.
func (g *Grouping) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Size returns the number of rows per group as a two-column frame.
func (g *Grouping) Size() *Frame {
	counts := make([]float64, len(g.keys))
	for i, k := range g.keys {
		counts[i] = float64(len(g.index[k]))
	}
	return &Frame{name: g.f.name, cols: []*Series{NewText(g.key, g.keys), NewNumeric("count", counts)}, rows: len(g.keys)}
}

// Get returns the rows of one group.
func (g *Grouping) Get(key string) *Frame {
	return g.f.take(g.index[key])
}

// Agg reduces col within each group using fn, one of sum, mean, median, min,
// max, count or std. The result has the key column and a column named
// "<col>_<fn>". Unknown functions panic.
func (g *Grouping) Agg(col, fn string) *Frame {
	src := g.f.Col(col)
	reduce, ok := aggregators[fn]
	if !ok {
		panic(fmt.Sprintf("frame: unknown aggregation %q (use sum, mean, median, min, max, count, std)", fn))
	}
	vals := make([]float64, len(g.keys))
	for i, k := range g.keys {
		vals[i] = reduce(src.take(g.index[k]))
	}
	return &Frame{
		name: g.f.name,
		cols: []*Series{NewText(g.key, g.keys), NewNumeric(src.Name+"_"+fn, vals)},
		rows: len(g.keys),
	}
}

var aggregators = map[string]func(*Series) float64{
	"sum":    (*Series).Sum,
	"mean":   (*Series).Mean,
	"median": (*Series).Median,
	"min":    (*Series).Min,
	"max":    (*Series).Max,
	"std":    (*Series).Std,
	"count":  func(s *Series) float64 { return float64(s.Count()) },
}

// PairCorr is one entry of a correlation ranking.
type PairCorr struct {
	A, B string
	R    float64
}

// TopCorrelations ranks pairs of numeric columns by |r|, at most limit pairs.
func (f *Frame) TopCorrelations(limit int) []PairCorr {
	var num []*Series
	for _, c := range f.cols {
		if c.Kind == KindNumeric {
			num = append(num, c)
		}
	}
	var pairs []PairCorr
	for i := 0; i < len(num); i++ {
		for j := i + 1; j < len(num); j++ {
			r := pearson(num[i], num[j])
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: num[i].Name, B: num[j].Name, R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
