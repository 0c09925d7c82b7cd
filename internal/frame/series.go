package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Series is one column. Numeric values are cached alongside the raw text;
// cells that are missing or not numeric hold NaN.
type Series struct {
	Name string
	Kind Kind
	Unit string
	raw  []string
	nums []float64
}

// NewNumeric builds a numeric series; NaN marks missing values.
func NewNumeric(name string, values []float64) *Series {
	s := &Series{Name: name, Kind: KindNumeric, raw: make([]string, len(values)), nums: make([]float64, len(values))}
	copy(s.nums, values)
	for i, v := range values {
		s.raw[i] = formatFloat(v)
	}
	return s
}

// NewText builds a categorical series from raw strings.
func NewText(name string, values []string) *Series {
	raw := make([]string, len(values))
	copy(raw, values)
	return inferSeries(name, raw, Options{})
}

func (s *Series) take(idx []int) *Series {
	out := &Series{Name: s.Name, Kind: s.Kind, Unit: s.Unit, raw: make([]string, len(idx)), nums: make([]float64, len(idx))}
	for k, i := range idx {
		out.raw[k] = s.raw[i]
		out.nums[k] = s.nums[i]
	}
	return out
}

// Len returns the number of cells including missing ones.
func (s *Series) Len() int { return len(s.raw) }

// IsNA reports a missing cell. In numeric columns an unparseable cell
// counts as missing.
func (s *Series) IsNA(i int) bool {
	if s.Kind == KindNumeric {
		return math.IsNaN(s.nums[i])
	}
	return isNA(s.raw[i])
}

// Float returns the numeric value of cell i or NaN.
func (s *Series) Float(i int) float64 { return s.nums[i] }

// Str returns the raw text of cell i.
func (s *Series) Str(i int) string { return s.raw[i] }

// Time parses cell i as a timestamp.
func (s *Series) Time(i int) (time.Time, bool) { return parseTimeMaybe(s.raw[i]) }

// Floats returns the non-missing numeric values in order.
func (s *Series) Floats() []float64 {
	out := make([]float64, 0, len(s.nums))
	for _, v := range s.nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns a copy of the raw cell texts.
func (s *Series) Strings() []string {
	out := make([]string, len(s.raw))
	copy(out, s.raw)
	return out
}

// Count returns the number of non-missing cells.
func (s *Series) Count() int {
	n := 0
	for i := range s.raw {
		if !s.IsNA(i) {
			n++
		}
	}
	return n
}

// Missing returns the number of missing cells.
func (s *Series) Missing() int { return s.Len() - s.Count() }

// Sum adds the non-missing values.
func (s *Series) Sum() float64 {
	var t float64
	for _, v := range s.Floats() {
		t += v
	}
	return t
}

// Mean is NaN for a series without numeric values.
func (s *Series) Mean() float64 {
	vals := s.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	return s.Sum() / float64(len(vals))
}

// Std is the sample standard deviation (n-1), computed with Welford's method.
func (s *Series) Std() float64 {
	var n int
	var mean, m2 float64
	for _, x := range s.Floats() {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(m2 / float64(n-1))
}

func (s *Series) Min() float64 {
	vals := s.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m
}

func (s *Series) Max() float64 {
	vals := s.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m
}

// Quantile uses linear interpolation between closest ranks.
func (s *Series) Quantile(q float64) float64 {
	vals := s.Floats()
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	return quantile(vals, q)
}

func (s *Series) Median() float64 { return s.Quantile(0.5) }

// Unique returns distinct non-missing values in order of first appearance.
func (s *Series) Unique() []string {
	seen := map[string]bool{}
	var out []string
	for i, v := range s.raw {
		if s.IsNA(i) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ValueCount is one entry of ValueCounts.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts counts distinct non-missing values, most frequent first.
func (s *Series) ValueCounts() []ValueCount {
	counts := map[string]int{}
	for i, v := range s.raw {
		if !s.IsNA(i) {
			counts[v]++
		}
	}
	out := make([]ValueCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, ValueCount{Value: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// FillNA returns a numeric copy with missing values replaced by v.
func (s *Series) FillNA(v float64) *Series {
	vals := make([]float64, len(s.nums))
	for i, x := range s.nums {
		if math.IsNaN(x) {
			x = v
		}
		vals[i] = x
	}
	out := NewNumeric(s.Name, vals)
	out.Unit = s.Unit
	return out
}

func (s *Series) String() string {
	var b strings.Builder
	n := s.Len()
	lim := n
	if lim > 10 {
		lim = 10
	}
	b.WriteString(s.Name)
	b.WriteString(": [")
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if s.IsNA(i) {
			b.WriteString("NaN")
		} else {
			b.WriteString(s.raw[i])
		}
	}
	if lim < n {
		b.WriteString(" ...")
	}
	fmt.Fprintf(&b, "] (%s, n=%d)", s.Kind, n)
	return b.String()
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}
