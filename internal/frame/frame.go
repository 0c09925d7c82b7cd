// Package frame is the in-memory tabular dataset used by analysis code.
//
// A Frame is immutable: every operation that changes shape or order returns
// a new Frame and leaves the receiver untouched.
package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Shape is the (rows, columns) pair of a Frame.
type Shape struct {
	Rows int
	Cols int
}

func (s Shape) String() string { return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols) }

// Frame holds named columns of equal length.
type Frame struct {
	name      string
	cols      []*Series
	rows      int
	truncated bool
}

// New builds a Frame from already constructed series. All series must have
// the same length.
func New(name string, cols ...*Series) (*Frame, error) {
	rows := -1
	for _, c := range cols {
		if rows >= 0 && c.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), rows)
		}
		rows = c.Len()
	}
	if rows < 0 {
		rows = 0
	}
	return &Frame{name: name, cols: cols, rows: rows}, nil
}

// Name returns the source name (usually the uploaded file name).
func (f *Frame) Name() string { return f.name }

// Shape returns rows and columns; it prints as "(rows, cols)".
func (f *Frame) Shape() Shape { return Shape{Rows: f.rows, Cols: len(f.cols)} }

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Columns returns the column names in order.
// Truncated reports whether rows past Options.MaxRows were dropped on read.
func (f *Frame) Truncated() bool { return f.truncated }

func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column resolves by name.
func (f *Frame) Has(name string) bool { return f.lookup(name) >= 0 }

// Col returns the named column. Lookup is exact first, then
// case-insensitive, then by name without its unit suffix. An unknown name
// panics, like indexing a missing key.
func (f *Frame) Col(name string) *Series {
	i := f.lookup(name)
	if i < 0 {
		panic(fmt.Sprintf("frame: column %q not found (available: %s)", name, strings.Join(f.Columns(), ", ")))
	}
	return f.cols[i]
}

func (f *Frame) lookup(name string) int {
	for i, c := range f.cols {
		if c.Name == name {
			return i
		}
	}
	for i, c := range f.cols {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	for i, c := range f.cols {
		if clean, _ := splitUnits(c.Name); strings.EqualFold(clean, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Row is a read-only view of one row.
type Row struct {
	f *Frame
	i int
}

// Index returns the row position within its frame.
func (r Row) Index() int { return r.i }

// Str returns the raw cell text.
func (r Row) Str(col string) string { return r.f.Col(col).Str(r.i) }

// Float returns the numeric cell value or NaN.
func (r Row) Float(col string) float64 { return r.f.Col(col).Float(r.i) }

// IsNA reports a missing cell.
func (r Row) IsNA(col string) bool { return r.f.Col(col).IsNA(r.i) }

// Row returns the i-th row.
func (f *Frame) Row(i int) Row {
	if i < 0 || i >= f.rows {
		panic(fmt.Sprintf("frame: row %d out of range [0,%d)", i, f.rows))
	}
	return Row{f: f, i: i}
}

func (f *Frame) take(idx []int) *Frame {
	cols := make([]*Series, len(f.cols))
	for j, c := range f.cols {
		cols[j] = c.take(idx)
	}
	return &Frame{name: f.name, cols: cols, rows: len(idx)}
}

func span(from, to int) []int {
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return idx
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	return f.take(span(0, n))
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.rows {
		n = f.rows
	}
	return f.take(span(f.rows-n, f.rows))
}

// Select keeps the named columns in the given order.
func (f *Frame) Select(names ...string) *Frame {
	cols := make([]*Series, 0, len(names))
	for _, n := range names {
		cols = append(cols, f.Col(n))
	}
	return &Frame{name: f.name, cols: cols, rows: f.rows}
}

// Filter keeps rows for which keep returns true.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	var idx []int
	for i := 0; i < f.rows; i++ {
		if keep(Row{f: f, i: i}) {
			idx = append(idx, i)
		}
	}
	return f.take(idx)
}

// DropNA removes rows with a missing value in any of the named columns, or
// in any column when none are named.
func (f *Frame) DropNA(names ...string) *Frame {
	cols := f.cols
	if len(names) > 0 {
		cols = make([]*Series, 0, len(names))
		for _, n := range names {
			cols = append(cols, f.Col(n))
		}
	}
	return f.Filter(func(r Row) bool {
		for _, c := range cols {
			if c.IsNA(r.i) {
				return false
			}
		}
		return true
	})
}

// SortBy orders rows by a column. Numeric columns compare by value, others
// lexically; missing values always sort last.
func (f *Frame) SortBy(name string, ascending bool) *Frame {
	c := f.Col(name)
	idx := span(0, f.rows)
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		na, nb := c.IsNA(ia), c.IsNA(ib)
		if na || nb {
			return !na && nb
		}
		if c.Kind == KindNumeric {
			x, y := c.nums[ia], c.nums[ib]
			if ascending {
				return x < y
			}
			return x > y
		}
		if ascending {
			return c.raw[ia] < c.raw[ib]
		}
		return c.raw[ia] > c.raw[ib]
	})
	return f.take(idx)
}

// WithColumn returns a copy of the frame with a numeric column added or
// replaced. len(values) must equal Len().
func (f *Frame) WithColumn(name string, values []float64) *Frame {
	if len(values) != f.rows {
		panic(fmt.Sprintf("frame: column %q has %d values, expected %d", name, len(values), f.rows))
	}
	s := NewNumeric(name, values)
	cols := make([]*Series, 0, len(f.cols)+1)
	replaced := false
	for _, c := range f.cols {
		if c.Name == name {
			cols = append(cols, s)
			replaced = true
			continue
		}
		cols = append(cols, c)
	}
	if !replaced {
		cols = append(cols, s)
	}
	return &Frame{name: f.name, cols: cols, rows: f.rows}
}

// Corr returns the Pearson correlation between two numeric columns over rows
// where both are present. NaN when undefined.
func (f *Frame) Corr(a, b string) float64 {
	return pearson(f.Col(a), f.Col(b))
}

func pearson(x, y *Series) float64 {
	var n, sx, sy, sxx, syy, sxy float64
	for i := 0; i < x.Len() && i < y.Len(); i++ {
		a, b := x.nums[i], y.nums[i]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		n++
		sx += a
		sy += b
		sxx += a * a
		syy += b * b
		sxy += a * b
	}
	if n < 2 {
		return math.NaN()
	}
	denom := math.Sqrt((n*sxx - sx*sx) * (n*syy - sy*sy))
	if denom == 0 {
		return math.NaN()
	}
	r := (n*sxy - sx*sy) / denom
	return math.Max(-1, math.Min(1, r))
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
