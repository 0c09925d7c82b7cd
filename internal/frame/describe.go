package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SummaryOptions tunes Summarize.
type SummaryOptions struct {
	// GroupBy names a categorical column for a per-group section; empty disables it.
	GroupBy   string
	MaxGroups int
	// TopValues is the number of categories listed per categorical column.
	TopValues int
	// OutlierZ is the robust |z| threshold; 0 disables outlier counting.
	OutlierZ   float64
	TopPairs   int
	SampleRows int
}

// DefaultSummaryOptions is what Describe uses.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{MaxGroups: 20, TopValues: 5, OutlierZ: 3.5, TopPairs: 10, SampleRows: 5}
}

// Summary is a compact profile of a frame suitable for prompts and terminals.
type Summary struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Groups   []GroupSummary
	Pairs    []PairCorr
	Sample   *Frame
	Warnings []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	Unit    string
	NonNull int
	Missing int
	Unique  int

	Min, Max, Mean, Std float64

	// robust z via MAD
	OutliersCount   int
	OutliersMaxAbsZ float64

	TopValues    []ValueCount
	ExampleTexts []string
}

// GroupSummary holds per-group means of numeric columns.
type GroupSummary struct {
	Key   string
	Size  int
	Means map[string]float64
}

// Summarize profiles every column of f.
func Summarize(f *Frame, opt SummaryOptions) *Summary {
	def := DefaultSummaryOptions()
	if opt.MaxGroups <= 0 {
		opt.MaxGroups = def.MaxGroups
	}
	if opt.TopValues <= 0 {
		opt.TopValues = def.TopValues
	}
	if opt.OutlierZ < 0 {
		opt.OutlierZ = 0
	}
	if opt.TopPairs <= 0 {
		opt.TopPairs = def.TopPairs
	}
	if opt.SampleRows < 0 {
		opt.SampleRows = 0
	}

	s := &Summary{Name: f.name, Rows: f.rows}
	for _, c := range f.cols {
		cs := ColumnSummary{Name: c.Name, Kind: c.Kind, Unit: c.Unit, NonNull: c.Count(), Missing: c.Missing()}
		cs.Unique = len(c.Unique())
		switch c.Kind {
		case KindNumeric:
			cs.Min, cs.Max, cs.Mean, cs.Std = c.Min(), c.Max(), c.Mean(), c.Std()
			if opt.OutlierZ > 0 {
				cs.OutliersCount, cs.OutliersMaxAbsZ = robustOutliers(c.Floats(), opt.OutlierZ)
			}
		case KindCategorical:
			vc := c.ValueCounts()
			if len(vc) > opt.TopValues {
				vc = vc[:opt.TopValues]
			}
			cs.TopValues = vc
		case KindText:
			for _, v := range c.Unique() {
				if len(cs.ExampleTexts) == 3 {
					break
				}
				cs.ExampleTexts = append(cs.ExampleTexts, truncate(v))
			}
		}
		if cs.NonNull == 0 {
			s.Warnings = append(s.Warnings, fmt.Sprintf("column %q is entirely empty", c.Name))
		}
		s.Cols = append(s.Cols, cs)
	}
	s.Pairs = f.TopCorrelations(opt.TopPairs)

	if opt.GroupBy != "" && f.Has(opt.GroupBy) {
		g := f.GroupBy(opt.GroupBy)
		keys := g.Keys()
		if len(keys) > opt.MaxGroups {
			s.Warnings = append(s.Warnings, fmt.Sprintf("group-by %q has %d groups; showing the first %d", opt.GroupBy, len(keys), opt.MaxGroups))
			keys = keys[:opt.MaxGroups]
		}
		for _, k := range keys {
			sub := g.Get(k)
			gs := GroupSummary{Key: k, Size: sub.rows, Means: map[string]float64{}}
			for _, c := range sub.cols {
				if c.Kind == KindNumeric && c.Name != g.key {
					gs.Means[c.Name] = c.Mean()
				}
			}
			s.Groups = append(s.Groups, gs)
		}
	} else if opt.GroupBy != "" {
		s.Warnings = append(s.Warnings, fmt.Sprintf("group-by column %q not found", opt.GroupBy))
	}
	if opt.SampleRows > 0 {
		s.Sample = f.Head(opt.SampleRows)
	}
	return s
}

// Describe returns the markdown summary report with default options.
func (f *Frame) Describe() string {
	return Summarize(f, DefaultSummaryOptions()).Markdown()
}

func robustOutliers(vals []float64, threshold float64) (count int, maxAbsZ float64) {
	if len(vals) < 3 {
		return 0, 0
	}
	med, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		z := 0.6745 * (v - med) / mad
		if az := math.Abs(z); az > threshold {
			count++
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return count, maxAbsZ
}

// Markdown renders the summary in bracketed sections.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", s.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)
	fmt.Fprintf(&b, "Columns: %d\n\n", len(s.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" && !strings.Contains(name, c.Unit) {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case KindNumeric:
			if c.NonNull > 0 {
				fmt.Fprintf(&b, "; min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean)
				if !math.IsNaN(c.Std) {
					fmt.Fprintf(&b, ", std %.4g", c.Std)
				}
			}
			if c.OutliersCount > 0 {
				fmt.Fprintf(&b, "; outliers: %d (max |z|≈%.2f)", c.OutliersCount, c.OutliersMaxAbsZ)
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(s.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range s.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", safeVal(g.Key), g.Size)
			keys := make([]string, 0, len(g.Means))
			for k := range g.Means {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				fmt.Fprintf(&b, "  • %s: mean %.4g\n", k, g.Means[k])
			}
		}
	}

	if len(s.Pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range s.Pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if s.Sample != nil && s.Sample.rows > 0 {
		b.WriteString("\n[HEAD]\n")
		b.WriteString(s.Sample.Markdown())
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
