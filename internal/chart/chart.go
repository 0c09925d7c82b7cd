// Package chart draws small text charts for terminal and websocket output.
package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind identifies the chart type.
type Kind string

const (
	KindBar  Kind = "bar"
	KindHist Kind = "hist"
	KindLine Kind = "line"
	KindBox  Kind = "box"
)

// Width is the number of cells used by the longest bar.
const Width = 40

// Chart is an immutable chart description; Render draws it.
type Chart struct {
	Kind   Kind
	Title  string
	Labels []string
	Values []float64
	Bins   int
}

// Bar draws one horizontal bar per label. Missing labels are numbered.
func Bar(title string, labels []string, values []float64) *Chart {
	l := make([]string, len(values))
	for i := range values {
		if i < len(labels) {
			l[i] = labels[i]
		} else {
			l[i] = fmt.Sprint(i)
		}
	}
	return &Chart{Kind: KindBar, Title: title, Labels: l, Values: clone(values)}
}

// Hist draws a histogram of values with the given number of equal-width bins
// (10 when bins <= 0).
func Hist(title string, values []float64, bins int) *Chart {
	if bins <= 0 {
		bins = 10
	}
	return &Chart{Kind: KindHist, Title: title, Values: clone(values), Bins: bins}
}

// Line draws values in order as a sparkline.
func Line(title string, values []float64) *Chart {
	return &Chart{Kind: KindLine, Title: title, Values: clone(values)}
}

// Box draws a five-number summary of values.
func Box(title string, values []float64) *Chart {
	return &Chart{Kind: KindBox, Title: title, Values: clone(values)}
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// Render returns the chart as plain text.
func (c *Chart) Render() string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Title)
		b.WriteString("\n")
	}
	vals := finite(c.Values)
	if len(vals) == 0 {
		b.WriteString("(sem dados)\n")
		return b.String()
	}
	switch c.Kind {
	case KindBar:
		renderBars(&b, c.Labels, c.Values)
	case KindHist:
		labels, counts := histogram(vals, c.Bins)
		renderBars(&b, labels, counts)
	case KindLine:
		renderLine(&b, c.Values)
	case KindBox:
		renderBox(&b, vals)
	default:
		fmt.Fprintf(&b, "(unsupported chart kind %q)\n", c.Kind)
	}
	return b.String()
}

func (c *Chart) String() string { return c.Render() }

func finite(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func renderBars(b *strings.Builder, labels []string, values []float64) {
	lw := 0
	for _, l := range labels {
		lw = max(lw, lipgloss.Width(l))
	}
	peak := 0.0
	for _, v := range finite(values) {
		peak = math.Max(peak, math.Abs(v))
	}
	for i, v := range values {
		label := labels[i]
		pad := strings.Repeat(" ", lw-lipgloss.Width(label))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fmt.Fprintf(b, "%s%s │ NaN\n", label, pad)
			continue
		}
		n := 0
		if peak > 0 {
			n = int(math.Round(math.Abs(v) / peak * Width))
		}
		fmt.Fprintf(b, "%s%s │%s %s\n", label, pad, strings.Repeat("█", n), fmtNum(v))
	}
}

func histogram(vals []float64, bins int) ([]string, []float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []string{fmtNum(lo)}, []float64{float64(len(vals))}
	}
	step := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	for _, v := range vals {
		k := int((v - lo) / step)
		if k >= bins {
			k = bins - 1
		}
		counts[k]++
	}
	labels := make([]string, bins)
	for k := range labels {
		a := lo + float64(k)*step
		closing := ")"
		if k == bins-1 {
			closing = "]"
		}
		labels[k] = fmt.Sprintf("[%s, %s%s", fmtNum(a), fmtNum(a+step), closing)
	}
	return labels, counts
}

var sparks = []rune("▁▂▃▄▅▆▇█")

func renderLine(b *strings.Builder, values []float64) {
	vals := finite(values)
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteRune(' ')
			continue
		}
		k := 0
		if hi > lo {
			k = int(math.Round((v - lo) / (hi - lo) * float64(len(sparks)-1)))
		}
		b.WriteRune(sparks[k])
	}
	fmt.Fprintf(b, "\nmin %s  max %s  n=%d\n", fmtNum(lo), fmtNum(hi), len(vals))
}

func renderBox(b *strings.Builder, vals []float64) {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	q := func(p float64) float64 {
		pos := p * float64(len(s)-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		w := pos - float64(lo)
		return s[lo]*(1-w) + s[hi]*w
	}
	lo, q1, med, q3, hi := s[0], q(0.25), q(0.5), q(0.75), s[len(s)-1]

	line := []rune(strings.Repeat(" ", Width+1))
	pos := func(v float64) int {
		if hi == lo {
			return Width / 2
		}
		return int(math.Round((v - lo) / (hi - lo) * Width))
	}
	for i := pos(lo); i <= pos(hi); i++ {
		line[i] = '─'
	}
	for i := pos(q1); i <= pos(q3); i++ {
		line[i] = '█'
	}
	line[pos(lo)] = '├'
	line[pos(hi)] = '┤'
	line[pos(med)] = '┃'
	b.WriteString(string(line))
	fmt.Fprintf(b, "\nmin %s  q1 %s  median %s  q3 %s  max %s  n=%d\n",
		fmtNum(lo), fmtNum(q1), fmtNum(med), fmtNum(q3), fmtNum(hi), len(s))
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
