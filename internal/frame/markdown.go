package frame

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

const maxCell = 80

// Markdown renders the whole frame as a pipe table. Callers wanting a preview
// should call Head first.
func (f *Frame) Markdown() string {
	var b strings.Builder
	b.WriteString("| ")
	for i, c := range f.cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(safeName(c.Name)))
	}
	b.WriteString(" |\n| ")
	for i := range f.cols {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for r := 0; r < f.rows; r++ {
		b.WriteString("| ")
		for i, c := range f.cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(truncate(c.raw[r])))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// String prints up to 20 rows aligned in columns, followed by the frame size.
func (f *Frame) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "\t")
	for _, c := range f.cols {
		fmt.Fprintf(tw, "%s\t", c.Name)
	}
	fmt.Fprintln(tw)
	lim := f.rows
	if lim > 20 {
		lim = 20
	}
	for r := 0; r < lim; r++ {
		fmt.Fprintf(tw, "%d\t", r)
		for _, c := range f.cols {
			v := c.raw[r]
			if c.IsNA(r) {
				v = "NaN"
			}
			fmt.Fprintf(tw, "%s\t", truncate(v))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	if lim < f.rows {
		b.WriteString("...\n")
	}
	fmt.Fprintf(&b, "[%d rows x %d columns]", f.rows, len(f.cols))
	return b.String()
}

func truncate(v string) string {
	if len(v) > maxCell {
		return v[:maxCell-3] + "..."
	}
	return v
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
