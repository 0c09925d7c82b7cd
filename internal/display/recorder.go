// Package display collects the artifacts (tables, charts, markdown) that
// analysis code asks the front-end to render.
package display

import (
	"strings"
	"sync"

	"github.com/KaramelBytes/datachat-cli/internal/chart"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
)

// Kind is the artifact type.
type Kind string

const (
	KindTable    Kind = "table"
	KindChart    Kind = "chart"
	KindMarkdown Kind = "markdown"
)

// maxTableRows bounds tables rendered from a frame.
const maxTableRows = 50

// Artifact is one rendered display item. Body is markdown for tables and
// markdown artifacts and plain text for charts.
type Artifact struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

// Recorder keeps artifacts in the order they were produced. It is safe for
// use by interpreted goroutines.
type Recorder struct {
	mu       sync.Mutex
	items    []Artifact
	insights []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(a Artifact) {
	r.mu.Lock()
	r.items = append(r.items, a)
	r.mu.Unlock()
}

// Table records the frame as a markdown table, truncated to the first rows.
func (r *Recorder) Table(f *frame.Frame) {
	if f == nil {
		return
	}
	body := f.Head(maxTableRows).Markdown()
	title := ""
	if f.Len() > maxTableRows {
		title = f.Shape().String()
	}
	r.add(Artifact{Kind: KindTable, Title: title, Body: body})
}

// Plot records a chart.
func (r *Recorder) Plot(c *chart.Chart) {
	if c == nil {
		return
	}
	r.add(Artifact{Kind: KindChart, Title: c.Title, Body: c.Render()})
}

// Markdown records free-form markdown.
func (r *Recorder) Markdown(text string) {
	r.add(Artifact{Kind: KindMarkdown, Body: text})
}

// Insight records one conclusion. Blank text is ignored.
func (r *Recorder) Insight(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.mu.Lock()
	r.insights = append(r.insights, text)
	r.mu.Unlock()
}

// Insights returns the recorded conclusions in order.
func (r *Recorder) Insights() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.insights...)
}

// Artifacts returns a copy of everything recorded so far.
func (r *Recorder) Artifacts() []Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Artifact, len(r.items))
	copy(out, r.items)
	return out
}
