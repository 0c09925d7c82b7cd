package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/KaramelBytes/datachat-cli/internal/display"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/orchestrator"
	"github.com/KaramelBytes/datachat-cli/internal/session"
)

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var titleStyle = lipgloss.NewStyle().Bold(true)

// printer writes turn events to a terminal. Markdown is rendered through
// glamour unless colour output is disabled, in which case it is printed raw.
type printer struct {
	w  io.Writer
	md *glamour.TermRenderer
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if color.NoColor {
		return p
	}
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
		p.md = r
	}
	return p
}

func (p *printer) markdown(text string) {
	if p.md != nil {
		if out, err := p.md.Render(text); err == nil {
			fmt.Fprint(p.w, out)
			return
		}
	}
	fmt.Fprintln(p.w, text)
}

func (p *printer) box(title, body string) {
	body = strings.TrimRight(body, "\n")
	if title != "" {
		body = titleStyle.Render(title) + "\n" + body
	}
	fmt.Fprintln(p.w, boxStyle.Render(body))
}

func (p *printer) artifact(a display.Artifact) {
	switch a.Kind {
	case display.KindChart:
		p.box(a.Title, a.Body)
	default:
		if a.Title != "" {
			p.markdown("**" + a.Title + "**\n\n" + a.Body)
			return
		}
		p.markdown(a.Body)
	}
}

func (p *printer) event(ev orchestrator.Event) {
	switch ev.Kind {
	case orchestrator.EventCode:
		p.markdown("```go\n" + ev.Text + "\n```")
	case orchestrator.EventOutput:
		p.box("Saída", ev.Text)
	case orchestrator.EventArtifact:
		if ev.Artifact != nil {
			p.artifact(*ev.Artifact)
		}
	case orchestrator.EventDiagnostic:
		fmt.Fprint(p.w, failMark, " ")
		p.markdown(ev.Text)
	default:
		p.markdown(ev.Text)
	}
}

func (p *printer) reply(r orchestrator.Reply) {
	for _, ev := range r.Events {
		p.event(ev)
	}
}

// loadDataset reads path into s, reporting whether the dataset changed.
// warnTruncated tells the user that --max-rows cut the dataset short.
func warnTruncated(w io.Writer, df *frame.Frame) {
	if df.Truncated() {
		fmt.Fprintf(w, "%s %s truncated to %d rows (raise --max-rows to load more)\n", warnMark, df.Name(), df.Len())
	}
}

func loadDataset(s *session.Session, path string, opt frame.Options) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat dataset: %w", err)
	}
	return s.Load(filepath.Base(path), info.Size(), f, opt)
}
