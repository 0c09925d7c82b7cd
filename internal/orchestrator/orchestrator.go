// Package orchestrator runs one conversational turn: memory commands,
// intent routing, and the synthesize/patch/execute/extract loop.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/agent"
	"github.com/KaramelBytes/datachat-cli/internal/display"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/insight"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
	"github.com/KaramelBytes/datachat-cli/internal/sandbox"
	"github.com/KaramelBytes/datachat-cli/internal/session"
)

// Assistant messages.
const (
	MsgNoDataset  = "Envie um arquivo CSV para começar a análise."
	MsgExecError  = "Ocorreu um erro na execução:"
	MsgOutputNote = "Resultado da análise exibido e gráficos renderizados acima."
	MsgSuccess    = "Análise executada com sucesso."
	MsgNoOutput   = "Análise executada sem saída textual."
)

const defaultSampleRows = 20

type Classifier interface {
	Classify(ctx context.Context, utterance string) agent.Intent
}

type Responder interface {
	Respond(ctx context.Context, utterance string) string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, utterance, sample string) string
}

type Executor interface {
	Execute(ctx context.Context, code string, ds *frame.Frame) sandbox.Result
}

// EventKind tags a render event.
type EventKind string

const (
	EventMessage    EventKind = "message"
	EventCode       EventKind = "code"
	EventOutput     EventKind = "output"
	EventArtifact   EventKind = "artifact"
	EventDiagnostic EventKind = "diagnostic"
)

// Event is one item the front-end renders, in order.
type Event struct {
	Kind     EventKind         `json:"type"`
	Role     string            `json:"role,omitempty"`
	Text     string            `json:"text,omitempty"`
	Artifact *display.Artifact `json:"artifact,omitempty"`
}

// Reply is the outcome of a turn.
type Reply struct {
	TurnID   string       `json:"turn"`
	Intent   agent.Intent `json:"intent,omitempty"`
	Events   []Event      `json:"events"`
	Insights []string     `json:"insights,omitempty"`
}

// Messages returns the text of assistant message events.
func (r Reply) Messages() []string {
	var out []string
	for _, ev := range r.Events {
		if ev.Kind == EventMessage {
			out = append(out, ev.Text)
		}
	}
	return out
}

type Deps struct {
	Classifier  Classifier
	Responder   Responder
	Synthesizer Synthesizer
	Executor    Executor
}

type Options struct {
	SampleRows int
	Logger     *zap.Logger
}

type Orchestrator struct {
	deps Deps
	opt  Options
	log  *zap.Logger
}

func New(deps Deps, opt Options) *Orchestrator {
	if opt.SampleRows <= 0 {
		opt.SampleRows = defaultSampleRows
	}
	return &Orchestrator{deps: deps, opt: opt, log: logging.OrNop(opt.Logger).Named("turn")}
}

// turn accumulates events and mirrors assistant messages into the transcript.
type turn struct {
	s     *session.Session
	reply Reply
}

func (t *turn) emit(ev Event) { t.reply.Events = append(t.reply.Events, ev) }

func (t *turn) say(kind EventKind, text string) {
	t.s.Append(session.RoleAssistant, text)
	t.emit(Event{Kind: kind, Role: session.RoleAssistant, Text: text})
}

// Turn processes one user utterance against s. It never fails; every
// problem becomes an assistant message.
func (o *Orchestrator) Turn(ctx context.Context, s *session.Session, utterance string) Reply {
	start := time.Now()
	t := &turn{s: s, reply: Reply{TurnID: uuid.NewString()}}
	log := o.log.With(zap.String("session", s.ID), zap.String("turn", t.reply.TurnID))

	s.Append(session.RoleUser, utterance)

	if IsMemoryCommand(utterance) {
		t.say(EventMessage, MemoryReply(s.Insights()))
		log.Info("memory command", zap.Duration("elapsed", time.Since(start)))
		return t.reply
	}

	intent := o.deps.Classifier.Classify(ctx, utterance)
	t.reply.Intent = intent
	if intent != agent.IntentAnalysis {
		t.say(EventMessage, o.deps.Responder.Respond(ctx, utterance))
		log.Info("chat turn", zap.Duration("elapsed", time.Since(start)))
		return t.reply
	}

	ds := s.Data()
	if ds == nil {
		t.say(EventMessage, MsgNoDataset)
		log.Info("analysis without dataset")
		return t.reply
	}
	o.analyze(ctx, t, ds, utterance, log)
	log.Info("analysis turn",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("events", len(t.reply.Events)),
		zap.Int("insights", len(t.reply.Insights)))
	return t.reply
}

func (o *Orchestrator) analyze(ctx context.Context, t *turn, ds *frame.Frame, utterance string, log *zap.Logger) {
	sample := ds.Head(o.opt.SampleRows).Markdown()

	synthStart := time.Now()
	code := insight.Patch(o.deps.Synthesizer.Synthesize(ctx, utterance, sample))
	synthesis := time.Since(synthStart)
	t.s.SetLastCode(code)
	t.emit(Event{Kind: EventCode, Role: session.RoleAssistant, Text: code})

	res := o.deps.Executor.Execute(ctx, code, ds)
	log.Debug("code executed",
		zap.Duration("synthesis", synthesis),
		zap.Duration("execution", res.Elapsed),
		zap.Bool("failed", res.Failed()))

	for i := range res.Artifacts {
		a := res.Artifacts[i]
		t.emit(Event{Kind: EventArtifact, Role: session.RoleAssistant, Artifact: &a})
	}

	if res.Failed() {
		t.say(EventDiagnostic, fmt.Sprintf("%s\n\n```text\n%s\n```", MsgExecError, res.Diagnostic))
		return
	}

	if strings.TrimSpace(res.Output) == "" {
		if len(res.Artifacts) > 0 {
			t.s.Append(session.RoleAssistant, MsgOutputNote)
		}
		t.say(EventMessage, MsgNoOutput)
		return
	}

	t.emit(Event{Kind: EventOutput, Role: session.RoleAssistant, Text: res.Output})
	t.s.Append(session.RoleAssistant, MsgOutputNote)

	found := res.Conclusions()
	if len(found) == 0 {
		t.say(EventMessage, MsgSuccess)
		return
	}
	t.s.AddInsights(found...)
	t.reply.Insights = found
	t.say(EventMessage, insightsRecorded(len(found)))
}

func insightsRecorded(n int) string {
	noun := "conclusões"
	if n == 1 {
		noun = "conclusão"
	}
	return fmt.Sprintf("✅ %d %s registrada(s) na memória!", n, noun)
}
