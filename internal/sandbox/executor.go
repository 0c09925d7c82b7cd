// Package sandbox runs generated Go analysis code in an embedded interpreter
// whose only capabilities are the dataset, a small set of standard packages
// and the display handles.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"testing/fstest"
	"time"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/display"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/insight"
)

// maxStackLines bounds the interpreter stack attached to a panic diagnostic.
const maxStackLines = 30

// Result is the outcome of one execution. Diagnostic is empty on success.
// Output keeps whatever was printed before a fault.
type Result struct {
	Output     string
	Diagnostic string
	Artifacts  []display.Artifact
	// Insights are the conclusions recorded through ui.Insight, in order.
	Insights []string
	Elapsed  time.Duration
	// Err is the underlying fault, for callers that need errors.Is.
	Err error
}

// Failed reports whether execution produced a diagnostic.
func (r Result) Failed() bool { return r.Diagnostic != "" }

// Conclusions returns every insight of the run in output order. Marker lines
// in Output are the source, since ui.Insight prints one too; typed insights
// whose line did not make it into Output are appended.
func (r Result) Conclusions() []string {
	found := insight.Extract(r.Output)
	seen := make(map[string]int, len(found))
	for _, f := range found {
		seen[f]++
	}
	for _, in := range r.Insights {
		if seen[in] > 0 {
			seen[in]--
			continue
		}
		found = append(found, in)
	}
	return found
}

// Executor evaluates analysis code. The zero value has no timeout and no
// logging.
type Executor struct {
	timeout time.Duration
	log     *zap.Logger
}

// New returns an Executor with a wall-clock budget per execution (0 disables it).
func New(timeout time.Duration, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{timeout: timeout, log: log}
}

// Execute runs code once against ds. It never panics and reports every fault
// through Result.Diagnostic.
func (e *Executor) Execute(ctx context.Context, code string, ds *frame.Frame) (res Result) {
	start := time.Now()
	out := &syncBuffer{}
	rec := display.NewRecorder()
	log := e.logger()

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
			res.Diagnostic = formatPanic(r, debug.Stack())
		}
		res.Output = out.String()
		res.Artifacts = rec.Artifacts()
		res.Insights = rec.Insights()
		res.Elapsed = time.Since(start)
		log.Debug("execution finished",
			zap.Duration("elapsed", res.Elapsed),
			zap.Int("output_bytes", len(res.Output)),
			zap.Int("artifacts", len(res.Artifacts)),
			zap.Bool("failed", res.Failed()))
	}()

	prog, err := prepare(code)
	if err != nil {
		log.Info("execution refused", zap.Error(err))
		res.Err = err
		res.Diagnostic = err.Error()
		return res
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	i := interp.New(interp.Options{
		Stdout:               out,
		Stderr:               out,
		SourcecodeFilesystem: fstest.MapFS{},
	})
	if err := i.Use(stdSymbols); err != nil {
		res.Err = fmt.Errorf("load stdlib: %w", err)
		res.Diagnostic = res.Err.Error()
		return res
	}
	if err := i.Use(handleSymbols(ds, rec, out)); err != nil {
		res.Err = fmt.Errorf("load handles: %w", err)
		res.Diagnostic = res.Err.Error()
		return res
	}
	if _, err := i.EvalWithContext(ctx, prelude()); err != nil {
		res.Err = fmt.Errorf("prelude: %w", err)
		res.Diagnostic = res.Err.Error()
		return res
	}
	if _, err := i.EvalWithContext(ctx, "var df = frame.Current()"); err != nil {
		res.Err = fmt.Errorf("bind df: %w", err)
		res.Diagnostic = res.Err.Error()
		return res
	}

	chunks, call := prog.source()
	for _, src := range chunks {
		if _, err := i.EvalWithContext(ctx, src); err != nil {
			res.Err = err
			res.Diagnostic = e.diagnose(ctx, err, "erro de compilação")
			return res
		}
	}
	if _, err := i.EvalWithContext(ctx, call); err != nil {
		res.Err = err
		res.Diagnostic = e.diagnose(ctx, err, "erro de execução")
		return res
	}
	return res
}

func (e *Executor) logger() *zap.Logger {
	if e.log == nil {
		return zap.NewNop()
	}
	return e.log
}

func (e *Executor) diagnose(ctx context.Context, err error, kind string) string {
	var p interp.Panic
	switch {
	case errors.As(err, &p):
		return formatPanic(p.Value, p.Stack)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("tempo limite de execução excedido (%s)", e.timeout)
	case errors.Is(err, context.Canceled):
		return "execução cancelada"
	default:
		return fmt.Sprintf("%s: %v", kind, err)
	}
}

func formatPanic(v any, stack []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "panic: %v", v)
	if len(stack) > 0 {
		lines := strings.Split(strings.TrimSpace(string(stack)), "\n")
		if len(lines) > maxStackLines {
			lines = append(lines[:maxStackLines], "...")
		}
		b.WriteString("\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}

// syncBuffer is written by interpreted goroutines that may outlive a timed
// out execution.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
