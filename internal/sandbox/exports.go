package sandbox

import (
	"fmt"
	"io"
	"path"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/KaramelBytes/datachat-cli/internal/chart"
	"github.com/KaramelBytes/datachat-cli/internal/display"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/insight"
)

// stdSymbols is the subset of the interpreter's standard library that
// analysis code can see. Packages outside the list do not exist for it.
var stdSymbols = func() interp.Exports {
	out := interp.Exports{}
	for key, syms := range stdlib.Symbols {
		if allowed(path.Dir(key)) {
			out[key] = syms
		}
	}
	return out
}()

// handleSymbols binds the frame, chart and ui packages for one execution.
// ui.Insight records a typed conclusion and echoes the marker line to out.
func handleSymbols(ds *frame.Frame, rec *display.Recorder, out io.Writer) interp.Exports {
	recordInsight := func(text string) {
		rec.Insight(text)
		fmt.Fprintln(out, insight.Marker, strings.TrimSpace(text))
	}
	return interp.Exports{
		framePath + "/frame": {
			"Current":         reflect.ValueOf(func() *frame.Frame { return ds }),
			"New":             reflect.ValueOf(frame.New),
			"NewNumeric":      reflect.ValueOf(frame.NewNumeric),
			"NewText":         reflect.ValueOf(frame.NewText),
			"Summarize":       reflect.ValueOf(frame.Summarize),
			"KindNumeric":     reflect.ValueOf(frame.KindNumeric),
			"KindDatetime":    reflect.ValueOf(frame.KindDatetime),
			"KindCategorical": reflect.ValueOf(frame.KindCategorical),
			"KindText":        reflect.ValueOf(frame.KindText),
			"KindUnknown":     reflect.ValueOf(frame.KindUnknown),

			"Frame":          reflect.ValueOf((*frame.Frame)(nil)),
			"Series":         reflect.ValueOf((*frame.Series)(nil)),
			"Row":            reflect.ValueOf((*frame.Row)(nil)),
			"Shape":          reflect.ValueOf((*frame.Shape)(nil)),
			"Kind":           reflect.ValueOf((*frame.Kind)(nil)),
			"Grouping":       reflect.ValueOf((*frame.Grouping)(nil)),
			"ValueCount":     reflect.ValueOf((*frame.ValueCount)(nil)),
			"PairCorr":       reflect.ValueOf((*frame.PairCorr)(nil)),
			"Summary":        reflect.ValueOf((*frame.Summary)(nil)),
			"SummaryOptions": reflect.ValueOf((*frame.SummaryOptions)(nil)),
		},
		chartPath + "/chart": {
			"Bar":  reflect.ValueOf(chart.Bar),
			"Hist": reflect.ValueOf(chart.Hist),
			"Line": reflect.ValueOf(chart.Line),
			"Box":  reflect.ValueOf(chart.Box),

			"Chart": reflect.ValueOf((*chart.Chart)(nil)),
			"Kind":  reflect.ValueOf((*chart.Kind)(nil)),
		},
		uiPath + "/ui": {
			"Table":    reflect.ValueOf(rec.Table),
			"Plot":     reflect.ValueOf(rec.Plot),
			"Markdown": reflect.ValueOf(rec.Markdown),
			"Insight":  reflect.ValueOf(recordInsight),
		},
	}
}
