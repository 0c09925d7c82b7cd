package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/ai"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
	"github.com/KaramelBytes/datachat-cli/internal/utils"
)

// Synthesizer turns an analysis request into Go statements over df.
type Synthesizer struct {
	gen         Generator
	sampleLimit int
	log         *zap.Logger
}

// NewSynthesizer caps the embedded sample at sampleTokens (<= 0: no cap).
func NewSynthesizer(gen Generator, sampleTokens int, log *zap.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, sampleLimit: sampleTokens, log: logging.OrNop(log).Named("synthesizer")}
}

// Synthesize never fails: on model error or an empty answer the fallback
// snippet is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, utterance, sample string) string {
	sample = utils.TruncateToTokenLimit(sample, s.sampleLimit)
	p := ai.Prompt{System: synthesizeSystem(), Parts: synthesizeParts(utterance, sample)}
	if ce := s.log.Check(zap.DebugLevel, "synthesize"); ce != nil {
		ce.Write(zap.Any("tokens", utils.TokenBreakdown(map[string]string{
			"system": p.System,
			"sample": sample,
			"task":   utterance,
		})))
	}
	text, err := s.gen.Generate(ctx, p)
	if err != nil {
		s.log.Warn("code generation failed, using fallback", zap.Error(err))
		return fallbackCode
	}
	code := StripFences(text)
	if strings.TrimSpace(code) == "" {
		s.log.Warn("empty code from model, using fallback")
		return fallbackCode
	}
	return code
}

// StripFences removes an accidental markdown fence around the whole answer
// and a leading language line. Fences in the middle are left alone.
func StripFences(text string) string {
	code := strings.TrimSpace(text)
	if strings.HasPrefix(code, "```") {
		code = strings.Trim(code, "`")
	}
	first, rest, found := strings.Cut(code, "\n")
	switch strings.ToLower(strings.TrimSpace(first)) {
	case "go", "golang":
		if !found {
			return ""
		}
		code = rest
	}
	return strings.TrimSpace(code)
}
