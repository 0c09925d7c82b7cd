package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Prompt is a system instruction plus ordered user fragments.
type Prompt struct {
	System string
	Parts  []string
}

// Messages renders the prompt as chat messages: system first, then one user
// message per non-empty part.
func (p Prompt) Messages() []Message {
	msgs := make([]Message, 0, len(p.Parts)+1)
	if s := strings.TrimSpace(p.System); s != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: s})
	}
	for _, part := range p.Parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		msgs = append(msgs, Message{Role: RoleUser, Content: part})
	}
	return msgs
}

// GatewayOptions tunes generation.
type GatewayOptions struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// Gateway is the single entry point the assistant uses to reach a model.
type Gateway struct {
	runtime Runtime
	opt     GatewayOptions
	log     *zap.Logger
}

func NewGateway(rt Runtime, opt GatewayOptions) *Gateway {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{runtime: rt, opt: opt, log: log.Named("gateway")}
}

// Model returns the configured model name.
func (g *Gateway) Model() string { return g.opt.Model }

// Generate sends the prompt and returns the trimmed text of the first choice.
// An empty answer is returned as "" without error.
func (g *Gateway) Generate(ctx context.Context, p Prompt) (string, error) {
	if g.runtime == nil {
		return "", errors.New("no model runtime configured")
	}
	msgs := p.Messages()
	if len(msgs) == 0 {
		return "", errors.New("empty prompt")
	}
	start := time.Now()
	resp, err := g.runtime.Generate(ctx, GenerateRequest{
		Model:       g.opt.Model,
		Messages:    msgs,
		MaxTokens:   g.opt.MaxTokens,
		Temperature: g.opt.Temperature,
	})
	fields := []zap.Field{
		zap.String("provider", g.opt.Provider),
		zap.String("model", g.opt.Model),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		g.log.Debug("generate failed", append(fields, zap.Error(err))...)
		return "", err
	}
	fields = append(fields,
		zap.String("request_id", resp.RequestID),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	if cost, ok := EstimateCostUSD(g.opt.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		fields = append(fields, zap.Float64("cost_usd", cost))
	}
	g.log.Debug("generate", fields...)
	return strings.TrimSpace(resp.Text()), nil
}
