package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/ai"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
)

// Responder answers conversational utterances.
type Responder struct {
	gen Generator
	log *zap.Logger
}

func NewResponder(gen Generator, log *zap.Logger) *Responder {
	return &Responder{gen: gen, log: logging.OrNop(log).Named("responder")}
}

// Respond returns the model reply, or an apology carrying the error text.
func (r *Responder) Respond(ctx context.Context, utterance string) string {
	text, err := r.gen.Generate(ctx, ai.Prompt{System: chatInstruction, Parts: []string{utterance}})
	if err != nil {
		r.log.Warn("chat generation failed", zap.Error(err))
		return fmt.Sprintf("Não foi possível gerar uma resposta de chat: %v", err)
	}
	return text
}
