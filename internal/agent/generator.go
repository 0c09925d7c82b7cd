package agent

import (
	"context"

	"github.com/KaramelBytes/datachat-cli/internal/ai"
)

// Generator is the model surface the agents need; *ai.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, p ai.Prompt) (string, error)
}
