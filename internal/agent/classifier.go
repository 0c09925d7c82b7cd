package agent

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datachat-cli/internal/ai"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
)

// Intent is the route chosen for an utterance.
type Intent string

const (
	IntentAnalysis Intent = "analysis"
	IntentChat     Intent = "chat"
)

var analysisKeywords = []string{"analis", "plot", "gráfico", "grafico", "describe", "correla", "hist", "box", "scatter"}

// Classifier routes utterances to analysis or chat.
type Classifier struct {
	gen  Generator
	memo *cache.Cache
	log  *zap.Logger
}

// NewClassifier memoises model decisions for ttl; ttl <= 0 disables the memo.
func NewClassifier(gen Generator, ttl time.Duration, log *zap.Logger) *Classifier {
	c := &Classifier{gen: gen, log: logging.OrNop(log).Named("classifier")}
	if ttl > 0 {
		c.memo = cache.New(ttl, 2*ttl)
	}
	return c
}

// Classify never fails: a model error yields chat, an ambiguous answer falls
// back to keyword matching.
func (c *Classifier) Classify(ctx context.Context, utterance string) Intent {
	key := normalize(utterance)
	if c.memo != nil {
		if v, ok := c.memo.Get(key); ok {
			return v.(Intent)
		}
	}
	text, err := c.gen.Generate(ctx, ai.Prompt{Parts: []string{classifyPrompt(utterance)}})
	if err != nil {
		c.log.Warn("classification failed, using chat", zap.Error(err))
		return IntentChat
	}
	intent, ok := parseLabel(text)
	if !ok {
		intent = keywordIntent(utterance)
		c.log.Debug("ambiguous label, keyword fallback", zap.String("label", text), zap.String("intent", string(intent)))
		return intent
	}
	if c.memo != nil {
		c.memo.SetDefault(key, intent)
	}
	return intent
}

// parseLabel accepts an answer that mentions exactly one of the two labels.
func parseLabel(text string) (Intent, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	analysis := strings.Contains(t, string(IntentAnalysis))
	chat := strings.Contains(t, string(IntentChat))
	switch {
	case analysis && !chat:
		return IntentAnalysis, true
	case chat && !analysis:
		return IntentChat, true
	}
	return "", false
}

func keywordIntent(utterance string) Intent {
	u := strings.ToLower(utterance)
	for _, k := range analysisKeywords {
		if strings.Contains(u, k) {
			return IntentAnalysis
		}
	}
	return IntentChat
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
