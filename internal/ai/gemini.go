package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GeminiClient generates through the Gemini API. The underlying genai client
// is created on first use.
type GeminiClient struct {
	apiKey string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey}
}

func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	system, contents := geminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	client, err := c.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	out := &GenerateResponse{
		ID:      "gemini-" + uuid.NewString(),
		Choices: []Choice{{Message: Message{Role: RoleAssistant, Content: resp.Text()}}},
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	out.RequestID = out.ID
	return out, nil
}

// geminiContents splits system messages off into one instruction and maps the
// remaining roles onto Gemini's user/model pair.
func geminiContents(msgs []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		if m.Role == RoleAssistant {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	return strings.Join(system, "\n\n"), contents
}
