package ai

import "sort"

// Model metadata and simple pricing helpers for usage logging.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	ContextTokens int     `json:"context_tokens"`         // approximate context window
	InputPerK     float64 `json:"input_per_k,omitempty"`  // USD per 1K input tokens
	OutputPerK    float64 `json:"output_per_k,omitempty"` // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gemini-2.0-flash-lite": {Name: "gemini-2.0-flash-lite", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.000075, OutputPerK: 0.0003},
	"gemini-2.0-flash":      {Name: "gemini-2.0-flash", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.0001, OutputPerK: 0.0004},
	"gemini-2.5-flash":      {Name: "gemini-2.5-flash", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
	"gemini-2.5-pro":        {Name: "gemini-2.5-pro", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.00125, OutputPerK: 0.01},
	// OpenRouter
	"google/gemini-2.0-flash-lite-001": {Name: "google/gemini-2.0-flash-lite-001", Provider: ProviderOpenRouter, ContextTokens: 1048576, InputPerK: 0.000075, OutputPerK: 0.0003},
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"anthropic/claude-3.5-haiku":       {Name: "anthropic/claude-3.5-haiku", Provider: ProviderOpenRouter, ContextTokens: 200000, InputPerK: 0.0008, OutputPerK: 0.004},
	"deepseek/deepseek-r1:free":        {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	// Common local (Ollama) tags
	"llama3.1:8b":      {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 8192},
	"qwen2.5-coder:7b": {Name: "qwen2.5-coder:7b", Provider: ProviderOllama, ContextTokens: 32768},
	"mistral:7b":       {Name: "mistral:7b", Provider: ProviderOllama, ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// Models lists known models sorted by provider then name. An empty provider
// lists all of them.
func Models(provider string) []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		if provider == "" || mi.Provider == provider {
			out = append(out, mi)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}
