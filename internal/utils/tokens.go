package utils

import "strings"

// Token estimation uses the rough 1 token ~= 4 characters heuristic; good
// enough to keep prompts under a budget without a tokenizer per model.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// Ensure at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within a token limit.
// When the cut falls inside a line, the partial line is dropped so tables
// stay well formed. A limit <= 0 means no limit.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i]
	}
	return cut
}

// TokenBreakdown returns a simple breakdown map of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
