package orchestrator

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var memoryCommands = map[string]bool{
	"conclusoes":                  true,
	"resumo":                      true,
	"insights":                    true,
	"quais conclusoes":            true,
	"quais conclusoes ate agora":  true,
	"quais conclusoes ate agora?": true,
}

// fold lower-cases s and strips diacritics, so "Conclusões" == "conclusoes".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// IsMemoryCommand reports whether utterance asks for the insight memory.
func IsMemoryCommand(utterance string) bool {
	return memoryCommands[fold(utterance)]
}

// MemoryReply renders the insight memory as a bulleted message.
func MemoryReply(insights []string) string {
	if len(insights) == 0 {
		return "Ainda não há conclusões registradas. Solicite alguma análise ou gráfico para começarmos."
	}
	var b strings.Builder
	b.WriteString("Aqui estão as conclusões registradas até agora:\n\n")
	for i, in := range insights {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(in)
	}
	return b.String()
}
