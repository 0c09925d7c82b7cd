package agent

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datachat-cli/internal/insight"
)

const classifyInstruction = `Você é um classificador de intenções. Analise a pergunta e responda APENAS com:
- analysis: se o usuário pedir para analisar, plotar, descrever, correlacionar ou consultar dados.
- chat: se for saudação, conversa geral, metaperguntas, agradecimentos, etc.

Pergunta: %s

Responda com UMA palavra: analysis ou chat.`

const chatInstruction = `Você é o Data Chat Agent. Responda de forma clara e amigável.
Se a pergunta não exigir análise de dados, seja breve.`

// frameReference summarises the handles the sandbox exposes to generated code.
const frameReference = `API disponível (pacotes frame, chart, ui; nada mais além de fmt, math, sort, strings, strconv, time, unicode, errors, text/tabwriter):
- df *frame.Frame: df.Shape(), df.Len(), df.Columns(), df.Has(nome), df.Col(nome) *frame.Series,
  df.Head(n), df.Tail(n), df.Select(nomes...), df.Filter(func(r frame.Row) bool), df.SortBy(nome, asc),
  df.DropNA(nomes...), df.GroupBy(chave).Agg(coluna, "sum"|"mean"|"median"|"min"|"max"|"std"|"count"),
  df.Corr(a, b), df.TopCorrelations(n), df.Describe(), df.Markdown()
- frame.Row: r.Str(nome), r.Float(nome), r.IsNA(nome)
- *frame.Series: Len, IsNA(i), Float(i), Str(i), Floats(), Strings(), Count, Missing, Sum, Mean, Median,
  Min, Max, Std, Quantile(q), Unique, ValueCounts() []frame.ValueCount{Value, Count}, FillNA(v)
- chart.Bar(titulo, rotulos, valores), chart.Hist(titulo, valores, bins), chart.Line(titulo, valores),
  chart.Box(titulo, valores)
- ui.Plot(c) exibe um gráfico, ui.Table(f) exibe uma tabela, ui.Markdown(s) exibe texto formatado
- ui.Insight(s) registra uma conclusão (equivale a uma linha INSIGHT:)`

const synthesizeInstruction = `Você irá gerar APENAS instruções em Go (sem explicações, sem cercas ` + "```" + `, sem cláusula package, sem imports).

Regras:
- O data frame já existe como df (*frame.Frame). NÃO leia arquivos.
- Trate valores ausentes (IsNA, DropNA, FillNA) antes de converter ou agregar números.
- Para gráficos: construa com chart.* e chame ui.Plot(c).
- Para tabelas: chame ui.Table(f).
- Não modifique df; crie novos frames derivados quando precisar.
- Mostre resultados e métricas relevantes com fmt.Println ou fmt.Printf.
- Ao final, escreva uma linha começando com '%s' resumindo a principal conclusão (máx. %d caracteres).

%s`

const fallbackCode = `fmt.Println("Falha ao gerar código. Mostrando preview do df:")
fmt.Println(df.Head(5))
fmt.Println("INSIGHT: Não foi possível gerar a análise solicitada; verifique sua conexão ou reformule o pedido.")
`

// FallbackCode is the snippet used whenever synthesis fails.
func FallbackCode() string { return fallbackCode }

func classifyPrompt(utterance string) string {
	return fmt.Sprintf(classifyInstruction, utterance)
}

func synthesizeSystem() string {
	return fmt.Sprintf(synthesizeInstruction, insight.Marker, insight.MaxLen, frameReference)
}

func synthesizeParts(utterance, sample string) []string {
	var ctx strings.Builder
	ctx.WriteString("Contexto (amostra df em Markdown):\n")
	ctx.WriteString(sample)
	return []string{ctx.String(), "Tarefa do usuário:\n" + utterance}
}
