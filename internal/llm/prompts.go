// Package llm turns answer fragments into fluent Portuguese replies through
// an external text generation provider (OpenAI, Anthropic or Ollama). Every
// provider call runs behind a circuit breaker; callers keep the raw fragment
// when rendering fails.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scrypster/folha/pkg/types"
)

// SystemPrompt is the payroll assistant persona.
const SystemPrompt = `Você é um assistente especializado em folha de pagamento. Sua função é:

1. Responder perguntas sobre dados de folha de pagamento com base nas informações fornecidas
2. Responder questões gerais sobre legislação trabalhista com base nas fontes fornecidas
3. Sempre deixar claras as evidências da resposta
4. Formatar valores monetários em Real brasileiro (R$ 1.234,56) e datas como DD/MM/AAAA
5. Ser preciso: nunca invente valores que não estejam nos dados

Não altere nenhum valor numérico recebido. Responda em português, de forma breve.`

// maxPromptSources caps the evidence rows listed in a data prompt.
const maxPromptSources = 12

// DataPrompt asks the model to rephrase an engine answer without changing it.
func DataPrompt(question, fragment string, ev types.Evidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pergunta do usuário: %s\n\n", question)
	fmt.Fprintf(&b, "Resposta calculada a partir da folha de pagamento:\n%s\n\n", fragment)

	if !ev.IsEmpty() {
		fmt.Fprintf(&b, "Evidências (%d registros, competências %s):\n",
			ev.TotalRecords, strings.Join(ev.Competencies, ", "))
		for i, r := range ev.Sources {
			if i == maxPromptSources {
				fmt.Fprintf(&b, "- ... mais %d registros\n", len(ev.Sources)-i)
				break
			}
			fmt.Fprintf(&b, "- %s (%s), competência %s, pago em %s, líquido %.2f\n",
				r.Name, r.EmployeeID, r.Competency, r.PaymentDate, r.NetPay)
		}
		b.WriteString("\n")
	}

	b.WriteString("Reescreva a resposta de forma clara e cordial, mantendo todos os valores e citando as competências usadas.")
	return b.String()
}

// WebPrompt asks the model to summarize search results with citations.
func WebPrompt(question, fragment string, citations []types.Citation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pergunta do usuário: %s\n\n", question)
	fmt.Fprintf(&b, "Resultados da busca:\n%s\n\n", fragment)
	if len(citations) > 0 {
		b.WriteString("Fontes:\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", c.Source, c.Title, c.URL)
		}
		b.WriteString("\n")
	}
	b.WriteString("Resuma a resposta em poucas frases e cite as fontes pelo nome.")
	return b.String()
}

// GeneralPrompt is used for small talk.
func GeneralPrompt(message string) string {
	return fmt.Sprintf("Mensagem do usuário: %s\n\nResponda de forma breve e cordial. "+
		"Se fizer sentido, lembre que você pode consultar a folha de pagamento "+
		"(salários, descontos, bônus, datas de pagamento) e dúvidas sobre legislação trabalhista.", message)
}

// contextBlock describes what the session already covered.
func contextBlock(s types.ContextSummary) string {
	var lines []string
	if len(s.EmployeeMentions) > 0 {
		lines = append(lines, "Funcionários já consultados: "+strings.Join(s.EmployeeMentions, ", "))
	}
	if len(s.TopicsDiscussed) > 0 {
		lines = append(lines, "Tópicos discutidos: "+strings.Join(s.TopicsDiscussed, ", "))
	}
	if len(s.CompetenciesMentioned) > 0 {
		lines = append(lines, "Competências mencionadas: "+strings.Join(s.CompetenciesMentioned, ", "))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Contexto da conversa:\n" + strings.Join(lines, "\n")
}

// Renderer produces fluent replies with a TextGenerator.
type Renderer struct {
	gen    TextGenerator
	system string
}

// NewRenderer wraps gen. A nil gen yields a Renderer that always returns
// ErrNotConfigured.
func NewRenderer(gen TextGenerator) *Renderer {
	return &Renderer{gen: gen, system: SystemPrompt}
}

// Enabled reports whether a generator is configured.
func (r *Renderer) Enabled() bool {
	return r != nil && r.gen != nil
}

// Model returns the generator's model name, or "" when disabled.
func (r *Renderer) Model() string {
	if !r.Enabled() {
		return ""
	}
	return r.gen.GetModel()
}

// Render completes prompt with the persona and the session context as the
// system prompt.
func (r *Renderer) Render(ctx context.Context, prompt string, summary types.ContextSummary) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}

	system := r.system
	if block := contextBlock(summary); block != "" {
		system += "\n\n" + block
	}

	var (
		out string
		err error
	)
	if sc, ok := r.gen.(SystemCompleter); ok {
		out, err = sc.CompleteWithSystem(ctx, system, prompt)
	} else {
		out, err = r.gen.Complete(ctx, system+"\n\n"+prompt)
	}
	if err != nil {
		return "", fmt.Errorf("render with %s: %w", r.gen.GetModel(), err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("render: empty completion")
	}
	return out, nil
}
