package websearch

import (
	"context"
	"sort"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// references is the static set served without a search API.
var references = []Item{
	{
		Title:       "Consolidação das Leis do Trabalho (CLT)",
		Link:        "https://www.gov.br/trabalho-e-emprego/pt-br",
		Snippet:     "A CLT é a principal legislação trabalhista brasileira, regulamentando as relações de trabalho.",
		DisplayLink: "gov.br",
	},
	{
		Title:       "Direitos Trabalhistas - Ministério do Trabalho",
		Link:        "https://www.gov.br/trabalho-e-emprego/pt-br/assuntos/direitos-trabalhistas",
		Snippet:     "Informações sobre direitos trabalhistas, férias, 13º salário, FGTS e outros benefícios.",
		DisplayLink: "gov.br",
	},
	{
		Title:       "Cálculo de Férias - Guia Completo",
		Link:        "https://www.trabalhador.gov.br/ferias",
		Snippet:     "Como calcular férias proporcionais, 1/3 constitucional e outros aspectos legais.",
		DisplayLink: "trabalhador.gov.br",
	},
	{
		Title:       "FGTS - Fundo de Garantia do Tempo de Serviço",
		Link:        "https://www.gov.br/trabalho-e-emprego/pt-br/servicos/trabalhador/fgts",
		Snippet:     "O empregador deposita mensalmente 8% do salário do trabalhador na conta do FGTS.",
		DisplayLink: "gov.br",
	},
	{
		Title:       "Tabelas de contribuição do INSS",
		Link:        "https://www.gov.br/inss/pt-br/direitos-e-deveres/inscricao-e-contribuicao/tabela-de-contribuicao-mensal",
		Snippet:     "Alíquotas progressivas de contribuição do INSS para empregados, por faixa de salário.",
		DisplayLink: "gov.br/inss",
	},
	{
		Title:       "Imposto de Renda Retido na Fonte (IRRF) sobre salários",
		Link:        "https://www.gov.br/receitafederal/pt-br/assuntos/meu-imposto-de-renda/tabelas",
		Snippet:     "Tabela progressiva mensal do IRRF e deduções permitidas na folha de pagamento.",
		DisplayLink: "gov.br/receitafederal",
	},
}

// FallbackSearcher serves static official references ranked by word
// overlap with the question.
type FallbackSearcher struct {
	max int
}

// NewFallbackSearcher returns at most max references per search (default 3).
func NewFallbackSearcher(max int) *FallbackSearcher {
	if max <= 0 {
		max = 3
	}
	return &FallbackSearcher{max: max}
}

// Search ranks the references against query. References with no overlap
// keep their listed order after the matching ones.
func (f *FallbackSearcher) Search(ctx context.Context, query string) (types.WebResult, error) {
	if err := ctx.Err(); err != nil {
		return types.WebResult{}, err
	}

	qTokens := map[string]bool{}
	for _, tok := range textnorm.Tokens(query) {
		if len([]rune(tok)) > 2 {
			qTokens[tok] = true
		}
	}

	type scored struct {
		item  Item
		score int
	}
	ranked := make([]scored, 0, len(references))
	for _, it := range filterWorkplace(references) {
		s := 0
		for _, tok := range textnorm.Tokens(it.Title + " " + it.Snippet) {
			if qTokens[tok] {
				s++
			}
		}
		ranked = append(ranked, scored{item: it, score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := f.max
	if n > len(ranked) {
		n = len(ranked)
	}
	if n == 0 {
		return types.WebResult{}, ErrNoResults
	}
	items := make([]Item, n)
	for i := range items {
		items[i] = ranked[i].item
	}
	return buildResult(items, "Referências oficiais sobre legislação trabalhista (busca na web não configurada):"), nil
}

var _ Searcher = (*FallbackSearcher)(nil)
