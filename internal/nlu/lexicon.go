// Package nlu implements the heuristic language layer of the payroll
// assistant: the keyword lexicon, the entity extractor, and the intent
// classifier. Everything here is a pure function of the input text and the
// immutable Lexicon it was built with.
package nlu

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/folha/internal/textnorm"
)

// ErrLexiconOverlap is returned by Validate when the classifier keyword lists
// are not disjoint.
var ErrLexiconOverlap = errors.New("lexicon keyword lists overlap")

// Lexicon is the keyword configuration shared by the extractor, classifier
// and conversation memory. Build it once with DefaultLexicon or LoadLexicon
// and never mutate it afterwards; components keep the pointer.
type Lexicon struct {
	// The three disjoint classifier lists.
	PayrollTerms        []string `yaml:"payroll_terms"`
	LegalTerms          []string `yaml:"legal_terms"`
	ConversationalTerms []string `yaml:"conversational_terms"`

	// Sub-intent cues evaluated once a payroll term matched.
	AggregationTerms []string `yaml:"aggregation_terms"`
	DeductionTerms   []string `yaml:"deduction_terms"`
	FilterTerms      []string `yaml:"filter_terms"`

	// Metric cues, in priority order: deduction > bonus > payment date.
	INSSTerms        []string `yaml:"inss_terms"`
	IRRFTerms        []string `yaml:"irrf_terms"`
	BonusTerms       []string `yaml:"bonus_terms"`
	MaximumTerms     []string `yaml:"maximum_terms"`
	PaymentDateTerms []string `yaml:"payment_date_terms"`

	// Aggregation window cues.
	QuarterTerms  []string `yaml:"quarter_terms"`
	SemesterTerms []string `yaml:"semester_terms"`
	MeanTerms     []string `yaml:"mean_terms"`

	// WindowTerms turn an employee lookup into an aggregate over a window.
	WindowTerms []string `yaml:"window_terms"`

	// FollowUpCues mark an utterance that continues the previous question
	// ("e em junho?"). Matched as a prefix or whole phrase.
	FollowUpCues []string `yaml:"follow_up_cues"`

	// TopicKeywords maps a display topic to the keywords that reveal it.
	TopicKeywords map[string][]string `yaml:"topic_keywords"`

	// Months maps a month number (1..12) to its Portuguese names and
	// abbreviations. Filled with the defaults; not configurable from YAML.
	Months map[int][]string `yaml:"-"`
}

// DefaultLexicon returns the built-in Portuguese keyword tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		PayrollTerms: []string{
			"funcionario", "funcionarios", "funcionaria", "salario", "salarios",
			"folha", "nome", "cargo", "departamento", "setor", "valor",
			"total", "media", "medio", "soma", "quem", "quanto", "quantos",
			"qual", "recebi", "recebeu", "ganhou", "ganha", "liquido", "liquida",
			"bruto", "bruta", "desconto", "descontos", "inss", "irrf", "bonus",
			"trimestre", "semestre", "competencia", "pagamento", "pago",
		},
		LegalTerms: []string{
			"lei", "leis", "legislacao", "direito", "direitos", "trabalhista",
			"trabalhistas", "clt", "fgts", "tributo", "tributos", "encargo",
			"encargos", "como calcular", "como funciona", "o que e", "prazo",
			"selic", "taxa", "juros", "ferias", "13º", "decimo terceiro",
			"aviso previo", "rescisao",
		},
		ConversationalTerms: []string{
			"ola", "oi", "bom dia", "boa tarde", "boa noite", "obrigado",
			"obrigada", "valeu", "tchau", "ate logo", "como voce esta",
			"tudo bem", "ajuda", "help",
		},
		AggregationTerms: []string{
			"total", "soma", "somar", "media", "medio", "trimestre", "semestre",
			"acumulado",
		},
		DeductionTerms:   []string{"desconto", "descontos", "inss", "irrf", "deducao", "deducoes"},
		FilterTerms:      []string{"departamento", "cargo", "setor", "funcao"},
		INSSTerms:        []string{"inss"},
		IRRFTerms:        []string{"irrf", "imposto de renda"},
		BonusTerms:       []string{"bonus", "bonificacao", "premio"},
		MaximumTerms:     []string{"maior", "maximo", "highest", "mais alto"},
		PaymentDateTerms: []string{"quando", "data de pagamento", "data do pagamento", "dia do pagamento"},
		QuarterTerms:     []string{"trimestre"},
		SemesterTerms:    []string{"semestre"},
		MeanTerms:        []string{"media", "medio"},
		WindowTerms:      []string{"trimestre", "semestre", "total", "soma", "acumulado"},
		FollowUpCues:     []string{"e", "e em", "e no", "e na", "e o", "e a", "dele", "dela", "mesmo", "mesma"},
		TopicKeywords: map[string][]string{
			"salário":   {"salario", "salarios"},
			"descontos": {"desconto", "descontos"},
			"INSS":      {"inss"},
			"IRRF":      {"irrf"},
			"bônus":     {"bonus"},
			"trimestre": {"trimestre"},
		},
		Months: defaultMonths(),
	}
}

func defaultMonths() map[int][]string {
	return map[int][]string{
		1:  {"janeiro", "jan"},
		2:  {"fevereiro", "fev"},
		3:  {"marco", "mar"},
		4:  {"abril", "abr"},
		5:  {"maio", "mai"},
		6:  {"junho", "jun"},
		7:  {"julho", "jul"},
		8:  {"agosto", "ago"},
		9:  {"setembro", "set"},
		10: {"outubro", "out"},
		11: {"novembro", "nov"},
		12: {"dezembro", "dez"},
	}
}

// LoadLexicon reads a YAML lexicon file. Lists missing from the file keep
// their default values. The result is validated.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: failed to read %s: %w", path, err)
	}
	return ParseLexicon(data)
}

// ParseLexicon decodes YAML lexicon data over the defaults.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file Lexicon
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("lexicon: failed to parse yaml: %w", err)
	}

	lex := DefaultLexicon()
	override(&lex.PayrollTerms, file.PayrollTerms)
	override(&lex.LegalTerms, file.LegalTerms)
	override(&lex.ConversationalTerms, file.ConversationalTerms)
	override(&lex.AggregationTerms, file.AggregationTerms)
	override(&lex.DeductionTerms, file.DeductionTerms)
	override(&lex.FilterTerms, file.FilterTerms)
	override(&lex.INSSTerms, file.INSSTerms)
	override(&lex.IRRFTerms, file.IRRFTerms)
	override(&lex.BonusTerms, file.BonusTerms)
	override(&lex.MaximumTerms, file.MaximumTerms)
	override(&lex.PaymentDateTerms, file.PaymentDateTerms)
	override(&lex.QuarterTerms, file.QuarterTerms)
	override(&lex.SemesterTerms, file.SemesterTerms)
	override(&lex.MeanTerms, file.MeanTerms)
	override(&lex.WindowTerms, file.WindowTerms)
	override(&lex.FollowUpCues, file.FollowUpCues)
	if len(file.TopicKeywords) > 0 {
		lex.TopicKeywords = file.TopicKeywords
	}

	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

func override(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// Validate checks that the payroll, legal and conversational lists are
// pairwise disjoint after folding.
func (l *Lexicon) Validate() error {
	owner := make(map[string]string)
	lists := []struct {
		name  string
		terms []string
	}{
		{"payroll_terms", l.PayrollTerms},
		{"legal_terms", l.LegalTerms},
		{"conversational_terms", l.ConversationalTerms},
	}
	for _, list := range lists {
		for _, term := range list.terms {
			key := textnorm.Fold(term)
			if prev, ok := owner[key]; ok && prev != list.name {
				return fmt.Errorf("%w: %q is in both %s and %s", ErrLexiconOverlap, term, prev, list.name)
			}
			owner[key] = list.name
		}
	}
	return nil
}

// MonthNumber returns the month (1..12) whose full name is word, compared
// after folding, or 0. Abbreviations are not matched.
func (l *Lexicon) MonthNumber(word string) int {
	word = textnorm.Fold(word)
	for n, names := range l.Months {
		if len(names) > 0 && textnorm.Fold(names[0]) == word {
			return n
		}
	}
	return 0
}
