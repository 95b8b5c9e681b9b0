package nlu

import (
	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// DefaultShortUtterance is the token count at or below which an utterance
// without payroll context is treated as small talk.
const DefaultShortUtterance = 3

// Classifier maps an utterance and its entities to exactly one intent.
type Classifier struct {
	payroll        Scorer
	legal          Scorer
	conversational Scorer

	aggregation Scorer
	deduction   Scorer
	filter      Scorer

	shortUtterance int
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithPayrollScorer replaces the payroll-data scorer.
func WithPayrollScorer(s Scorer) ClassifierOption {
	return func(c *Classifier) { c.payroll = s }
}

// WithLegalScorer replaces the legal/benefits scorer.
func WithLegalScorer(s Scorer) ClassifierOption {
	return func(c *Classifier) { c.legal = s }
}

// WithConversationalScorer replaces the small-talk scorer.
func WithConversationalScorer(s Scorer) ClassifierOption {
	return func(c *Classifier) { c.conversational = s }
}

// WithShortUtterance sets the small-talk token threshold.
func WithShortUtterance(tokens int) ClassifierOption {
	return func(c *Classifier) { c.shortUtterance = tokens }
}

// NewClassifier builds a keyword classifier over lex.
func NewClassifier(lex *Lexicon, opts ...ClassifierOption) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	c := &Classifier{
		payroll:        NewKeywordScorer(lex.PayrollTerms),
		legal:          NewKeywordScorer(lex.LegalTerms),
		conversational: NewKeywordScorer(lex.ConversationalTerms),
		aggregation:    NewKeywordScorer(lex.AggregationTerms),
		deduction:      NewKeywordScorer(lex.DeductionTerms),
		filter:         NewKeywordScorer(lex.FilterTerms),
		shortUtterance: DefaultShortUtterance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify picks the intent. Rules are evaluated in order and the first
// match wins; the result is always one of types.ValidIntents.
func (c *Classifier) Classify(text string, e types.ExtractedEntities) types.Intent {
	if e.HasEmployee() {
		return types.IntentSpecificEmployee
	}
	if c.legal.Score(text) > 0 {
		return types.IntentWebLookup
	}
	if c.conversational.Score(text) > 0 || len(textnorm.Tokens(text)) <= c.shortUtterance {
		return types.IntentGeneral
	}
	if c.payroll.Score(text) > 0 {
		switch {
		case c.aggregation.Score(text) > 0:
			return types.IntentAggregate
		case c.deduction.Score(text) > 0:
			return types.IntentDeduction
		case c.filter.Score(text) > 0:
			return types.IntentFilter
		case e.HasCompetency():
			return types.IntentCompetency
		}
		return types.IntentSpecificEmployee
	}
	return types.IntentSpecificEmployee
}
