package nlu

import (
	"strings"

	"github.com/scrypster/folha/internal/textnorm"
)

// Scorer assigns an integer relevance score to an utterance.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	Score(text string) int
}

// KeywordScorer counts how many of its terms occur in the text on token
// boundaries, after folding case and accents.
type KeywordScorer struct {
	terms []string
}

// NewKeywordScorer returns a scorer over terms. Terms are folded once.
func NewKeywordScorer(terms []string) *KeywordScorer {
	s := &KeywordScorer{}
	seen := make(map[string]bool)
	for _, t := range terms {
		folded := strings.Join(textnorm.Tokens(t), " ")
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		s.terms = append(s.terms, folded)
	}
	return s
}

// Score implements Scorer.
func (s *KeywordScorer) Score(text string) int {
	padded := textnorm.Padded(text)
	hits := 0
	for _, t := range s.terms {
		if strings.Contains(padded, " "+t+" ") {
			hits++
		}
	}
	return hits
}
