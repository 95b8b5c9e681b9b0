package nlu

import (
	"sort"
	"strings"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// rosterEntry is an employee with precomputed folded name forms.
type rosterEntry struct {
	employee  types.Employee
	fullName  string // folded tokens joined by spaces
	firstName string
	id        string
}

// Extractor pulls employee, pay period and metric cues out of an utterance.
// It is safe for concurrent use; nothing is mutated after construction.
type Extractor struct {
	lex    *Lexicon
	roster []rosterEntry
	months *monthMatcher
}

// NewExtractor builds an extractor over the lexicon and the known roster.
func NewExtractor(lex *Lexicon, roster []types.Employee) *Extractor {
	if lex == nil {
		lex = DefaultLexicon()
	}
	months := lex.Months
	if len(months) == 0 {
		months = defaultMonths()
	}

	x := &Extractor{
		lex:    lex,
		months: newMonthMatcher(months),
	}
	for _, emp := range roster {
		tokens := textnorm.Tokens(emp.Name)
		if len(tokens) == 0 {
			continue
		}
		x.roster = append(x.roster, rosterEntry{
			employee:  emp,
			fullName:  strings.Join(tokens, " "),
			firstName: tokens[0],
			id:        textnorm.Fold(emp.ID),
		})
	}
	return x
}

// Extract returns the entities found in text. Absent cues leave fields empty.
func (x *Extractor) Extract(text string) types.ExtractedEntities {
	folded := textnorm.Fold(text)
	padded := textnorm.Padded(text)

	var out types.ExtractedEntities
	x.extractEmployee(padded, &out)
	out.Competency, out.AmbiguousPeriod = x.months.resolve(folded)
	out.Metric = x.metric(padded)
	return out
}

func (x *Extractor) extractEmployee(padded string, out *types.ExtractedEntities) {
	// Full display name or employee id first.
	for _, r := range x.roster {
		if textnorm.ContainsPhrase(padded, r.fullName) || (r.id != "" && textnorm.ContainsPhrase(padded, r.id)) {
			out.EmployeeID = r.employee.ID
			out.EmployeeName = r.employee.Name
			return
		}
	}

	var matches []rosterEntry
	seen := make(map[string]bool)
	for _, r := range x.roster {
		if seen[r.employee.ID] {
			continue
		}
		if textnorm.ContainsPhrase(padded, r.firstName) {
			seen[r.employee.ID] = true
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return
	case 1:
		out.EmployeeID = matches[0].employee.ID
		out.EmployeeName = matches[0].employee.Name
	default:
		out.AmbiguousEmployee = true
		for _, m := range matches {
			out.EmployeeCandidates = append(out.EmployeeCandidates, m.employee.Name)
		}
		sort.Strings(out.EmployeeCandidates)
	}
}

// metric applies the fixed priority: deductions, then bonus, then payment
// date, then net pay.
func (x *Extractor) metric(padded string) types.Metric {
	switch {
	case containsAny(padded, x.lex.INSSTerms):
		return types.MetricINSS
	case containsAny(padded, x.lex.IRRFTerms):
		return types.MetricIRRF
	case containsAny(padded, x.lex.DeductionTerms):
		return types.MetricDeductions
	case containsAny(padded, x.lex.BonusTerms):
		if containsAny(padded, x.lex.MaximumTerms) {
			return types.MetricMaxBonus
		}
		return types.MetricBonus
	case containsAny(padded, x.lex.PaymentDateTerms):
		return types.MetricPaymentDate
	}
	return types.MetricNetPay
}

func containsAny(padded string, terms []string) bool {
	for _, t := range terms {
		if textnorm.ContainsPhrase(padded, t) {
			return true
		}
	}
	return false
}
