package engine

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/scrypster/folha/internal/nlu"
	"github.com/scrypster/folha/internal/textnorm"
)

var (
	quarterPattern  = regexp.MustCompile(`\b([1-4])\s*[ºª°o]?\s*trimestre\b`)
	semesterPattern = regexp.MustCompile(`\b([12])\s*[ºª°o]?\s*semestre\b`)

	ordinalWords = map[string]int{
		"primeiro": 1, "segundo": 2, "terceiro": 3, "quarto": 4,
	}
)

// windowKind is how the aggregation window was derived.
type windowKind int

const (
	windowAll windowKind = iota
	windowYear
	windowQuarter
	windowSemester
	windowCompetency
)

// window is the set of pay periods an aggregate covers. An empty
// competencies slice means "every period on record".
type window struct {
	kind         windowKind
	label        string
	competencies []string
}

// partial reports whether coverage matters for confidence: only fixed-size
// windows (quarter, semester) can be partially covered.
func (w window) partial(found int) bool {
	if w.kind != windowQuarter && w.kind != windowSemester {
		return false
	}
	return found < len(w.competencies)
}

// coverage is the share of requested periods present in the rows.
func (w window) coverage(found int) float64 {
	if len(w.competencies) == 0 {
		return 1
	}
	return float64(found) / float64(len(w.competencies))
}

// resolveWindow derives the window from the query text and entities.
// The year comes from an explicit year in the text, then the extracted
// competency, then the latest year in the store.
func (e *Engine) resolveWindow(q Query) window {
	folded := textnorm.Fold(q.Text)
	padded := textnorm.Padded(q.Text)
	year := e.windowYear(q)
	_, explicitYear := nlu.ExplicitYear(q.Text)

	if n, ok := ordinalBefore(folded, padded, quarterPattern, e.lex.QuarterTerms); ok || containsAny(padded, e.lex.QuarterTerms) {
		if !ok {
			n = 1
			if month := competencyMonth(q.Entities.Competency); month > 0 {
				n = (month-1)/3 + 1
			}
		}
		return window{
			kind:         windowQuarter,
			label:        fmt.Sprintf("%dº trimestre de %d", n, year),
			competencies: monthRange(year, 3*n-2, 3*n),
		}
	}

	if n, ok := ordinalBefore(folded, padded, semesterPattern, e.lex.SemesterTerms); ok || containsAny(padded, e.lex.SemesterTerms) {
		if !ok || n > 2 {
			n = 1
			if month := competencyMonth(q.Entities.Competency); month > 6 {
				n = 2
			}
		}
		return window{
			kind:         windowSemester,
			label:        fmt.Sprintf("%dº semestre de %d", n, year),
			competencies: monthRange(year, 6*n-5, 6*n),
		}
	}

	if q.Entities.HasCompetency() {
		return window{
			kind:         windowCompetency,
			label:        "a competência " + FormatCompetency(q.Entities.Competency),
			competencies: []string{q.Entities.Competency},
		}
	}

	if explicitYear {
		return window{
			kind:         windowYear,
			label:        strconv.Itoa(year),
			competencies: monthRange(year, 1, 12),
		}
	}

	return window{kind: windowAll, label: "todo o período"}
}

func (e *Engine) windowYear(q Query) int {
	if y, ok := nlu.ExplicitYear(q.Text); ok {
		return y
	}
	if len(q.Entities.Competency) >= 4 {
		if y, err := strconv.Atoi(q.Entities.Competency[:4]); err == nil {
			return y
		}
	}
	if y, ok := e.store.LatestYear(); ok {
		return y
	}
	return 0
}

// ordinalBefore finds "1º trimestre" style cues, or an ordinal word
// ("primeiro", "segundo") directly before one of the window terms.
func ordinalBefore(folded, padded string, pattern *regexp.Regexp, terms []string) (int, bool) {
	if sub := pattern.FindStringSubmatch(folded); sub != nil {
		n, err := strconv.Atoi(sub[1])
		if err == nil {
			return n, true
		}
	}
	for word, n := range ordinalWords {
		for _, term := range terms {
			if textnorm.ContainsPhrase(padded, word+" "+term) {
				return n, true
			}
		}
	}
	return 0, false
}

func monthRange(year, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for m := from; m <= to; m++ {
		out = append(out, fmt.Sprintf("%04d-%02d", year, m))
	}
	return out
}

func competencyMonth(comp string) int {
	if len(comp) != 7 {
		return 0
	}
	m, err := strconv.Atoi(comp[5:])
	if err != nil {
		return 0
	}
	return m
}

func containsAny(padded string, terms []string) bool {
	for _, t := range terms {
		if textnorm.ContainsPhrase(padded, t) {
			return true
		}
	}
	return false
}
