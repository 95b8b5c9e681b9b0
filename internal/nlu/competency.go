package nlu

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/scrypster/folha/internal/textnorm"
)

var (
	// 2025-05 and 2025-05-28
	isoPattern = regexp.MustCompile(`\b(\d{4})-(\d{1,2})(?:-\d{1,2})?\b`)

	// 05/2025, 5/2025 and the tail of 28/05/2025
	slashPattern = regexp.MustCompile(`\b(\d{1,2})/(\d{4})\b`)

	// a standalone four-digit year
	yearPattern = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// monthMatcher recognizes month names next to a year in folded text.
type monthMatcher struct {
	months    map[int][]string
	lookup    map[string]int
	fullNames map[string]int
	nameFirst *regexp.Regexp
	yearFirst *regexp.Regexp
}

func newMonthMatcher(months map[int][]string) *monthMatcher {
	m := &monthMatcher{
		months:    months,
		lookup:    make(map[string]int),
		fullNames: make(map[string]int),
	}

	var alts []string
	for n, names := range months {
		for i, name := range names {
			folded := textnorm.Fold(name)
			m.lookup[folded] = n
			if i == 0 {
				m.fullNames[folded] = n
			}
			alts = append(alts, regexp.QuoteMeta(folded))
		}
	}
	// Longest first so "marco" wins over "mar".
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	group := strings.Join(alts, "|")

	sep := `\.?\s*(?:/|-|\bde\b)?\s*`
	m.nameFirst = regexp.MustCompile(`\b(` + group + `)` + sep + `(\d{4})\b`)
	m.yearFirst = regexp.MustCompile(`\b(\d{4})\s*(?:/|-|\bde\b)?\s*(` + group + `)\b`)
	return m
}

var defaultMatcher = newMonthMatcher(defaultMonths())

// NormalizeCompetency finds a pay period in s and returns it as YYYY-MM.
// Recognized forms: 2025-05, 2025-05-28, 05/2025, maio/2025, mai./2025,
// maio de 2025, maio 2025 and 2025 maio. The result is itself a recognized
// form, so normalizing twice yields the same value.
func NormalizeCompetency(s string) (string, bool) {
	return defaultMatcher.explicit(textnorm.Fold(s))
}

// explicit returns a competency written out with its year in one place.
func (m *monthMatcher) explicit(folded string) (string, bool) {
	if sub := isoPattern.FindStringSubmatch(folded); sub != nil {
		if comp, ok := formatCompetency(sub[1], sub[2]); ok {
			return comp, true
		}
	}
	if sub := slashPattern.FindStringSubmatch(folded); sub != nil {
		if comp, ok := formatCompetency(sub[2], sub[1]); ok {
			return comp, true
		}
	}
	if sub := m.nameFirst.FindStringSubmatch(folded); sub != nil {
		if n, ok := m.lookup[sub[1]]; ok {
			return fmt.Sprintf("%s-%02d", sub[2], n), true
		}
	}
	if sub := m.yearFirst.FindStringSubmatch(folded); sub != nil {
		if n, ok := m.lookup[sub[2]]; ok {
			return fmt.Sprintf("%s-%02d", sub[1], n), true
		}
	}
	return "", false
}

// resolve extracts a competency from folded text. A full month name with a
// year elsewhere in the text also resolves; a full month name with no year at
// all reports ambiguous. Abbreviations only count next to a year because
// several of them ("dez", "set") are ordinary words.
func (m *monthMatcher) resolve(folded string) (comp string, ambiguous bool) {
	if comp, ok := m.explicit(folded); ok {
		return comp, false
	}

	month := 0
	for _, tok := range textnorm.Tokens(folded) {
		if n, ok := m.fullNames[tok]; ok {
			month = n
			break
		}
	}
	if month == 0 {
		return "", false
	}

	if sub := yearPattern.FindStringSubmatch(folded); sub != nil {
		return fmt.Sprintf("%s-%02d", sub[1], month), false
	}
	return "", true
}

// ExplicitYear returns the first standalone four-digit year in text.
func ExplicitYear(text string) (int, bool) {
	sub := yearPattern.FindStringSubmatch(textnorm.Fold(text))
	if sub == nil {
		return 0, false
	}
	year, err := strconv.Atoi(sub[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

func formatCompetency(year, month string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 2999 {
		return "", false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", y, mo), true
}
