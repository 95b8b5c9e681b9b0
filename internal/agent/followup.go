package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// enrich fills what a follow-up ("e em junho?", "e o IRRF?") leaves out
// from the previous turn's context: the employee, then the year of a bare
// month, then the whole competency when only a metric is new.
func (a *Agent) enrich(sid, message string, ents *types.ExtractedEntities) {
	if ents.HasEmployee() || ents.AmbiguousEmployee || !a.isFollowUp(message) {
		return
	}
	id := a.memory.ContextString(sid, KeyLastEmployeeID)
	name := a.memory.ContextString(sid, KeyLastEmployeeName)
	if id == "" || name == "" {
		return
	}
	ents.EmployeeID, ents.EmployeeName = id, name

	last := a.memory.ContextString(sid, KeyLastCompetency)
	if last == "" || ents.HasCompetency() {
		return
	}
	if ents.AmbiguousPeriod {
		if month := a.bareMonth(message); month > 0 && len(last) >= 4 {
			ents.Competency = fmt.Sprintf("%s-%02d", last[:4], month)
			ents.AmbiguousPeriod = false
		}
		return
	}
	if ents.Metric != types.MetricNetPay {
		ents.Competency = last
	}
}

// isFollowUp reports whether message opens with a follow-up cue, or carries
// a pronoun cue ("dele", "mesmo") anywhere.
func (a *Agent) isFollowUp(message string) bool {
	padded := textnorm.Padded(message)
	for _, cue := range a.lex.FollowUpCues {
		phrase := strings.Join(textnorm.Tokens(cue), " ")
		if phrase == "" {
			continue
		}
		if strings.HasPrefix(padded, " "+phrase+" ") {
			return true
		}
		if !strings.HasPrefix(phrase, "e ") && utf8.RuneCountInString(phrase) > 2 && textnorm.ContainsPhrase(padded, phrase) {
			return true
		}
	}
	return false
}

// bareMonth returns the month named by a full month word in message.
func (a *Agent) bareMonth(message string) int {
	for _, tok := range textnorm.Tokens(message) {
		if n := a.lex.MonthNumber(tok); n > 0 {
			return n
		}
	}
	return 0
}

// withContextNotes prefixes fragment with what the session already covered.
func withContextNotes(fragment string, s types.ContextSummary) string {
	var notes []string
	if len(s.EmployeeMentions) > 0 {
		notes = append(notes, fmt.Sprintf("Vejo que você já consultou informações sobre %s.", strings.Join(s.EmployeeMentions, ", ")))
	}
	if len(s.TopicsDiscussed) > 0 {
		notes = append(notes, fmt.Sprintf("Anteriormente discutimos sobre %s.", strings.Join(s.TopicsDiscussed, ", ")))
	}
	if len(s.CompetenciesMentioned) > 0 {
		notes = append(notes, fmt.Sprintf("Você já consultou dados das competências %s.", strings.Join(s.CompetenciesMentioned, ", ")))
	}
	if len(notes) == 0 {
		return fragment
	}
	return strings.Join(notes, " ") + "\n\n" + fragment
}
