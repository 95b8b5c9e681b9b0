package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// ContextSummary scans the session's turns for tools, topics, employee
// names and competencies. It is recomputed on every call.
func (m *Memory) ContextSummary(id string) (types.ContextSummary, bool) {
	s, ok := m.get(id)
	if !ok {
		return types.ContextSummary{}, false
	}

	s.mu.Lock()
	st := s.state
	turns := append([]types.Turn(nil), st.Turns...)
	data := make(map[string]any, len(st.ContextData))
	for k, v := range st.ContextData {
		data[k] = v
	}
	s.mu.Unlock()

	tools := set{}
	topics := set{}
	employees := set{}
	comps := set{}
	for _, t := range turns {
		if t.ToolUsed != "" {
			tools.add(t.ToolUsed)
		}
		padded := textnorm.Padded(t.Content)
		words := dateSeparators.Replace(padded)
		for topic, keywords := range m.cfg.Topics {
			for _, kw := range keywords {
				if textnorm.ContainsPhrase(padded, kw) {
					topics.add(topic)
					break
				}
			}
		}
		for _, name := range m.cfg.Employees {
			if textnorm.ContainsPhrase(padded, name) {
				employees.add(name)
			}
		}
		for _, c := range m.cfg.Competencies {
			if m.mentionsCompetency(t.Content, words, c) {
				comps.add(c)
			}
		}
	}

	return types.ContextSummary{
		SessionID:             st.ID,
		TotalMessages:         len(turns),
		CreatedAt:             st.CreatedAt,
		LastActivity:          st.LastActivity,
		ToolsUsed:             tools.sorted(),
		TopicsDiscussed:       topics.sorted(),
		EmployeeMentions:      employees.sorted(),
		CompetenciesMentioned: comps.sorted(),
		ContextData:           data,
	}, true
}

// dateSeparators splits "maio/2025" so the month name stands alone.
var dateSeparators = strings.NewReplacer("/", " ", "-", " ")

// mentionsCompetency matches "2025-05", "05/2025" or the month's full name.
func (m *Memory) mentionsCompetency(raw, words, comp string) bool {
	if strings.Contains(raw, comp) {
		return true
	}
	var year, month int
	if _, err := fmt.Sscanf(comp, "%d-%d", &year, &month); err != nil {
		return false
	}
	if strings.Contains(raw, fmt.Sprintf("%02d/%d", month, year)) {
		return true
	}
	names := m.cfg.Months[month]
	return len(names) > 0 && strings.Contains(words, " "+textnorm.Fold(names[0])+" ")
}

type set map[string]struct{}

func (s set) add(v string) { s[v] = struct{}{} }

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
