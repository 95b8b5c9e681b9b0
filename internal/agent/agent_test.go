package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/folha/internal/conversation"
	"github.com/scrypster/folha/internal/engine"
	"github.com/scrypster/folha/internal/llm"
	"github.com/scrypster/folha/internal/nlu"
	"github.com/scrypster/folha/internal/testutil"
	"github.com/scrypster/folha/pkg/types"
)

// fakeGenerator records prompts and returns a fixed completion.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	out     string
	err     error
}

func (g *fakeGenerator) Complete(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.out, g.err
}

func (g *fakeGenerator) GetModel() string { return "fake" }

// fakeSearcher returns a fixed result.
type fakeSearcher struct {
	result types.WebResult
	err    error
	calls  int
}

func (s *fakeSearcher) Search(_ context.Context, _ string) (types.WebResult, error) {
	s.calls++
	return s.result, s.err
}

func newAgent(t *testing.T, deps Deps) *Agent {
	t.Helper()
	lex := nlu.DefaultLexicon()
	store := testutil.SampleStore(t)
	deps.Lexicon = lex
	if deps.Engine == nil {
		deps.Engine = engine.New(store, engine.WithLexicon(lex))
	}
	if deps.Memory == nil {
		deps.Memory = conversation.New(MemoryConfig(conversation.DefaultConfig(), deps.Engine.Store(), lex))
	}
	return New(deps)
}

func TestProcessQuery_DataAnswerWithoutGenerator(t *testing.T) {
	a := newAgent(t, Deps{})

	resp := a.ProcessQuery(context.Background(), "Quanto a Ana recebeu em maio/2025?", "")
	require.NotEmpty(t, resp.SessionID)
	assert.Equal(t, ToolRAG, resp.ToolUsed)
	assert.Equal(t, types.IntentSpecificEmployee, resp.Intent)
	assert.Contains(t, resp.Response, "R$ 8.418,75")
	assert.NotContains(t, resp.Response, "Vejo que você")

	ev, ok := resp.Evidence.(types.Evidence)
	require.True(t, ok)
	assert.Equal(t, []string{"2025-05"}, ev.Competencies)
	assert.Equal(t, []string{"E001"}, ev.EmployeeIDs)

	history := a.memory.History(resp.SessionID, 0)
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, "Quanto a Ana recebeu em maio/2025?", history[0].Content)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
	assert.Equal(t, ToolRAG, history[1].ToolUsed)

	assert.Equal(t, "specific_employee", a.memory.ContextString(resp.SessionID, KeyLastQueryType))
	assert.Equal(t, ToolRAG, a.memory.ContextString(resp.SessionID, KeyLastToolUsed))
	assert.Equal(t, "E001", a.memory.ContextString(resp.SessionID, KeyLastEmployeeID))
	assert.Equal(t, "Ana Souza", a.memory.ContextString(resp.SessionID, KeyLastEmployeeName))
	assert.Equal(t, "2025-05", a.memory.ContextString(resp.SessionID, KeyLastCompetency))
}

func TestProcessQuery_FollowUps(t *testing.T) {
	a := newAgent(t, Deps{})
	ctx := context.Background()

	first := a.ProcessQuery(ctx, "Quanto a Ana recebeu em maio/2025?", "")
	sid := first.SessionID

	t.Run("bare month borrows the year", func(t *testing.T) {
		resp := a.ProcessQuery(ctx, "e em junho?", sid)
		assert.Equal(t, sid, resp.SessionID)
		assert.Equal(t, types.IntentSpecificEmployee, resp.Intent)
		assert.Contains(t, resp.Response, "competência 06/2025")
		assert.Contains(t, resp.Response, "R$ 7.725,00")
		assert.True(t, strings.HasPrefix(resp.Response, "Vejo que você já consultou informações sobre Ana Souza."))
		assert.Equal(t, "2025-06", a.memory.ContextString(sid, KeyLastCompetency))
	})

	t.Run("metric only reuses the competency", func(t *testing.T) {
		resp := a.ProcessQuery(ctx, "e o IRRF?", sid)
		assert.Contains(t, resp.Response, "desconto de IRRF R$ 285,00")
		ev := resp.Evidence.(types.Evidence)
		assert.Equal(t, []string{"2025-06"}, ev.Competencies)
	})

	t.Run("no cue, no enrichment", func(t *testing.T) {
		resp := a.ProcessQuery(ctx, "Qual foi o desconto de INSS?", sid)
		assert.Equal(t, types.IntentDeduction, resp.Intent)
		ev := resp.Evidence.(types.Evidence)
		assert.True(t, ev.IsEmpty())
	})
}

func TestProcessQuery_FollowUpWithoutContext(t *testing.T) {
	a := newAgent(t, Deps{})
	resp := a.ProcessQuery(context.Background(), "e em junho?", "")
	assert.Equal(t, ToolGeneral, resp.ToolUsed)
	assert.Empty(t, a.memory.ContextString(resp.SessionID, KeyLastEmployeeID))
}

func TestProcessQuery_RendersWithGenerator(t *testing.T) {
	gen := &fakeGenerator{out: "A Ana recebeu R$ 8.418,75 em maio de 2025."}
	a := newAgent(t, Deps{Renderer: llm.NewRenderer(gen)})

	resp := a.ProcessQuery(context.Background(), "Quanto a Ana recebeu em maio/2025?", "")
	assert.Equal(t, "A Ana recebeu R$ 8.418,75 em maio de 2025.", resp.Response)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], llm.SystemPrompt)
	assert.Contains(t, gen.prompts[0], "Ana Souza (E001), competência 05/2025")
}

func TestProcessQuery_RenderFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	a := newAgent(t, Deps{Renderer: llm.NewRenderer(gen)})
	ctx := context.Background()

	first := a.ProcessQuery(ctx, "Quanto a Ana recebeu em maio/2025?", "")
	assert.Contains(t, first.Response, "R$ 8.418,75")

	second := a.ProcessQuery(ctx, "Quanto o Bruno Lima recebeu em maio/2025?", first.SessionID)
	assert.True(t, strings.HasPrefix(second.Response, "Vejo que você já consultou informações sobre Ana Souza."))
	assert.Contains(t, second.Response, "R$ 6.167,50")
}

func TestProcessQuery_NotFoundIsNotRendered(t *testing.T) {
	gen := &fakeGenerator{out: "não deveria aparecer"}
	a := newAgent(t, Deps{Renderer: llm.NewRenderer(gen)})

	resp := a.ProcessQuery(context.Background(), "Quanto o Carlos Mendes recebeu de salário líquido?", "")
	assert.Equal(t, ToolRAG, resp.ToolUsed)
	assert.Contains(t, resp.Response, "não encontrado")
	assert.Empty(t, gen.prompts)
	ev := resp.Evidence.(types.Evidence)
	assert.True(t, ev.IsEmpty())
}

func TestProcessQuery_Web(t *testing.T) {
	searcher := &fakeSearcher{result: types.WebResult{
		Success:  true,
		Fragment: "Baseado em 1 resultados da web:\n1. Direitos Trabalhistas (gov.br): férias, 13º salário, FGTS",
		Evidence: []types.Citation{{Source: "gov.br", Title: "Direitos Trabalhistas", URL: "https://www.gov.br"}},
	}}
	a := newAgent(t, Deps{Searcher: searcher})

	resp := a.ProcessQuery(context.Background(), "Quais são os direitos trabalhistas previstos na CLT?", "")
	assert.Equal(t, ToolWeb, resp.ToolUsed)
	assert.Equal(t, types.IntentWebLookup, resp.Intent)
	assert.Equal(t, searcher.result.Fragment, resp.Response)
	assert.Equal(t, searcher.result.Evidence, resp.Evidence)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, "web_lookup", a.memory.ContextString(resp.SessionID, KeyLastQueryType))
}

func TestProcessQuery_WebFailure(t *testing.T) {
	a := newAgent(t, Deps{Searcher: &fakeSearcher{err: errors.New("quota")}})

	resp := a.ProcessQuery(context.Background(), "Como funciona o FGTS?", "")
	assert.Equal(t, ToolWeb, resp.ToolUsed)
	assert.Equal(t, msgWebFailed, resp.Response)
	assert.Nil(t, resp.Evidence)
}

func TestProcessQuery_General(t *testing.T) {
	a := newAgent(t, Deps{})
	resp := a.ProcessQuery(context.Background(), "Olá, bom dia!", "")
	assert.Equal(t, ToolGeneral, resp.ToolUsed)
	assert.Equal(t, types.IntentGeneral, resp.Intent)
	assert.Equal(t, msgGeneralFall, resp.Response)

	gen := &fakeGenerator{out: "Bom dia! Como posso ajudar?"}
	a = newAgent(t, Deps{Renderer: llm.NewRenderer(gen)})
	resp = a.ProcessQuery(context.Background(), "Olá, bom dia!", "")
	assert.Equal(t, "Bom dia! Como posso ajudar?", resp.Response)
}

func TestProcessQuery_CancelledContext(t *testing.T) {
	a := newAgent(t, Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := a.ProcessQuery(ctx, "Quanto a Ana recebeu em maio/2025?", "sess-1")
	assert.Equal(t, ToolError, resp.ToolUsed)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Zero(t, a.SessionStats().TotalSessions)
}

func TestProcessQuery_ClientSessionID(t *testing.T) {
	a := newAgent(t, Deps{})
	resp := a.ProcessQuery(context.Background(), "oi", "minha-sessao")
	assert.Equal(t, "minha-sessao", resp.SessionID)

	summary, ok := a.ContextSummary("minha-sessao")
	require.True(t, ok)
	assert.Equal(t, 2, summary.TotalMessages)
	assert.Equal(t, []string{ToolGeneral}, summary.ToolsUsed)
}

func TestProcessQuery_DatasetUnavailable(t *testing.T) {
	a := New(Deps{})
	resp := a.ProcessQuery(context.Background(), "Quanto a Ana recebeu em maio/2025?", "")
	assert.Equal(t, ToolRAG, resp.ToolUsed)
	assert.Contains(t, resp.Response, "Dataset não disponível")
	assert.False(t, a.Health().DatasetAvailable)
}

func TestSessionManagement(t *testing.T) {
	a := newAgent(t, Deps{})
	ctx := context.Background()
	r1 := a.ProcessQuery(ctx, "oi", "")
	a.ProcessQuery(ctx, "oi", "")

	stats := a.SessionStats()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalMessages)
	assert.Equal(t, 0, a.CleanupSessions())

	assert.True(t, a.DeleteSession(r1.SessionID))
	assert.False(t, a.DeleteSession(r1.SessionID))
	_, ok := a.ContextSummary(r1.SessionID)
	assert.False(t, ok)
}

func TestHealth(t *testing.T) {
	a := newAgent(t, Deps{Renderer: llm.NewRenderer(&fakeGenerator{})})
	h := a.Health()
	assert.True(t, h.DatasetAvailable)
	assert.Equal(t, 12, h.Records)
	assert.Equal(t, 2, h.Employees)
	assert.Equal(t, "fake", h.LLMModel)
	assert.Empty(t, h.DatasetError)
}

func TestProcessQuery_ConcurrentSessions(t *testing.T) {
	a := newAgent(t, Deps{})
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			for j := 0; j < 10; j++ {
				resp := a.ProcessQuery(ctx, "Quanto recebi em maio/2025?", sid)
				assert.Equal(t, ToolRAG, resp.ToolUsed)
			}
		}(i)
	}
	wg.Wait()

	stats := a.SessionStats()
	assert.Equal(t, workers, stats.TotalSessions)
	assert.Equal(t, workers*20, stats.TotalMessages)
}

func TestWithContextNotes(t *testing.T) {
	assert.Equal(t, "fragmento", withContextNotes("fragmento", types.ContextSummary{}))

	got := withContextNotes("fragmento", types.ContextSummary{
		EmployeeMentions:      []string{"Ana Souza", "Bruno Lima"},
		TopicsDiscussed:       []string{"INSS"},
		CompetenciesMentioned: []string{"2025-05"},
	})
	assert.Equal(t, "Vejo que você já consultou informações sobre Ana Souza, Bruno Lima. "+
		"Anteriormente discutimos sobre INSS. Você já consultou dados das competências 2025-05.\n\nfragmento", got)
}

func TestIsFollowUp(t *testing.T) {
	a := newAgent(t, Deps{})
	for _, msg := range []string{"e em junho?", "E o IRRF?", "e na competência de abril?", "qual o bônus dele?", "E quanto ao mesmo mês?"} {
		assert.True(t, a.isFollowUp(msg), msg)
	}
	for _, msg := range []string{"Quanto a Ana recebeu?", "em junho", "entre janeiro e março", "oi"} {
		assert.False(t, a.isFollowUp(msg), msg)
	}
}

func TestBareMonth(t *testing.T) {
	a := newAgent(t, Deps{})
	assert.Equal(t, 6, a.bareMonth("e em junho?"))
	assert.Equal(t, 3, a.bareMonth("E em Março?"))
	assert.Zero(t, a.bareMonth("e o mar?"))
	assert.Zero(t, a.bareMonth("e o IRRF?"))
}
