package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/folha/pkg/types"
)

// fakeClock is a settable clock shared by a test and its Memory.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testMemory(clock *fakeClock, mutate func(*Config)) *Memory {
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	cfg.Topics = map[string][]string{
		"salário": {"salario"},
		"INSS":    {"inss"},
		"bônus":   {"bonus"},
	}
	cfg.Employees = []string{"Ana Souza", "Bruno Lima"}
	cfg.Competencies = []string{"2025-04", "2025-05", "2025-06"}
	cfg.Months = map[int][]string{4: {"abril", "abr"}, 5: {"maio", "mai"}, 6: {"junho", "jun"}}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestCreateSession(t *testing.T) {
	m := testMemory(newFakeClock(), nil)

	id := m.CreateSession("")
	require.NotEmpty(t, id)
	assert.Len(t, id, 36)

	named := m.CreateSession("abc")
	assert.Equal(t, "abc", named)
	assert.Equal(t, 2, m.Stats().TotalSessions)
}

func TestEnsureSession(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)

	id, created := m.EnsureSession("")
	assert.True(t, created)

	again, created := m.EnsureSession(id)
	assert.False(t, created)
	assert.Equal(t, id, again)

	unknown, created := m.EnsureSession("client-chosen")
	assert.True(t, created)
	assert.Equal(t, "client-chosen", unknown)

	require.True(t, m.AddTurn(id, RoleUser, "oi", "", nil))
	clock.Advance(25 * time.Hour)
	renewed, created := m.EnsureSession(id)
	assert.True(t, created)
	assert.Equal(t, id, renewed)
	assert.Empty(t, m.History(id, 0))
}

func TestAddTurn_UnknownSession(t *testing.T) {
	m := testMemory(newFakeClock(), nil)
	assert.False(t, m.AddTurn("missing", RoleUser, "oi", "", nil))
	assert.False(t, m.UpdateContextData("missing", "k", "v"))
	_, ok := m.ContextData("missing", "k")
	assert.False(t, ok)
	assert.Empty(t, m.History("missing", 10))
}

func TestTurnCap_DropsOldestKeepsContextData(t *testing.T) {
	m := testMemory(newFakeClock(), func(c *Config) { c.MaxTurnsPerSession = 3 })
	id := m.CreateSession("")

	require.True(t, m.UpdateContextData(id, "last_employee_id", "E001"))
	for i := 1; i <= 5; i++ {
		require.True(t, m.AddTurn(id, RoleUser, fmt.Sprintf("turn %d", i), "", nil))
	}

	history := m.History(id, 0)
	require.Len(t, history, 3)
	assert.Equal(t, "turn 3", history[0].Content)
	assert.Equal(t, "turn 5", history[2].Content)

	v, ok := m.ContextData(id, "last_employee_id")
	require.True(t, ok)
	assert.Equal(t, "E001", v)
	assert.Equal(t, "E001", m.ContextString(id, "last_employee_id"))
}

func TestHistory_Max(t *testing.T) {
	m := testMemory(newFakeClock(), nil)
	id := m.CreateSession("")
	for i := 1; i <= 4; i++ {
		m.AddTurn(id, RoleUser, fmt.Sprintf("turn %d", i), "", nil)
	}

	last := m.History(id, 2)
	require.Len(t, last, 2)
	assert.Equal(t, "turn 3", last[0].Content)

	last[0].Content = "changed"
	assert.Equal(t, "turn 3", m.History(id, 2)[0].Content)
}

func TestCommit(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)
	id := m.CreateSession("")
	clock.Advance(time.Minute)

	ok := m.Commit(id, []types.Turn{
		{Role: RoleUser, Content: "Quanto a Ana recebeu?"},
		{Role: RoleAssistant, Content: "R$ 7.725,00", ToolUsed: "rag"},
	}, map[string]any{"last_tool_used": "rag", "last_employee_id": "E001"})
	require.True(t, ok)

	history := m.History(id, 0)
	require.Len(t, history, 2)
	assert.Equal(t, clock.Now(), history[0].Timestamp)
	assert.Equal(t, "rag", m.ContextString(id, "last_tool_used"))

	summary, ok := m.ContextSummary(id)
	require.True(t, ok)
	assert.Equal(t, clock.Now(), summary.LastActivity)
}

func TestEvictExpired(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)

	stale := m.CreateSession("stale")
	clock.Advance(23 * time.Hour)
	fresh := m.CreateSession("fresh")
	for i := 0; i < 10; i++ {
		m.CreateSession("")
	}
	clock.Advance(2 * time.Hour)

	removed := m.EvictExpired()
	assert.Equal(t, 1, removed)
	_, ok := m.ContextSummary(stale)
	assert.False(t, ok)
	_, ok = m.ContextSummary(fresh)
	assert.True(t, ok)
}

func TestCreateSession_EvictsExpiredLazily(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)
	old := m.CreateSession("")
	clock.Advance(24*time.Hour + time.Second)

	m.CreateSession("")
	_, ok := m.ContextSummary(old)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Stats().TotalSessions)
}

func TestEvictOverflow(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, func(c *Config) { c.MaxSessions = 2 })

	first := m.CreateSession("first")
	clock.Advance(time.Minute)
	second := m.CreateSession("second")
	clock.Advance(time.Minute)
	third := m.CreateSession("third")
	clock.Advance(time.Minute)
	m.AddTurn(first, RoleUser, "ainda aqui", "", nil)

	assert.Equal(t, 3, m.Stats().TotalSessions, "overflow is only enforced on cleanup")
	assert.Equal(t, 1, m.EvictOverflow())

	_, ok := m.ContextSummary(second)
	assert.False(t, ok)
	for _, id := range []string{first, third} {
		_, ok := m.ContextSummary(id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, 0, m.EvictOverflow())
}

func TestCleanupAndDelete(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, func(c *Config) { c.MaxSessions = 1 })
	m.CreateSession("a")
	clock.Advance(25 * time.Hour)
	require.NoError(t, m.Import([]byte(`{"session_id":"b","messages":[],"context_data":{},"created_at":"2025-06-02T10:00:00Z","last_activity":"2025-06-02T10:00:00Z"}`)))
	m.CreateSession("c")

	// "a" is expired and goes lazily; "b" overflows on cleanup.
	assert.Equal(t, 1, m.Cleanup())
	assert.Equal(t, 1, m.Stats().TotalSessions)

	assert.True(t, m.Delete("c"))
	assert.False(t, m.Delete("c"))
	assert.Equal(t, 0, m.Stats().TotalSessions)
}

func TestStats(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)
	idle := m.CreateSession("idle")
	m.AddTurn(idle, RoleUser, "um", "", nil)
	clock.Advance(2 * time.Hour)
	active := m.CreateSession("active")
	m.AddTurn(active, RoleUser, "dois", "", nil)
	m.AddTurn(active, RoleAssistant, "três", "general", nil)

	stats := m.Stats()
	assert.Equal(t, types.SessionStats{
		TotalSessions:      2,
		TotalMessages:      3,
		ActiveSessions:     1,
		MaxSessions:        DefaultMaxSessions,
		MaxTurnsPerSession: DefaultMaxTurnsPerSession,
	}, stats)
}

func TestContextSummary(t *testing.T) {
	m := testMemory(newFakeClock(), nil)
	id := m.CreateSession("")

	m.AddTurn(id, RoleUser, "Quanto a Ana Souza recebeu de salário em maio/2025?", "", nil)
	m.AddTurn(id, RoleAssistant, "Ana Souza (E001), competência 05/2025: salário líquido R$ 8.418,75.", "rag", nil)
	m.AddTurn(id, RoleUser, "E o INSS de junho de 2025 do Bruno Lima?", "", nil)
	m.AddTurn(id, RoleAssistant, "Bruno Lima, competência 2025-06: desconto de INSS R$ 660,00.", "rag", nil)
	m.AddTurn(id, RoleUser, "o que diz a lei?", "web", nil)
	m.UpdateContextData(id, "last_query_type", "deduction")

	summary, ok := m.ContextSummary(id)
	require.True(t, ok)
	assert.Equal(t, id, summary.SessionID)
	assert.Equal(t, 5, summary.TotalMessages)
	assert.Equal(t, []string{"rag", "web"}, summary.ToolsUsed)
	assert.Equal(t, []string{"INSS", "salário"}, summary.TopicsDiscussed)
	assert.Equal(t, []string{"Ana Souza", "Bruno Lima"}, summary.EmployeeMentions)
	assert.Equal(t, []string{"2025-05", "2025-06"}, summary.CompetenciesMentioned)
	assert.Equal(t, "deduction", summary.ContextData["last_query_type"])
}

func TestContextSummary_Empty(t *testing.T) {
	m := testMemory(newFakeClock(), nil)
	id := m.CreateSession("")

	summary, ok := m.ContextSummary(id)
	require.True(t, ok)
	assert.Zero(t, summary.TotalMessages)
	assert.Empty(t, summary.ToolsUsed)
	assert.NotNil(t, summary.TopicsDiscussed)
}

func TestExportImport(t *testing.T) {
	clock := newFakeClock()
	m := testMemory(clock, nil)
	id := m.CreateSession("")
	m.AddTurn(id, RoleUser, "Quanto recebi em maio/2025?", "", nil)
	m.UpdateContextData(id, "last_competency", "2025-05")

	data, err := m.Export(id)
	require.NoError(t, err)

	other := testMemory(clock, nil)
	require.NoError(t, other.Import(data))
	assert.Equal(t, m.History(id, 0), other.History(id, 0))
	assert.Equal(t, "2025-05", other.ContextString(id, "last_competency"))

	_, err = m.Export("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Error(t, other.Import([]byte("{")))
	assert.Error(t, other.Import([]byte(`{"messages":[]}`)))
}

func TestConcurrentSessions(t *testing.T) {
	m := testMemory(newFakeClock(), func(c *Config) { c.MaxTurnsPerSession = 1000 })

	const sessions, turns = 8, 50
	ids := make([]string, sessions)
	for i := range ids {
		ids[i] = m.CreateSession("")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < turns; j++ {
				m.Commit(id, []types.Turn{
					{Role: RoleUser, Content: "pergunta"},
					{Role: RoleAssistant, Content: "resposta"},
				}, map[string]any{"n": j})
				m.ContextSummary(id)
				m.Stats()
			}
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < turns; j++ {
			m.Cleanup()
		}
	}()
	wg.Wait()

	for _, id := range ids {
		assert.Len(t, m.History(id, 0), 2*turns)
		n, ok := m.ContextData(id, "n")
		require.True(t, ok)
		assert.Equal(t, turns-1, n)
	}
}
