// Package conversation keeps per-session turn logs and context data for the
// payroll assistant. Sessions live only for the lifetime of the process.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/folha/pkg/types"
)

// ErrSessionNotFound is returned when an operation names an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// Roles of a turn.
const (
	RoleUser      = types.RoleUser
	RoleAssistant = types.RoleAssistant
)

// Defaults used by DefaultConfig.
const (
	DefaultMaxSessions        = 100
	DefaultMaxTurnsPerSession = 50
	DefaultSessionTimeout     = 24 * time.Hour
	DefaultActiveWindow       = time.Hour
)

// Config bounds the memory and names the vocabularies the context summary
// looks for.
type Config struct {
	MaxSessions        int
	MaxTurnsPerSession int
	SessionTimeout     time.Duration
	ActiveWindow       time.Duration

	// Topics maps a display topic to folded keywords.
	Topics map[string][]string
	// Employees are display names matched on word boundaries.
	Employees []string
	// Competencies are the known YYYY-MM periods.
	Competencies []string
	// Months maps a month number to its names; the first name is the one
	// matched in turn content.
	Months map[int][]string

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default bounds with empty vocabularies.
func DefaultConfig() Config {
	return Config{
		MaxSessions:        DefaultMaxSessions,
		MaxTurnsPerSession: DefaultMaxTurnsPerSession,
		SessionTimeout:     DefaultSessionTimeout,
		ActiveWindow:       DefaultActiveWindow,
		Now:                time.Now,
	}
}

// session pairs the stored state with its own lock. The map lock is never
// acquired while a session lock is held.
type session struct {
	mu    sync.Mutex
	state types.Session
}

// Memory is the session registry. Safe for concurrent use; operations on
// different sessions only contend on the short map lock.
type Memory struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates a Memory. Zero bounds in cfg fall back to the defaults.
func New(cfg Config) *Memory {
	def := DefaultConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.MaxTurnsPerSession <= 0 {
		cfg.MaxTurnsPerSession = def.MaxTurnsPerSession
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = def.SessionTimeout
	}
	if cfg.ActiveWindow <= 0 {
		cfg.ActiveWindow = def.ActiveWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Memory{
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// CreateSession registers a new empty session and returns its id. An empty
// id gets a random UUID. Expired sessions are evicted first. An existing
// session with the same id is replaced.
func (m *Memory) CreateSession(id string) string {
	if id == "" {
		id = uuid.New().String()
	}
	m.EvictExpired()

	now := m.cfg.Now()
	s := &session{state: types.Session{
		ID:           id,
		Turns:        []types.Turn{},
		ContextData:  map[string]any{},
		CreatedAt:    now,
		LastActivity: now,
	}}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Printf("conversation: created session %s", id)
	return id
}

// EnsureSession returns id when it names a live session, or creates one.
// The boolean reports whether a session was created.
func (m *Memory) EnsureSession(id string) (string, bool) {
	if id != "" {
		if s, ok := m.get(id); ok {
			s.mu.Lock()
			expired := m.expired(s.state.LastActivity)
			s.mu.Unlock()
			if !expired {
				return id, false
			}
		}
	}
	return m.CreateSession(id), true
}

func (m *Memory) get(id string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Memory) expired(last time.Time) bool {
	return m.cfg.Now().Sub(last) > m.cfg.SessionTimeout
}

// AddTurn appends one turn to the session.
func (m *Memory) AddTurn(id, role, content, tool string, evidence any) bool {
	turn := types.Turn{Role: role, Content: content, ToolUsed: tool, Evidence: evidence}
	return m.Commit(id, []types.Turn{turn}, nil)
}

// Commit appends turns and merges data into the context data as one update.
// Turns without a timestamp are stamped with the current time. The turn log
// keeps only the most recent MaxTurnsPerSession entries; context data is not
// affected by that cap.
func (m *Memory) Commit(id string, turns []types.Turn, data map[string]any) bool {
	s, ok := m.get(id)
	if !ok {
		log.Printf("WARNING: conversation: session not found: %s", id)
		return false
	}

	now := m.cfg.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range turns {
		if t.Timestamp.IsZero() {
			t.Timestamp = now
		}
		s.state.Turns = append(s.state.Turns, t)
	}
	if over := len(s.state.Turns) - m.cfg.MaxTurnsPerSession; over > 0 {
		s.state.Turns = append([]types.Turn(nil), s.state.Turns[over:]...)
	}
	for k, v := range data {
		s.state.ContextData[k] = v
	}
	s.state.LastActivity = now
	return true
}

// History returns up to max of the most recent turns, oldest first. max <= 0
// returns every stored turn.
func (m *Memory) History(id string, max int) []types.Turn {
	s, ok := m.get(id)
	if !ok {
		return []types.Turn{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.state.Turns
	if max > 0 && len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	return append([]types.Turn{}, turns...)
}

// UpdateContextData sets one context key.
func (m *Memory) UpdateContextData(id, key string, value any) bool {
	return m.Commit(id, nil, map[string]any{key: value})
}

// ContextData reads one context key.
func (m *Memory) ContextData(id, key string) (any, bool) {
	s, ok := m.get(id)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.ContextData[key]
	return v, ok
}

// ContextString reads a string context key; other types read as absent.
func (m *Memory) ContextString(id, key string) string {
	v, _ := m.ContextData(id, key)
	s, _ := v.(string)
	return s
}

// EvictExpired removes every session idle longer than the timeout and
// returns how many were removed.
func (m *Memory) EvictExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		expired := m.expired(s.state.LastActivity)
		s.mu.Unlock()
		if expired {
			delete(m.sessions, id)
			removed++
			log.Printf("conversation: evicted expired session %s", id)
		}
	}
	return removed
}

// EvictOverflow removes the least recently active sessions until at most
// MaxSessions remain and returns how many were removed.
func (m *Memory) EvictOverflow() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	over := len(m.sessions) - m.cfg.MaxSessions
	if over <= 0 {
		return 0
	}

	type entry struct {
		id   string
		last time.Time
	}
	entries := make([]entry, 0, len(m.sessions))
	for id, s := range m.sessions {
		s.mu.Lock()
		entries = append(entries, entry{id: id, last: s.state.LastActivity})
		s.mu.Unlock()
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].last.Equal(entries[j].last) {
			return entries[i].id < entries[j].id
		}
		return entries[i].last.Before(entries[j].last)
	})

	for _, e := range entries[:over] {
		delete(m.sessions, e.id)
		log.Printf("conversation: evicted session %s over the %d session cap", e.id, m.cfg.MaxSessions)
	}
	return over
}

// Cleanup runs both eviction passes and returns the total removed.
func (m *Memory) Cleanup() int {
	return m.EvictExpired() + m.EvictOverflow()
}

// Delete removes a session.
func (m *Memory) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Stats summarizes the registry.
func (m *Memory) Stats() types.SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.SessionStats{
		TotalSessions:      len(m.sessions),
		MaxSessions:        m.cfg.MaxSessions,
		MaxTurnsPerSession: m.cfg.MaxTurnsPerSession,
	}
	now := m.cfg.Now()
	for _, s := range m.sessions {
		s.mu.Lock()
		stats.TotalMessages += len(s.state.Turns)
		if now.Sub(s.state.LastActivity) < m.cfg.ActiveWindow {
			stats.ActiveSessions++
		}
		s.mu.Unlock()
	}
	return stats
}

// Export serializes a session to JSON.
func (m *Memory) Export(id string) ([]byte, error) {
	s, ok := m.get(id)
	if !ok {
		return nil, fmt.Errorf("export %s: %w", id, ErrSessionNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.state)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", id, err)
	}
	return data, nil
}

// Import restores a session previously produced by Export, replacing any
// session with the same id. The turn cap is applied to the imported log.
func (m *Memory) Import(data []byte) error {
	var st types.Session
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("ERROR: conversation: failed to import session: %v", err)
		return fmt.Errorf("import session: %w", err)
	}
	if st.ID == "" {
		return errors.New("import session: missing session_id")
	}
	if st.Turns == nil {
		st.Turns = []types.Turn{}
	}
	if over := len(st.Turns) - m.cfg.MaxTurnsPerSession; over > 0 {
		st.Turns = st.Turns[over:]
	}
	if st.ContextData == nil {
		st.ContextData = map[string]any{}
	}

	m.mu.Lock()
	m.sessions[st.ID] = &session{state: st}
	m.mu.Unlock()

	log.Printf("conversation: imported session %s", st.ID)
	return nil
}
