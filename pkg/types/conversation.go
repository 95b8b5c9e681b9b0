package types

import "time"

// Turn is one message in a conversation.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ToolUsed  string    `json:"tool_used,omitempty"`
	Evidence  any       `json:"evidence,omitempty"`
}

// Session is the bounded, time-limited conversation state for one user stream.
type Session struct {
	ID           string         `json:"session_id"`
	Turns        []Turn         `json:"messages"`
	ContextData  map[string]any `json:"context_data"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
}

// ContextSummary is derived from a session's turns on every read.
type ContextSummary struct {
	SessionID             string         `json:"session_id"`
	TotalMessages         int            `json:"total_messages"`
	CreatedAt             time.Time      `json:"created_at"`
	LastActivity          time.Time      `json:"last_activity"`
	ToolsUsed             []string       `json:"tools_used"`
	TopicsDiscussed       []string       `json:"topics_discussed"`
	EmployeeMentions      []string       `json:"employee_mentions"`
	CompetenciesMentioned []string       `json:"competencies_mentioned"`
	ContextData           map[string]any `json:"context_data,omitempty"`
}

// SessionStats summarizes the memory component.
type SessionStats struct {
	TotalSessions      int `json:"total_sessions"`
	TotalMessages      int `json:"total_messages"`
	ActiveSessions     int `json:"active_sessions"`
	MaxSessions        int `json:"max_sessions"`
	MaxTurnsPerSession int `json:"max_messages_per_session"`
}
