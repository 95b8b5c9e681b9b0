package handlers

import (
	"context"

	"github.com/scrypster/folha/internal/agent"
	"github.com/scrypster/folha/pkg/types"
)

// MaxMessageLength is the longest accepted chat message, in characters.
const MaxMessageLength = 1000

// Assistant is the chat backend the handlers serve.
type Assistant interface {
	ProcessQuery(ctx context.Context, message, sessionID string) types.ChatResponse
	ContextSummary(id string) (types.ContextSummary, bool)
	SessionStats() types.SessionStats
	CleanupSessions() int
	DeleteSession(id string) bool
	Health() agent.Health
}

var _ Assistant = (*agent.Agent)(nil)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ChatRequest is the request body of POST /chat and POST /chat/{session_id}.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatReply is the response body of the chat endpoints.
type ChatReply struct {
	Response  string `json:"response"`
	Evidence  any    `json:"evidence"`
	ToolUsed  string `json:"tool_used"`
	SessionID string `json:"session_id"`
}

// HealthResponse is the response format for GET /health.
type HealthResponse struct {
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
	Agent     agent.Health `json:"agent"`
}

// CleanupResponse is the response format for POST /sessions/cleanup.
type CleanupResponse struct {
	Removed int                `json:"removed"`
	Stats   types.SessionStats `json:"stats"`
}

// ExamplesResponse lists sample questions per tool.
type ExamplesResponse struct {
	RAGExamples     []string `json:"rag_examples"`
	WebExamples     []string `json:"web_examples"`
	GeneralExamples []string `json:"general_examples"`
}

// ChatEvent is broadcast to websocket clients after every answered message.
type ChatEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ToolUsed  string `json:"tool_used"`
	Intent    string `json:"intent,omitempty"`
	Timestamp string `json:"timestamp"`
}
