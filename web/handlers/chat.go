package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Version is reported by / and /health.
const Version = "1.0.0"

// maxBodyBytes bounds chat request bodies.
const maxBodyBytes = 64 << 10

// Broadcaster receives chat events. *WebSocketHub implements it.
type Broadcaster interface {
	Broadcast(message interface{})
}

// ChatHandlers serves the chat and session endpoints.
type ChatHandlers struct {
	assistant Assistant
	events    Broadcaster
	now       func() time.Time
}

// NewChatHandlers creates the handlers. events may be nil.
func NewChatHandlers(assistant Assistant, events Broadcaster) *ChatHandlers {
	return &ChatHandlers{assistant: assistant, events: events, now: time.Now}
}

// Chat handles POST /chat and POST /chat/{session_id}. The path session id
// takes precedence over the one in the body.
func (h *ChatHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req ChatRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validateMessage(req.Message); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid message", err)
		return
	}

	sessionID := req.SessionID
	if id := r.PathValue("session_id"); id != "" {
		sessionID = id
	}

	resp := h.assistant.ProcessQuery(r.Context(), req.Message, sessionID)
	if h.events != nil {
		h.events.Broadcast(ChatEvent{
			Type:      "chat",
			SessionID: resp.SessionID,
			ToolUsed:  resp.ToolUsed,
			Intent:    string(resp.Intent),
			Timestamp: h.now().Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, ChatReply{
		Response:  resp.Response,
		Evidence:  resp.Evidence,
		ToolUsed:  resp.ToolUsed,
		SessionID: resp.SessionID,
	})
}

// SessionContext handles GET /sessions/{session_id}/context.
func (h *ChatHandlers) SessionContext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	summary, ok := h.assistant.ContextSummary(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found", fmt.Errorf("session %q", id))
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// SessionStats handles GET /sessions/stats.
func (h *ChatHandlers) SessionStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.assistant.SessionStats())
}

// CleanupSessions handles POST /sessions/cleanup.
func (h *ChatHandlers) CleanupSessions(w http.ResponseWriter, r *http.Request) {
	removed := h.assistant.CleanupSessions()
	respondJSON(w, http.StatusOK, CleanupResponse{Removed: removed, Stats: h.assistant.SessionStats()})
}

// DeleteSession handles DELETE /sessions/{session_id}.
func (h *ChatHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	if !h.assistant.DeleteSession(id) {
		respondError(w, http.StatusNotFound, "session not found", fmt.Errorf("session %q", id))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Sessão %s removida com sucesso", id),
	})
}

// Health handles GET /health. The service stays healthy without a dataset;
// the status degrades so monitors can tell.
func (h *ChatHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ah := h.assistant.Health()
	status := "healthy"
	if !ah.DatasetAvailable {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   Version,
		Timestamp: h.now().Format(time.RFC3339),
		Agent:     ah,
	})
}

// Examples handles GET /examples.
func (h *ChatHandlers) Examples(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ExamplesResponse{
		RAGExamples: []string{
			"Qual é o salário da Ana Souza?",
			"Quanto recebi em maio/2025? (Ana Souza)",
			"Qual o total líquido de Ana Souza no 1º trimestre de 2025?",
			"Qual foi o desconto de INSS do Bruno em junho/2025?",
			"Quando foi pago o salário de abril/2025 do Bruno e qual o líquido?",
			"Qual foi o maior bônus do Bruno e em que mês?",
		},
		WebExamples: []string{
			"Traga a taxa Selic atual e cite a fonte",
			"Como calcular férias proporcionais?",
			"Qual é o valor do FGTS?",
			"Como funciona o 13º salário?",
			"Quais são os direitos trabalhistas?",
		},
		GeneralExamples: []string{
			"Olá, como você está?",
			"Obrigado pela ajuda",
			"Preciso de mais informações",
		},
	})
}

// Index handles GET /.
func (h *ChatHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message":   "Chatbot de Folha de Pagamento API",
		"version":   Version,
		"status":    "running",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// validateMessage enforces 1..MaxMessageLength characters of non-blank text.
func validateMessage(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return errors.New("message must not be empty")
	}
	if n := utf8.RuneCountInString(msg); n > MaxMessageLength {
		return fmt.Errorf("message has %d characters, limit is %d", n, MaxMessageLength)
	}
	return nil
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		log.Printf("ERROR: handlers: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
