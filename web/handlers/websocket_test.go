package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scrypster/folha/web/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
)

func TestWebSocketHub_RejectsForeignOrigin(t *testing.T) {
	hub := handlers.NewWebSocketHub("http://localhost:8080")
	defer hub.Stop()

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.com")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	w := httptest.NewRecorder()
	hub.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebSocketHub_Broadcast(t *testing.T) {
	hub := handlers.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	received := make(chan []byte, 1)
	hub.Register(&handlers.MockClient{SendChan: received})

	hub.Broadcast(handlers.ChatEvent{Type: "chat", SessionID: "s1", ToolUsed: "rag"})

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), `"session_id":"s1"`)
		assert.Contains(t, string(msg), `"tool_used":"rag"`)
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for broadcast message")
	}
}

func TestWebSocketHub_DropsSlowClient(t *testing.T) {
	hub := handlers.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	hub.Register(&handlers.MockClient{SendChan: make(chan []byte)})
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(map[string]string{"type": "chat"})
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketHub_DeliversChatEvents(t *testing.T) {
	hub := handlers.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	h := handlers.NewChatHandlers(newFakeAssistant(), hub)
	call := httptest.NewRecorder()
	h.Chat(call, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"oi"}`)))
	require.Equal(t, http.StatusOK, call.Code)

	_, data, err := conn.Read(ctx) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)

	var ev handlers.ChatEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "chat", ev.Type)
	assert.Equal(t, "generated", ev.SessionID)
	assert.Equal(t, "web", ev.ToolUsed)
}
