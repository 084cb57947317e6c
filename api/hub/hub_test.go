package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBroadcastReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(nil, zap.NewNop())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnect))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	h.Broadcast(Event{Type: EventStep, ExecutionID: "abc", Payload: map[string]string{"step": "upload", "status": "running"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type        string            `json:"type"`
		ExecutionID string            `json:"executionId"`
		Payload     map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, EventStep, got.Type)
	assert.Equal(t, "abc", got.ExecutionID)
	assert.Equal(t, "upload", got.Payload["step"])
}

func TestCheckOrigin(t *testing.T) {
	h := New([]string{"https://ops.example.com"}, zap.NewNop())
	check := h.upgrader.CheckOrigin

	for origin, want := range map[string]bool{
		"":                        true,
		"https://ops.example.com": true,
		"http://localhost:5173":   true,
		"http://127.0.0.1:3000":   true,
		"https://evil.example":    false,
	} {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, check(r), origin)
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Broadcast(Event{Type: EventStatus}) })
	assert.Equal(t, 0, h.Clients())
}
