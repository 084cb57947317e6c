package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is one message from the backend's websocket feed.
type Event struct {
	Type        string          `json:"type"`
	ExecutionID string          `json:"executionId,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

func (c *Client) WebSocketURL() string {
	base := c.BaseURL
	base = strings.Replace(base, "http://", "ws://", 1)
	base = strings.Replace(base, "https://", "wss://", 1)
	return base + "/ws"
}

// Subscribe connects to the event feed. The channel is closed when ctx is
// done or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, error) {
	header := http.Header{}
	if tok := c.session.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.WebSocketURL(), header)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	ch := make(chan Event, 32)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(ch)
		defer conn.Close()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.log.Debug("websocket read", zap.Error(err))
				}
				return
			}
			var evt Event
			if err := json.Unmarshal(message, &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
