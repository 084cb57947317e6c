package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameops/cli/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sess, err := session.New(&session.MemoryStore{})
	require.NoError(t, err)
	return New(srv.URL, sess, WithHTTPClient(srv.Client())), sess
}

func writeEnvelope(w http.ResponseWriter, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"code": code}
	if msg != "" {
		body["message"] = msg
	}
	if data != nil {
		body["data"] = data
	}
	json.NewEncoder(w).Encode(body)
}

func TestDoAttachesBearerAndJSONContentType(t *testing.T) {
	var gotAuth, gotType string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		writeEnvelope(w, 0, "", nil)
	})
	require.NoError(t, sess.SetToken("tok-1"))

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/x", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestDoKeepsExplicitContentTypeAndSkipsEmptyToken(t *testing.T) {
	var gotAuth, gotType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		writeEnvelope(w, 0, "", nil)
	})

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/x", strings.NewReader("a=1"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
}

func TestUnauthorizedExpiresSessionFromAnyEndpoint(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	calls := []func() error{
		func() error { _, err := c.Detect(context.Background()); return err },
		func() error { _, err := c.ListHistory(context.Background(), HistoryQuery{Page: 1, PageSize: 20}); return err },
		func() error { _, err := c.ListUsers(context.Background(), ""); return err },
		func() error { return c.ChangePassword(context.Background(), "a", "b") },
	}

	for _, call := range calls {
		require.NoError(t, sess.SetToken("stale"))
		redirected := 0
		unsub := sess.OnExpired(func() { redirected++ })

		err := call()
		unsub()

		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Empty(t, sess.Token(), "credential must be cleared")
		assert.Equal(t, 1, redirected, "login redirect must fire once")
	}
}

func TestApplicationErrorCarriesMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1002, "没有需要更新的配置", nil)
	})

	_, err := c.Detect(context.Background())
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNothingToUpdate))
	assert.Equal(t, "没有需要更新的配置", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1002, apiErr.Code)
}

func TestApplicationErrorFallbackMessage(t *testing.T) {
	err := (&APIError{Code: 7}).Error()
	assert.Equal(t, "request failed (code 7)", err)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	sess, err := session.New(&session.MemoryStore{})
	require.NoError(t, err)
	c := New("http://127.0.0.1:1", sess)

	_, err = c.PreCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
	assert.False(t, IsCode(err, CodeNothingToUpdate))
}

func TestExecuteSendsDetectPayload(t *testing.T) {
	var got DetectResult
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hot-update/execute", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, 0, "", ExecutionStart{ExecutionID: "e-1", Steps: []string{"upload", "restart"}})
	})

	detect := &DetectResult{
		HasSchemaChange: false,
		Changes:         []ChangeItem{{Name: "t_level", Type: ChangeData}},
		ConfigFiles:     []string{"level_config.json"},
	}
	start, err := c.Execute(context.Background(), detect)
	require.NoError(t, err)

	assert.Equal(t, "e-1", start.ExecutionID)
	assert.Equal(t, []string{"upload", "restart"}, start.Steps)
	assert.Equal(t, *detect, got)
}

func TestListHistoryQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "张策划", q.Get("keyword"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "20", q.Get("pageSize"))
		writeEnvelope(w, 0, "", HistoryPage{List: []HistoryItem{{ID: 1, Executor: "张策划", Status: HistorySuccess}}})
	})

	page, err := c.ListHistory(context.Background(), HistoryQuery{Keyword: "张策划", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, HistorySuccess, page.List[0].Status)
}

func TestLoginStoresToken(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Username != "admin" || req.Password != "admin" {
			writeEnvelope(w, 1001, "用户名或密码错误", nil)
			return
		}
		writeEnvelope(w, 0, "", map[string]string{"token": "fresh"})
	})

	err := c.Login(context.Background(), "admin", "nope")
	require.Error(t, err)
	assert.Empty(t, sess.Token())

	require.NoError(t, c.Login(context.Background(), "admin", "admin"))
	assert.Equal(t, "fresh", sess.Token())
}

func TestExecutionStatusTerminal(t *testing.T) {
	assert.False(t, ExecutionRunning.Terminal())
	assert.True(t, ExecutionSuccess.Terminal())
	assert.True(t, ExecutionError.Terminal())
}

func TestWebSocketURL(t *testing.T) {
	sess, err := session.New(&session.MemoryStore{})
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:7777/ws", New("http://127.0.0.1:7777", sess).WebSocketURL())
	assert.Equal(t, "wss://ops.example.com/ws", New("https://ops.example.com", sess).WebSocketURL())
}
