package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameops/cli/api"
	"gameops/cli/history"
	"gameops/cli/hotupdate"
	"gameops/cli/session"
)

func TestCheckNewPassword(t *testing.T) {
	assert.EqualError(t, checkNewPassword("", "secret1", "secret1"), "请输入当前密码")
	assert.EqualError(t, checkNewPassword("old", "12345", "12345"), "新密码长度不能少于 6 位")
	assert.EqualError(t, checkNewPassword("old", "secret1", "secret2"), "两次输入的新密码不一致")
	assert.NoError(t, checkNewPassword("old", "密码六个字符", "密码六个字符"))
}

func TestRouteOfWalksParents(t *testing.T) {
	parent := &cobra.Command{Use: "hot-update", Annotations: withRoute("/hot-update")}
	child := &cobra.Command{Use: "history"}
	parent.AddCommand(child)
	lone := &cobra.Command{Use: "version"}

	assert.Equal(t, "/hot-update", routeOf(child))
	assert.Equal(t, "/hot-update", routeOf(parent))
	assert.Empty(t, routeOf(lone))
}

func TestPadRightCountsDisplayWidth(t *testing.T) {
	assert.Equal(t, 10, lipgloss.Width(padRight("执行人", 10)))
	assert.Equal(t, 6, lipgloss.Width(padRight("abc", 6)))
	assert.Equal(t, "toolong", padRight("toolong", 3))
}

func TestExplain(t *testing.T) {
	assert.Contains(t, explain(api.ErrUnauthorized, "x").Error(), "登录已过期")
	assert.Equal(t, "用户不存在", explain(&api.APIError{Code: 1004, Message: "用户不存在"}, "x").Error())
	assert.Equal(t, "封禁失败", explain(&api.APIError{Code: 1500}, "封禁失败").Error())
	assert.Contains(t, explain(errors.New("dial tcp: refused"), "x").Error(), "网络错误")
}

func TestRenderHistory(t *testing.T) {
	empty := renderHistory(history.State{Keyword: "nothing", Empty: true}, 0)
	assert.Contains(t, empty, "暂无匹配记录")

	failed := renderHistory(history.State{Err: errors.New("boom")}, 0)
	assert.Contains(t, failed, "boom")

	items := []api.HistoryItem{
		{Title: "配置更新成功", Time: "2026-02-02 14:32:18", Executor: "张策划", Commit: "a1b2c3d4", Status: api.HistorySuccess},
		{Title: "配置回滚", Time: "2026-01-31 16:28:05", Executor: "王运维", Commit: "c3d4e5f6", Status: api.HistoryRollback},
	}
	out := renderHistory(history.State{Items: items}, 1)
	assert.Contains(t, out, "张策划")
	assert.NotContains(t, out, "王运维")
	assert.Contains(t, out, "另有 1 条")
}

func TestSignalChangeCoalesces(t *testing.T) {
	ch := make(chan struct{}, 1)
	signalChange(ch)
	signalChange(ch)
	signalChange(ch)
	assert.Len(t, ch, 1)
	<-ch
	assert.Len(t, ch, 0)
}

func TestFormatEvent(t *testing.T) {
	raw := func(v interface{}) json.RawMessage {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return b
	}

	step := formatEvent(api.Event{Type: "hotupdate.step", ExecutionID: "0123456789", Payload: raw(map[string]string{"step": "upload", "status": "running"})})
	assert.Contains(t, step, "upload")
	assert.Contains(t, step, "01234567")

	log := formatEvent(api.Event{Type: "hotupdate.log", Payload: raw(map[string]interface{}{
		"step": "build",
		"line": map[string]string{"time": "10:00:00", "content": "Compiling schemas...", "type": "info"},
	})})
	assert.Contains(t, log, "Compiling schemas...")

	status := formatEvent(api.Event{Type: "server.status", Payload: raw(map[string]interface{}{"locked": true, "lockedBy": "张策划", "pendingChanges": 3})})
	assert.Contains(t, status, "张策划")
	assert.Contains(t, status, "pending=3")

	assert.Empty(t, formatEvent(api.Event{Type: "something.else"}))
}

type scriptedBackend struct {
	mu        sync.Mutex
	snapshots []*api.Execution
	calls     int
}

func (b *scriptedBackend) Detect(ctx context.Context) (*api.DetectResult, error) {
	return nil, errors.New("not used")
}

func (b *scriptedBackend) PreCheck(ctx context.Context) (*api.PreCheckResult, error) {
	return &api.PreCheckResult{CanExecute: true}, nil
}

func (b *scriptedBackend) Execute(ctx context.Context, d *api.DetectResult) (*api.ExecutionStart, error) {
	return nil, errors.New("not used")
}

func (b *scriptedBackend) GetExecution(ctx context.Context, id string) (*api.Execution, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := min(b.calls, len(b.snapshots)-1)
	b.calls++
	return b.snapshots[n], nil
}

func scriptStep(key string, status api.StepStatus, logs ...string) api.ExecutionStep {
	s := api.ExecutionStep{Key: key, Title: key, Status: status}
	for _, l := range logs {
		s.Logs = append(s.Logs, api.LogLine{Time: "10:00:00", Content: l})
	}
	return s
}

func followScript(t *testing.T, final api.ExecutionStatus, last api.StepStatus) error {
	t.Helper()
	backend := &scriptedBackend{snapshots: []*api.Execution{
		{Status: api.ExecutionRunning, Steps: []api.ExecutionStep{scriptStep("upload", api.StepRunning, "开始上传配置文件..."), scriptStep("restart", api.StepIdle)}},
		{Status: final, Steps: []api.ExecutionStep{scriptStep("upload", api.StepSuccess, "开始上传配置文件...", "✓ 上传完成"), scriptStep("restart", last, "正在停止当前服务...")}},
	}}

	changed := make(chan struct{}, 1)
	ctrl := hotupdate.New(backend,
		hotupdate.WithPollInterval(5*time.Millisecond),
		hotupdate.WithOnChange(func(hotupdate.State) { signalChange(changed) }),
	)
	defer ctrl.Close()
	require.NoError(t, ctrl.Resume("exec-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return follow(ctx, ctrl, changed)
}

func TestFollowUntilSuccess(t *testing.T) {
	assert.NoError(t, followScript(t, api.ExecutionSuccess, api.StepSuccess))
}

func TestFollowReportsFailure(t *testing.T) {
	err := followScript(t, api.ExecutionError, api.StepError)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed"))
}

func TestFollowStopsWhenSessionExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	expiring, err := session.New(&session.MemoryStore{})
	require.NoError(t, err)
	require.NoError(t, expiring.SetToken("stale-token"))
	apiClient := api.New(srv.URL, expiring)

	changed := make(chan struct{}, 1)
	ctrl := hotupdate.New(apiClient,
		hotupdate.WithPollInterval(5*time.Millisecond),
		hotupdate.WithOnChange(func(hotupdate.State) { signalChange(changed) }),
	)
	defer ctrl.Close()
	require.NoError(t, ctrl.Resume("exec-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = follow(ctx, ctrl, changed)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gameops login")
	assert.NoError(t, ctx.Err(), "follow returned on its own")
	assert.False(t, expiring.Authenticated())
	assert.False(t, ctrl.State().Executing)
}

type missingExecution struct{ scriptedBackend }

func (b *missingExecution) GetExecution(ctx context.Context, id string) (*api.Execution, error) {
	return nil, &api.APIError{Code: api.CodeNotFound, Message: "执行记录不存在"}
}

func TestFollowReportsUnknownExecution(t *testing.T) {
	changed := make(chan struct{}, 1)
	ctrl := hotupdate.New(&missingExecution{},
		hotupdate.WithPollInterval(5*time.Millisecond),
		hotupdate.WithOnChange(func(hotupdate.State) { signalChange(changed) }),
	)
	defer ctrl.Close()
	require.NoError(t, ctrl.Resume("pruned-id"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := follow(ctx, ctrl, changed)

	require.Error(t, err)
	assert.Equal(t, "执行记录不存在", err.Error())
	assert.NoError(t, ctx.Err())
}

func TestRenderNav(t *testing.T) {
	root := &cobra.Command{Use: "gameops"}
	root.AddCommand(
		&cobra.Command{Use: "dashboard", Annotations: withRoute("/dashboard")},
		&cobra.Command{Use: "users", Annotations: withRoute("/users")},
		&cobra.Command{Use: "hot-update", Annotations: withRoute("/hot-update")},
		&cobra.Command{Use: "passwd", Annotations: withRoute("/account")},
	)

	assert.Equal(t, "gameops users", commandFor(root, "/users"))
	assert.Empty(t, commandFor(root, "/settings"))

	out := renderNav(root, "/hot-update")
	assert.Contains(t, out, "管理中心")
	assert.Contains(t, out, "gameops dashboard", "other groups point at their first page")
	assert.Contains(t, out, "▸ ")
	assert.Contains(t, out, "热更新")
	assert.Contains(t, out, "gameops users")
	assert.NotContains(t, out, "账号设置", "only the current group's pages are listed")
}
