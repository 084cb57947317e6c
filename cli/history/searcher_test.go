package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameops/cli/api"
)

type recordingLister struct {
	mu      sync.Mutex
	queries []api.HistoryQuery
	rows    []api.HistoryItem
	err     error
}

func (r *recordingLister) ListHistory(ctx context.Context, q api.HistoryQuery) (*api.HistoryPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	var out []api.HistoryItem
	for _, row := range r.rows {
		if q.Keyword == "" || row.Executor == q.Keyword {
			out = append(out, row)
		}
	}
	return &api.HistoryPage{List: out}, nil
}

func (r *recordingLister) calls() []api.HistoryQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.HistoryQuery(nil), r.queries...)
}

var rows = []api.HistoryItem{
	{ID: 1, Title: "配置更新成功", Executor: "张策划", Commit: "a1b2c3d4e5f6", Status: api.HistorySuccess},
	{ID: 2, Title: "配置更新成功", Executor: "李开发", Commit: "b2c3d4e5f6g7", Status: api.HistorySuccess},
	{ID: 3, Title: "配置回滚", Executor: "王运维", Commit: "c3d4e5f6g7h8", Status: api.HistoryRollback},
}

func TestKeywordIsDebounced(t *testing.T) {
	l := &recordingLister{rows: rows}
	s := New(l, WithQuiet(30*time.Millisecond), WithPageSize(10))
	t.Cleanup(s.Close)

	for _, partial := range []string{"张", "张策", "张策划"} {
		s.SetKeyword(partial)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Empty(t, l.calls(), "nothing sent while typing")

	require.Eventually(t, func() bool { return len(l.calls()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	calls := l.calls()
	require.Len(t, calls, 1, "exactly one request after the quiet period")
	assert.Equal(t, api.HistoryQuery{Keyword: "张策划", Page: 1, PageSize: 10}, calls[0])

	require.Eventually(t, func() bool { return !s.State().Loading }, time.Second, 5*time.Millisecond)
	st := s.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "张策划", st.Items[0].Executor)
	assert.False(t, st.Empty)
}

func TestEmptyResultIsFlagged(t *testing.T) {
	s := New(&recordingLister{rows: rows})
	s.state.Keyword = "nobody"
	require.NoError(t, s.Refresh(context.Background()))

	st := s.State()
	assert.True(t, st.Empty)
	assert.Empty(t, st.Items)
	assert.False(t, st.Loading)
}

func TestRefreshUsesPageOneAndDefaultSize(t *testing.T) {
	l := &recordingLister{rows: rows}
	s := New(l)

	require.NoError(t, s.Refresh(context.Background()))

	calls := l.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].Page)
	assert.Equal(t, DefaultPageSize, calls[0].PageSize)
	assert.Len(t, s.State().Items, 3)
}

func TestRefreshErrorKeepsPreviousRows(t *testing.T) {
	l := &recordingLister{rows: rows}
	s := New(l)
	require.NoError(t, s.Refresh(context.Background()))

	l.mu.Lock()
	l.err = errors.New("request failed: timeout")
	l.mu.Unlock()

	err := s.Refresh(context.Background())
	require.Error(t, err)
	st := s.State()
	assert.Equal(t, err, st.Err)
	assert.Len(t, st.Items, 3)
	assert.False(t, st.Loading)
}

func TestLoadingIsPublished(t *testing.T) {
	var mu sync.Mutex
	var loading []bool
	s := New(&recordingLister{rows: rows}, WithOnChange(func(st State) {
		mu.Lock()
		loading = append(loading, st.Loading)
		mu.Unlock()
	}))

	require.NoError(t, s.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, loading)
}

func TestCloseCancelsPendingSearch(t *testing.T) {
	l := &recordingLister{rows: rows}
	s := New(l, WithQuiet(20*time.Millisecond))

	s.SetKeyword("张策划")
	s.Close()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, l.calls())
}
