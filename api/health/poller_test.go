package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameops/api/model"
	"gameops/api/pipeline"
	"gameops/api/store"
)

func newPoller(t *testing.T) (*Poller, *store.Store) {
	t.Helper()
	st, err := store.New(model.DefaultSeed())
	require.NoError(t, err)
	p := &pipeline.Pipeline{Store: st}
	t.Cleanup(func() { p.Shutdown(context.Background()) })
	return &Poller{Store: st, Pipeline: p}, st
}

func TestCheckIdle(t *testing.T) {
	poller, _ := newPoller(t)

	st, err := poller.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Locked)
	assert.Equal(t, 3, st.PendingChanges)
	assert.NotEmpty(t, st.CheckedAt)
}

func TestCheckLocked(t *testing.T) {
	poller, _ := newPoller(t)
	poller.Pipeline.StepDelay = time.Hour

	_, err := poller.Pipeline.Start("alice", *model.DefaultSeed().Pending)
	require.NoError(t, err)

	st, err := poller.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Locked)
	assert.Equal(t, "alice", st.LockedBy)
}

func TestRunPrunesFinishedExecutions(t *testing.T) {
	poller, _ := newPoller(t)
	poller.Interval = time.Hour
	poller.Retention = 4 * time.Millisecond

	start, err := poller.Pipeline.Start("admin", *model.DefaultSeed().Pending)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := poller.Pipeline.Get(start.ExecutionID)
		return err == pipeline.ErrNotFound
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
