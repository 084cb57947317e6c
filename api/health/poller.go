package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gameops/api/hub"
	"gameops/api/model"
	"gameops/api/pipeline"
)

// Status is the periodic server snapshot pushed to websocket clients.
type Status struct {
	Locked         bool   `json:"locked"`
	LockedBy       string `json:"lockedBy,omitempty"`
	LockedAt       string `json:"lockedAt,omitempty"`
	PendingChanges int    `json:"pendingChanges"`
	CheckedAt      string `json:"checkedAt"`
}

type PendingSource interface {
	PendingChanges(ctx context.Context) (*model.DetectResult, error)
}

// Poller periodically publishes the hot-update status and prunes finished
// executions from memory.
type Poller struct {
	Store     PendingSource
	Pipeline  *pipeline.Pipeline
	WS        *hub.Hub
	Interval  time.Duration
	Retention time.Duration
	Log       *zap.Logger
}

// Run starts the polling loop. It blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if p.Interval == 0 {
		p.Interval = 30 * time.Second
	}
	if p.Retention == 0 {
		p.Retention = time.Hour
	}
	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(p.Retention / 4)
	defer pruneTicker.Stop()

	// Run once immediately on start
	p.publish(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publish(ctx)
		case <-pruneTicker.C:
			if n := p.Pipeline.Prune(time.Now().Add(-p.Retention)); n > 0 {
				p.Log.Info("pruned finished executions", zap.Int("count", n))
			}
		}
	}
}

// Check builds the current status.
func (p *Poller) Check(ctx context.Context) (Status, error) {
	pre := p.Pipeline.PreCheck()
	st := Status{
		Locked:    !pre.CanExecute,
		LockedBy:  pre.LockedBy,
		LockedAt:  pre.LockedAt,
		CheckedAt: time.Now().Format(time.RFC3339),
	}
	pending, err := p.Store.PendingChanges(ctx)
	if err != nil {
		return st, err
	}
	if pending != nil {
		st.PendingChanges = len(pending.Changes)
	}
	return st, nil
}

func (p *Poller) publish(ctx context.Context) {
	st, err := p.Check(ctx)
	if err != nil {
		p.Log.Warn("status check", zap.Error(err))
		return
	}
	p.WS.Broadcast(hub.Event{Type: hub.EventStatus, Payload: st})
}
