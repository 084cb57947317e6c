// Package pipeline simulates hot-update executions for the development
// backend: it owns the server-side execution lock, replays scripted step
// logs, records history and publishes progress on the websocket hub.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gameops/api/hub"
	"gameops/api/model"
)

var ErrNotFound = errors.New("execution not found")

// LockedError rejects a start while another execution holds the lock.
type LockedError struct {
	Holder string
	Since  time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("hot update locked by %s since %s", e.Holder, e.Since.Format("15:04"))
}

// Store is what the pipeline needs from persistence.
type Store interface {
	ClearPending(ctx context.Context) error
	InsertHistory(ctx context.Context, h *model.HistoryItem) error
}

var stepTitles = map[string]string{
	"upload":  "上传配置",
	"build":   "镜像重建",
	"restart": "重启服务",
}

type Pipeline struct {
	Store     Store
	WS        *hub.Hub
	StepDelay time.Duration              // pause before each log line
	Logs      map[string][]model.LogLine // scripted output per step key
	FailStep  string                     // step key forced to fail
	Log       *zap.Logger

	once       sync.Once
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	lock       *LockedError
	executions map[string]*model.Execution
}

func (p *Pipeline) init() {
	p.once.Do(func() {
		p.ctx, p.cancel = context.WithCancel(context.Background())
		p.executions = make(map[string]*model.Execution)
		if p.Logs == nil {
			p.Logs = model.DefaultStepLogs()
		}
		if p.Log == nil {
			p.Log = zap.NewNop()
		}
	})
}

// PreCheck reports whether an execution could start now. It takes no lock;
// Start is the authoritative check.
func (p *Pipeline) PreCheck() model.PreCheckResult {
	p.init()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lock == nil {
		return model.PreCheckResult{CanExecute: true}
	}
	return model.PreCheckResult{
		LockedBy: p.lock.Holder,
		LockedAt: p.lock.Since.Format("15:04"),
	}
}

// StepsFor lists the step keys an execution of detect will run.
func StepsFor(detect model.DetectResult) []string {
	if detect.HasSchemaChange {
		return []string{"upload", "build", "restart"}
	}
	return []string{"upload", "restart"}
}

// Start acquires the execution lock and runs the steps in the background.
func (p *Pipeline) Start(executor string, detect model.DetectResult) (*model.ExecutionStart, error) {
	p.init()
	keys := StepsFor(detect)

	p.mu.Lock()
	if p.lock != nil {
		locked := *p.lock
		p.mu.Unlock()
		return nil, &locked
	}
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		return nil, errors.New("pipeline is shutting down")
	}

	now := time.Now()
	exec := &model.Execution{
		ID:        uuid.NewString(),
		Executor:  executor,
		Status:    model.ExecutionRunning,
		StartedAt: now,
	}
	for _, k := range keys {
		exec.Steps = append(exec.Steps, model.ExecutionStep{
			Key:    k,
			Title:  stepTitles[k],
			Status: model.StepIdle,
			Logs:   []model.LogLine{},
		})
	}
	p.executions[exec.ID] = exec
	p.lock = &LockedError{Holder: executor, Since: now}
	p.wg.Add(1)
	p.mu.Unlock()

	p.Log.Info("execution started",
		zap.String("executionId", exec.ID),
		zap.String("executor", executor),
		zap.Strings("steps", keys),
	)
	go p.run(exec)

	return &model.ExecutionStart{ExecutionID: exec.ID, Steps: keys}, nil
}

// Get returns a snapshot of the execution.
func (p *Pipeline) Get(id string) (*model.Execution, error) {
	p.init()
	p.mu.Lock()
	defer p.mu.Unlock()
	exec, ok := p.executions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return exec.Clone(), nil
}

// Prune forgets executions that finished before cutoff and returns how
// many were removed.
func (p *Pipeline) Prune(cutoff time.Time) int {
	p.init()
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, exec := range p.executions {
		if exec.FinishedAt != nil && exec.FinishedAt.Before(cutoff) {
			delete(p.executions, id)
			n++
		}
	}
	return n
}

// Shutdown interrupts running executions and waits for them to settle.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.init()
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) run(exec *model.Execution) {
	defer p.wg.Done()

	for i := range exec.Steps {
		if err := p.runStep(exec, i); err != nil {
			p.finish(exec, model.ExecutionError, err)
			return
		}
	}
	p.finish(exec, model.ExecutionSuccess, nil)
}

func (p *Pipeline) runStep(exec *model.Execution, i int) error {
	p.mu.Lock()
	step := &exec.Steps[i]
	step.Status = model.StepRunning
	key := step.Key
	p.mu.Unlock()
	p.WS.Broadcast(hub.Event{Type: hub.EventStep, ExecutionID: exec.ID, Payload: map[string]string{
		"step":   key,
		"status": string(model.StepRunning),
	}})

	start := time.Now()
	script := p.Logs[key]
	failAt := -1
	if key == p.FailStep {
		failAt = len(script) / 2
	}

	for n, line := range script {
		if !p.pause() {
			p.appendLog(exec, i, model.LogLine{Content: "✗ 服务关闭，执行中断", Type: "error"}, model.StepError)
			return errors.New("interrupted")
		}
		if n == failAt {
			p.appendLog(exec, i, model.LogLine{Content: "✗ " + stepTitles[key] + "失败，请检查配置后重试", Type: "error"}, model.StepError)
			return fmt.Errorf("step %s failed", key)
		}
		p.appendLog(exec, i, line, "")
	}
	if !p.pause() {
		p.appendLog(exec, i, model.LogLine{Content: "✗ 服务关闭，执行中断", Type: "error"}, model.StepError)
		return errors.New("interrupted")
	}

	p.mu.Lock()
	step.Status = model.StepSuccess
	step.Duration = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
	p.mu.Unlock()
	p.WS.Broadcast(hub.Event{Type: hub.EventStep, ExecutionID: exec.ID, Payload: map[string]string{
		"step":   key,
		"status": string(model.StepSuccess),
	}})
	return nil
}

// appendLog stamps and appends a line; a non-empty status also ends the step.
func (p *Pipeline) appendLog(exec *model.Execution, i int, line model.LogLine, status model.StepStatus) {
	line.Time = time.Now().Format("15:04:05")
	p.mu.Lock()
	step := &exec.Steps[i]
	step.Logs = append(step.Logs, line)
	if status != "" {
		step.Status = status
	}
	key := step.Key
	p.mu.Unlock()
	p.WS.Broadcast(hub.Event{Type: hub.EventLog, ExecutionID: exec.ID, Payload: map[string]interface{}{
		"step": key,
		"line": line,
	}})
}

func (p *Pipeline) finish(exec *model.Execution, status model.ExecutionStatus, runErr error) {
	ctx := context.Background()
	now := time.Now()

	// history lands before the terminal status is visible to pollers
	item := &model.HistoryItem{
		Title:    "配置更新成功",
		Time:     now.Format("2006-01-02 15:04:05"),
		Executor: exec.Executor,
		Commit:   strings.ReplaceAll(exec.ID, "-", "")[:12],
		Status:   model.HistorySuccess,
	}
	if status == model.ExecutionError {
		item.Title = "配置更新失败"
		item.Status = model.HistoryFailed
	} else if err := p.Store.ClearPending(ctx); err != nil {
		p.Log.Warn("clear pending changes", zap.Error(err))
	}
	if err := p.Store.InsertHistory(ctx, item); err != nil {
		p.Log.Warn("record history", zap.Error(err))
	}

	p.mu.Lock()
	exec.Status = status
	exec.FinishedAt = &now
	p.lock = nil
	snap := exec.Clone()
	p.mu.Unlock()

	if runErr != nil {
		p.Log.Warn("execution failed", zap.String("executionId", exec.ID), zap.Error(runErr))
		p.WS.Broadcast(hub.Event{Type: hub.EventFailed, ExecutionID: exec.ID, Payload: map[string]string{"error": runErr.Error()}})
		return
	}
	p.Log.Info("execution finished", zap.String("executionId", exec.ID), zap.Duration("elapsed", now.Sub(exec.StartedAt)))
	p.WS.Broadcast(hub.Event{Type: hub.EventCompleted, ExecutionID: exec.ID, Payload: snap})
}

func (p *Pipeline) pause() bool {
	if p.StepDelay <= 0 {
		return p.ctx.Err() == nil
	}
	t := time.NewTimer(p.StepDelay)
	defer t.Stop()
	select {
	case <-p.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
