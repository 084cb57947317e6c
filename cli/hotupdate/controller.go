// Package hotupdate drives the detect → confirm → execute workflow against
// the hot-update endpoints. The server owns the lock, the execution log and
// the history; the controller only holds a disposable copy for display.
package hotupdate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gameops/cli/api"
)

// DefaultPollInterval matches the cadence of the web console.
const DefaultPollInterval = 1500 * time.Millisecond

type Page int

const (
	PageDetect Page = iota
	PageConfirm
	PageExecute
)

func (p Page) String() string {
	switch p {
	case PageDetect:
		return "detect"
	case PageConfirm:
		return "confirm"
	case PageExecute:
		return "execute"
	default:
		return fmt.Sprintf("page(%d)", int(p))
	}
}

var (
	ErrNoticeRequired  = errors.New("read and acknowledge the notice before detecting")
	ErrNothingToUpdate = errors.New("nothing to update")
	ErrExecuting       = errors.New("an execution is in progress")
	ErrNoDetectResult  = errors.New("no detection result, run detect first")
	ErrAborted         = errors.New("workflow was reset while the request was in flight")
	ErrClosed          = errors.New("controller closed")
)

// LockedError is a pre-check denial: another operator holds the hot-update lock.
type LockedError struct {
	LockedBy string
	LockedAt string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("hot update is locked by %s since %s", e.LockedBy, e.LockedAt)
}

// Backend is the slice of the API client the workflow needs.
type Backend interface {
	Detect(ctx context.Context) (*api.DetectResult, error)
	PreCheck(ctx context.Context) (*api.PreCheckResult, error)
	Execute(ctx context.Context, detect *api.DetectResult) (*api.ExecutionStart, error)
	GetExecution(ctx context.Context, id string) (*api.Execution, error)
}

// HistoryRefresher reloads the execution history list.
type HistoryRefresher interface {
	Refresh(ctx context.Context) error
}

var stepTitles = map[string]string{
	"upload":  "上传配置",
	"build":   "镜像重建",
	"restart": "重启服务",
}

type Option func(*Controller)

func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

func WithHistory(h HistoryRefresher) Option {
	return func(c *Controller) { c.history = h }
}

// WithOnChange registers a listener called after every state transition,
// outside the controller lock. It may be called from the polling goroutine.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

type pollTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type Controller struct {
	backend  Backend
	history  HistoryRefresher
	interval time.Duration
	onChange func(State)
	log      *zap.Logger
	ctx      context.Context // cancelled by Close
	cancel   context.CancelFunc

	mu          sync.Mutex
	page        Page
	noticeRead  bool
	detect      *api.DetectResult
	executionID string
	steps       []api.ExecutionStep
	executing   bool
	status      api.ExecutionStatus
	pollErr     error
	toggled     map[string]bool
	gen         uint64
	closed      bool
	poll        *pollTask
	pollers     sync.WaitGroup
}

func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		interval: DefaultPollInterval,
		log:      zap.NewNop(),
		toggled:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// AcknowledgeNotice sets the gate that must be set before Detect.
func (c *Controller) AcknowledgeNotice(read bool) {
	c.mu.Lock()
	c.noticeRead = read
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Detect asks the server for pending changes. Without the notice gate it
// returns ErrNoticeRequired and never touches the network.
func (c *Controller) Detect(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case !c.noticeRead:
		c.mu.Unlock()
		return ErrNoticeRequired
	case c.executing:
		c.mu.Unlock()
		return ErrExecuting
	}
	gen := c.gen
	c.mu.Unlock()

	res, err := c.backend.Detect(ctx)
	if err != nil {
		if api.IsCode(err, api.CodeNothingToUpdate) {
			return fmt.Errorf("%w: %v", ErrNothingToUpdate, err)
		}
		return err
	}

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return ErrAborted
	}
	c.detect = res
	c.executionID = ""
	c.steps = nil
	c.status = ""
	c.pollErr = nil
	c.toggled = make(map[string]bool)
	c.page = PageConfirm
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Info("detect finished",
		zap.Bool("schemaChange", res.HasSchemaChange),
		zap.Int("changes", len(res.Changes)),
	)
	c.notify(st)
	return nil
}

// Summary counts the stored changes by type.
func (c *Controller) Summary() ChangeSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detect == nil {
		return ChangeSummary{}
	}
	return Summarize(c.detect.Changes)
}

// Back steps one page back. The detect result survives a return to Detect.
// Leaving a finished execution forgets it.
func (c *Controller) Back() error {
	c.mu.Lock()
	switch c.page {
	case PageConfirm:
		c.page = PageDetect
	case PageExecute:
		if c.executing {
			c.mu.Unlock()
			return ErrExecuting
		}
		c.page = PageConfirm
		// a finished or lost execution is not resumed; confirming starts a new one
		if c.status.Terminal() || c.pollErr != nil {
			c.executionID = ""
			c.steps = nil
			c.status = ""
			c.pollErr = nil
			c.toggled = make(map[string]bool)
		}
	}
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
	return nil
}

// ConfirmAndExecute runs the lock pre-check and, when allowed, starts the
// execution and its polling loop. A held lock yields *LockedError and the
// controller stays on the confirm page.
//
// Pre-check and execute are two separate calls; the server is expected to
// reject a start that loses the race.
func (c *Controller) ConfirmAndExecute(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.executing:
		c.mu.Unlock()
		return ErrExecuting
	case c.detect == nil:
		c.mu.Unlock()
		return ErrNoDetectResult
	}
	gen := c.gen
	c.mu.Unlock()

	pre, err := c.backend.PreCheck(ctx)
	if err != nil {
		return err
	}
	if !pre.CanExecute {
		c.log.Info("hot update locked", zap.String("lockedBy", pre.LockedBy), zap.String("lockedAt", pre.LockedAt))
		return &LockedError{LockedBy: pre.LockedBy, LockedAt: pre.LockedAt}
	}

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return ErrAborted
	}
	c.page = PageExecute
	if c.executionID != "" {
		old := c.startPollLocked(c.executionID)
		st := c.stateLocked()
		c.mu.Unlock()
		old.wait()
		c.notify(st)
		return nil
	}
	c.executing = true
	detect := c.detect
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)

	start, err := c.backend.Execute(ctx, detect)

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return ErrAborted
	}
	if err != nil {
		c.executing = false
		c.page = PageConfirm
		st = c.stateLocked()
		c.mu.Unlock()
		c.notify(st)
		return err
	}

	c.executionID = start.ExecutionID
	c.steps = placeholders(start.Steps)
	c.status = api.ExecutionRunning
	c.toggled = make(map[string]bool)
	old := c.startPollLocked(start.ExecutionID)
	st = c.stateLocked()
	c.mu.Unlock()
	old.wait()

	c.log.Info("execution started", zap.String("executionId", start.ExecutionID), zap.Strings("steps", start.Steps))
	c.notify(st)
	return nil
}

// Resume attaches to an execution that was started elsewhere, e.g. in a
// previous session, and polls it to completion.
func (c *Controller) Resume(executionID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	c.page = PageExecute
	c.executionID = executionID
	c.steps = nil
	c.status = api.ExecutionRunning
	c.toggled = make(map[string]bool)
	old := c.startPollLocked(executionID)
	st := c.stateLocked()
	c.mu.Unlock()
	old.wait()

	c.notify(st)
	return nil
}

// ToggleStep flips the expansion of one step. The choice sticks across
// polls for that step.
func (c *Controller) ToggleStep(key string) {
	c.mu.Lock()
	for i := range c.steps {
		if c.steps[i].Key == key {
			c.steps[i].Expanded = !c.steps[i].Expanded
			c.toggled[key] = c.steps[i].Expanded
			break
		}
	}
	st := c.stateLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Reset discards the detection and execution, stops polling, clears the
// notice gate and returns to Detect. The history list is reloaded.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	old := c.stopPollLocked()
	c.page = PageDetect
	c.noticeRead = false
	c.detect = nil
	c.executionID = ""
	c.steps = nil
	c.executing = false
	c.status = ""
	c.pollErr = nil
	c.toggled = make(map[string]bool)
	st := c.stateLocked()
	c.mu.Unlock()
	old.wait()

	c.notify(st)
	c.refreshHistory(ctx)
}

// Close stops polling and makes late completions of in-flight calls no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	old := c.stopPollLocked()
	c.mu.Unlock()
	c.cancel()
	old.wait()
	c.pollers.Wait()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stale(gen uint64) bool {
	return c.closed || c.gen != gen
}

// startPollLocked replaces the polling task. The previous task is cancelled
// and returned so the caller can wait for it after releasing the lock.
func (c *Controller) startPollLocked(executionID string) *pollTask {
	old := c.stopPollLocked()

	ctx, cancel := context.WithCancel(c.ctx)
	task := &pollTask{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	c.poll = task
	c.executing = true
	c.pollErr = nil
	c.pollers.Add(1)
	go c.runPoll(task, executionID)
	return old
}

func (c *Controller) stopPollLocked() *pollTask {
	old := c.poll
	c.poll = nil
	if old != nil {
		old.cancel()
	}
	return old
}

func (t *pollTask) wait() {
	if t != nil {
		<-t.done
	}
}

func (c *Controller) runPoll(task *pollTask, executionID string) {
	defer c.pollers.Done()
	defer close(task.done)
	defer task.cancel()

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-task.ctx.Done():
			return
		case <-timer.C:
		}

		exec, err := c.backend.GetExecution(task.ctx, executionID)
		if err != nil {
			if task.ctx.Err() != nil {
				return
			}
			if permanent(err) {
				c.abandonPoll(task, executionID, err)
				return
			}
			c.log.Debug("poll failed, retrying", zap.String("executionId", executionID), zap.Error(err))
			timer.Reset(c.interval)
			continue
		}

		if done := c.applySnapshot(task, exec); done {
			return
		}
		timer.Reset(c.interval)
	}
}

// applySnapshot replaces the local steps with the server's view. It reports
// true when the loop must end: a terminal status or a superseded task.
func (c *Controller) applySnapshot(task *pollTask, exec *api.Execution) bool {
	c.mu.Lock()
	if c.poll != task || task.ctx.Err() != nil {
		c.mu.Unlock()
		return true
	}

	c.steps = c.expandLocked(exec.Steps)
	c.status = exec.Status
	terminal := exec.Status.Terminal()
	if terminal {
		c.executing = false
		c.poll = nil
	}
	st := c.stateLocked()
	c.mu.Unlock()

	c.notify(st)
	if terminal {
		c.log.Info("execution finished", zap.String("executionId", st.ExecutionID), zap.String("status", string(exec.Status)))
		if exec.Status == api.ExecutionSuccess {
			c.refreshHistory(task.ctx)
		}
	}
	return terminal
}

// permanent reports poll errors that no retry can fix: an expired session
// or an execution the server does not know.
func permanent(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || api.IsCode(err, api.CodeNotFound)
}

// abandonPoll ends polling without a terminal status and keeps err for the
// view.
func (c *Controller) abandonPoll(task *pollTask, executionID string, err error) {
	c.mu.Lock()
	if c.poll != task {
		c.mu.Unlock()
		return
	}
	c.poll = nil
	c.executing = false
	c.pollErr = err
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Warn("polling stopped", zap.String("executionId", executionID), zap.Error(err))
	c.notify(st)
}

func (c *Controller) expandLocked(steps []api.ExecutionStep) []api.ExecutionStep {
	out := make([]api.ExecutionStep, len(steps))
	for i, s := range steps {
		s.Logs = append([]api.LogLine(nil), s.Logs...)
		if v, ok := c.toggled[s.Key]; ok {
			s.Expanded = v
		} else {
			s.Expanded = s.Status == api.StepRunning || s.Status == api.StepError
		}
		out[i] = s
	}
	return out
}

func (c *Controller) refreshHistory(ctx context.Context) {
	if c.history == nil {
		return
	}
	if err := c.history.Refresh(ctx); err != nil {
		c.log.Debug("history refresh failed", zap.Error(err))
	}
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

func placeholders(keys []string) []api.ExecutionStep {
	steps := make([]api.ExecutionStep, len(keys))
	for i, key := range keys {
		title := stepTitles[key]
		if title == "" {
			title = key
		}
		steps[i] = api.ExecutionStep{
			Key:      key,
			Title:    title,
			Status:   api.StepIdle,
			Logs:     []api.LogLine{},
			Expanded: i == 0,
		}
	}
	return steps
}
