package api

import (
	"context"
	"net/url"
	"strconv"
)

type ChangeType string

const (
	ChangeSchema ChangeType = "schema"
	ChangeData   ChangeType = "data"
)

type ChangeItem struct {
	Name string     `json:"name"`
	Type ChangeType `json:"type"`
}

type DetectResult struct {
	HasSchemaChange bool         `json:"hasSchemaChange"`
	Changes         []ChangeItem `json:"changes"`
	ConfigFiles     []string     `json:"configFiles"`
}

type StepStatus string

const (
	StepIdle    StepStatus = "idle"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogError   LogType = "error"
	LogWarning LogType = "warning"
)

type LogLine struct {
	Time    string  `json:"time"`
	Content string  `json:"content"`
	Type    LogType `json:"type,omitempty"`
}

// ExecutionStep is one stage of a hot-update run. Expanded is local view
// state and is never exchanged with the server.
type ExecutionStep struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Status   StepStatus `json:"status"`
	Logs     []LogLine  `json:"logs"`
	Duration string     `json:"duration,omitempty"`
	Expanded bool       `json:"-"`
}

type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionError   ExecutionStatus = "error"
)

// Terminal reports whether polling should stop.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionSuccess || s == ExecutionError
}

type Execution struct {
	ID     string          `json:"id,omitempty"`
	Status ExecutionStatus `json:"status"`
	Steps  []ExecutionStep `json:"steps"`
}

type ExecutionStart struct {
	ExecutionID string   `json:"executionId"`
	Steps       []string `json:"steps"`
}

type PreCheckResult struct {
	CanExecute bool   `json:"canExecute"`
	LockedBy   string `json:"lockedBy,omitempty"`
	LockedAt   string `json:"lockedAt,omitempty"`
}

type HistoryStatus string

const (
	HistorySuccess  HistoryStatus = "success"
	HistoryRollback HistoryStatus = "rollback"
	HistoryFailed   HistoryStatus = "failed"
)

type HistoryItem struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Time     string        `json:"time"`
	Executor string        `json:"executor"`
	Commit   string        `json:"commit"`
	Status   HistoryStatus `json:"status"`
}

type HistoryQuery struct {
	Keyword  string
	Page     int
	PageSize int
}

type HistoryPage struct {
	List  []HistoryItem `json:"list"`
	Total int           `json:"total,omitempty"`
}

// Detect asks the backend which configs changed. A CodeNothingToUpdate
// APIError means there is nothing to deploy.
func (c *Client) Detect(ctx context.Context) (*DetectResult, error) {
	var r DetectResult
	if err := c.post(ctx, "/api/hot-update/detect", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) PreCheck(ctx context.Context) (*PreCheckResult, error) {
	var r PreCheckResult
	if err := c.post(ctx, "/api/hot-update/pre-check", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Execute(ctx context.Context, detect *DetectResult) (*ExecutionStart, error) {
	var r ExecutionStart
	if err := c.post(ctx, "/api/hot-update/execute", detect, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	var r Execution
	if err := c.get(ctx, "/api/hot-update/executions/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ListHistory(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	params := url.Values{}
	params.Set("keyword", q.Keyword)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("pageSize", strconv.Itoa(q.PageSize))

	var r HistoryPage
	if err := c.get(ctx, "/api/hot-update/history", params, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
