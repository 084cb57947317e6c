package model

import "time"

type ChangeType string

const (
	ChangeSchema ChangeType = "schema"
	ChangeData   ChangeType = "data"
)

type ChangeItem struct {
	Name string     `json:"name" yaml:"name" validate:"required"`
	Type ChangeType `json:"type" yaml:"type" validate:"oneof=schema data"`
}

type DetectResult struct {
	HasSchemaChange bool         `json:"hasSchemaChange" yaml:"hasSchemaChange"`
	Changes         []ChangeItem `json:"changes" yaml:"changes" validate:"required,min=1,dive"`
	ConfigFiles     []string     `json:"configFiles" yaml:"configFiles"`
}

type StepStatus string

const (
	StepIdle    StepStatus = "idle"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

type LogLine struct {
	Time    string `json:"time" yaml:"time"`
	Content string `json:"content" yaml:"content"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"` // info | success | error | warning
}

type ExecutionStep struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Status   StepStatus `json:"status"`
	Logs     []LogLine  `json:"logs"`
	Duration string     `json:"duration,omitempty"`
}

type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionError   ExecutionStatus = "error"
)

type Execution struct {
	ID         string          `json:"id"`
	Executor   string          `json:"executor"`
	Status     ExecutionStatus `json:"status"`
	Steps      []ExecutionStep `json:"steps"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// Clone copies the execution deep enough that the caller may hand it to an
// encoder while the pipeline keeps appending logs.
func (e *Execution) Clone() *Execution {
	c := *e
	c.Steps = make([]ExecutionStep, len(e.Steps))
	for i, s := range e.Steps {
		s.Logs = append([]LogLine{}, s.Logs...)
		c.Steps[i] = s
	}
	if e.FinishedAt != nil {
		t := *e.FinishedAt
		c.FinishedAt = &t
	}
	return &c
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
	ID       int64         `json:"id" yaml:"id"`
	Title    string        `json:"title" yaml:"title"`
	Time     string        `json:"time" yaml:"time"`
	Executor string        `json:"executor" yaml:"executor"`
	Commit   string        `json:"commit" yaml:"commit"`
	Status   HistoryStatus `json:"status" yaml:"status"`
}

type HistoryPage struct {
	List  []HistoryItem `json:"list"`
	Total int           `json:"total"`
}
