package hotupdate

import "gameops/cli/api"

// ChangeSummary is the aggregate shown on the confirm page.
type ChangeSummary struct {
	Schema int
	Data   int
	Total  int
}

func Summarize(changes []api.ChangeItem) ChangeSummary {
	s := ChangeSummary{Total: len(changes)}
	for _, ch := range changes {
		switch ch.Type {
		case api.ChangeSchema:
			s.Schema++
		case api.ChangeData:
			s.Data++
		}
	}
	return s
}

// State is a point-in-time copy of the workflow, safe to hold and render.
type State struct {
	Page        Page
	NoticeRead  bool
	Detect      *api.DetectResult
	Summary     ChangeSummary
	ExecutionID string
	Steps       []api.ExecutionStep
	Executing   bool
	Status      api.ExecutionStatus
	// PollErr is set when polling gave up before a terminal status, e.g.
	// after a 401 or for an unknown execution id.
	PollErr error
}

// AllSucceeded is true once a finished execution has every step green.
func (s State) AllSucceeded() bool {
	if s.Executing || len(s.Steps) == 0 {
		return false
	}
	for _, st := range s.Steps {
		if st.Status != api.StepSuccess {
			return false
		}
	}
	return true
}

func (s State) AnyFailed() bool {
	if s.Status == api.ExecutionError {
		return true
	}
	for _, st := range s.Steps {
		if st.Status == api.StepError {
			return true
		}
	}
	return false
}

// Finished reports whether the execution page offers "start new update" or
// "retry" instead of the disabled executing button.
func (s State) Finished() bool {
	return s.Page == PageExecute && !s.Executing && (s.AllSucceeded() || s.AnyFailed())
}

func (s State) CanGoBack() bool {
	return s.Page != PageDetect && !s.Executing
}

func (c *Controller) stateLocked() State {
	st := State{
		Page:        c.page,
		NoticeRead:  c.noticeRead,
		ExecutionID: c.executionID,
		Executing:   c.executing,
		Status:      c.status,
		PollErr:     c.pollErr,
	}
	if c.detect != nil {
		d := *c.detect
		d.Changes = append([]api.ChangeItem(nil), c.detect.Changes...)
		d.ConfigFiles = append([]string(nil), c.detect.ConfigFiles...)
		st.Detect = &d
		st.Summary = Summarize(d.Changes)
	}
	if c.steps != nil {
		st.Steps = make([]api.ExecutionStep, len(c.steps))
		for i, s := range c.steps {
			s.Logs = append([]api.LogLine(nil), s.Logs...)
			st.Steps[i] = s
		}
	}
	return st
}
