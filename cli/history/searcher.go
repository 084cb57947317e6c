// Package history loads the hot-update execution history with a debounced
// keyword filter.
package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gameops/cli/api"
)

const (
	DefaultQuiet    = 300 * time.Millisecond
	DefaultPageSize = 20
)

type Lister interface {
	ListHistory(ctx context.Context, q api.HistoryQuery) (*api.HistoryPage, error)
}

// State is what the history view renders.
type State struct {
	Keyword string
	Items   []api.HistoryItem
	Loading bool
	// Empty is set after a successful fetch that matched nothing.
	Empty bool
	Err   error
}

type Option func(*Searcher)

func WithQuiet(d time.Duration) Option {
	return func(s *Searcher) { s.quiet = d }
}

func WithPageSize(n int) Option {
	return func(s *Searcher) { s.pageSize = n }
}

func WithOnChange(fn func(State)) Option {
	return func(s *Searcher) { s.onChange = fn }
}

// WithKeyword sets the starting filter without scheduling a search.
func WithKeyword(keyword string) Option {
	return func(s *Searcher) { s.state.Keyword = keyword }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) { s.log = l }
}

// Searcher always asks for page 1; a keyword change only fires once input
// has been stable for the quiet period.
type Searcher struct {
	lister   Lister
	quiet    time.Duration
	pageSize int
	onChange func(State)
	log      *zap.Logger

	mu     sync.Mutex
	state  State
	timer  *time.Timer
	seq    uint64
	closed bool
}

func New(lister Lister, opts ...Option) *Searcher {
	s := &Searcher{
		lister:   lister,
		quiet:    DefaultQuiet,
		pageSize: DefaultPageSize,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetKeyword records the filter and restarts the quiet-period timer.
func (s *Searcher) SetKeyword(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.Keyword = keyword
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.log.Debug("history search failed", zap.String("keyword", keyword), zap.Error(err))
		}
	})
}

// Refresh fetches page 1 for the current keyword right away. Responses
// that arrive after a newer request started are dropped.
func (s *Searcher) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	seq := s.seq
	keyword := s.state.Keyword
	s.state.Loading = true
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)

	page, err := s.lister.ListHistory(ctx, api.HistoryQuery{
		Keyword:  keyword,
		Page:     1,
		PageSize: s.pageSize,
	})

	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return err
	}
	s.state.Loading = false
	s.state.Err = err
	if err == nil {
		s.state.Items = page.List
		s.state.Empty = len(page.List) == 0
	}
	st = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return err
}

func (s *Searcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancels a pending debounced search.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Searcher) snapshotLocked() State {
	st := s.state
	st.Items = append([]api.HistoryItem(nil), s.state.Items...)
	return st
}

func (s *Searcher) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
