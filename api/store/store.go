package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"gameops/api/model"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type account struct {
	name string
	hash []byte
}

// Store keeps the console data in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	users    []model.User
	items    []model.GameItem
	levels   []model.GameLevel
	history  []model.HistoryItem
	nextID   int64
	pending  *model.DetectResult
}

func New(seed *model.Seed) (*Store, error) {
	s := &Store{
		accounts: make(map[string]*account, len(seed.Accounts)),
		users:    append([]model.User(nil), seed.Users...),
		items:    append([]model.GameItem(nil), seed.Items...),
		levels:   append([]model.GameLevel(nil), seed.Levels...),
		history:  append([]model.HistoryItem(nil), seed.History...),
		pending:  cloneDetect(seed.Pending),
	}
	for _, a := range seed.Accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", a.Username, err)
		}
		s.accounts[a.Username] = &account{name: a.Name, hash: hash}
	}

	// newest first, ids continue after the highest seeded one
	sort.SliceStable(s.history, func(i, j int) bool { return s.history[i].Time > s.history[j].Time })
	for _, h := range s.history {
		if h.ID > s.nextID {
			s.nextID = h.ID
		}
	}
	return s, nil
}

// Authenticate returns the display name of the account.
func (s *Store) Authenticate(ctx context.Context, username, password string) (string, error) {
	s.mu.RLock()
	a, ok := s.accounts[username]
	s.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	if a.name == "" {
		return username, nil
	}
	return a.name, nil
}

func (s *Store) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if _, err := s.Authenticate(ctx, username, oldPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return ErrNotFound
	}
	a.hash = hash
	return nil
}

// --- Users ---

func (s *Store) ListUsers(ctx context.Context, keyword string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.User{}
	for _, u := range s.users {
		if matches(keyword, u.Username, u.Nickname, u.Email) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) BanUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Status = "banned"
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// --- Game data ---

func (s *Store) ListItems(ctx context.Context, keyword, itemType string) ([]model.GameItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.GameItem{}
	for _, it := range s.items {
		if itemType != "" && it.Type != itemType {
			continue
		}
		if matches(keyword, it.Name) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) ListLevels(ctx context.Context, keyword string) ([]model.GameLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.GameLevel{}
	for _, lv := range s.levels {
		if matches(keyword, lv.Name, lv.Rewards) {
			out = append(out, lv)
		}
	}
	return out, nil
}

// --- Hot update ---

// PendingChanges returns the change set awaiting a hot update, or nil.
func (s *Store) PendingChanges(ctx context.Context) (*model.DetectResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDetect(s.pending), nil
}

func (s *Store) ClearPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return nil
}

func (s *Store) SetPending(ctx context.Context, d *model.DetectResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = cloneDetect(d)
	return nil
}

// InsertHistory assigns the next id and puts the record at the top.
func (s *Store) InsertHistory(ctx context.Context, h *model.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h.ID = s.nextID
	s.history = append([]model.HistoryItem{*h}, s.history...)
	return nil
}

// ListHistory filters by title, executor or commit and returns one page.
// Pages are 1-based; page < 1 is treated as 1.
func (s *Store) ListHistory(ctx context.Context, keyword string, page, pageSize int) (*model.HistoryPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []model.HistoryItem{}
	for _, h := range s.history {
		if matches(keyword, h.Title, h.Executor, h.Commit) {
			matched = append(matched, h)
		}
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(matched)
	}
	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))
	return &model.HistoryPage{
		List:  append([]model.HistoryItem{}, matched[start:end]...),
		Total: len(matched),
	}, nil
}

// --- Dashboard ---

func (s *Store) Stats(ctx context.Context) (*model.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	var coins int64
	for _, u := range s.users {
		if u.Status == "active" {
			active++
		}
		coins += u.Coins
	}
	return &model.DashboardStats{Cards: []model.StatCard{
		{Title: "总用户数", Value: fmt.Sprint(len(s.users))},
		{Title: "活跃用户", Value: fmt.Sprint(active)},
		{Title: "道具种类", Value: fmt.Sprint(len(s.items))},
		{Title: "金币总量", Value: fmt.Sprint(coins)},
	}}, nil
}

func matches(keyword string, fields ...string) bool {
	if keyword == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(f, keyword) {
			return true
		}
	}
	return false
}

func cloneDetect(d *model.DetectResult) *model.DetectResult {
	if d == nil {
		return nil
	}
	c := *d
	c.Changes = append([]model.ChangeItem(nil), d.Changes...)
	c.ConfigFiles = append([]string(nil), d.ConfigFiles...)
	return &c
}
