package api

import (
	"context"
	"net/url"
	"strconv"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Login exchanges credentials for a bearer token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var r struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/api/auth/login", LoginRequest{Username: username, Password: password}, &r); err != nil {
		return err
	}
	return c.session.SetToken(r.Token)
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return c.put(ctx, "/api/auth/password", ChangePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// --- Users ---

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	Email        string `json:"email"`
	Status       string `json:"status"` // active | banned | inactive
	Level        int    `json:"level"`
	Coins        int64  `json:"coins"`
	RegisterTime string `json:"registerTime"`
	LastLogin    string `json:"lastLogin"`
}

func (c *Client) ListUsers(ctx context.Context, keyword string) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/api/users", url.Values{"keyword": {keyword}}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) BanUser(ctx context.Context, id int64) error {
	return c.post(ctx, "/api/users/"+strconv.FormatInt(id, 10)+"/ban", nil, nil)
}

// --- Game data ---

type GameItem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Rarity string `json:"rarity"` // common | rare | epic | legendary
	Price  int64  `json:"price"`
	Stock  int64  `json:"stock"`
	Status string `json:"status"`
}

type GameLevel struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Difficulty  string `json:"difficulty"` // easy | medium | hard | hell
	Rewards     string `json:"rewards"`
	UnlockLevel int    `json:"unlockLevel"`
	Status      string `json:"status"`
}

func (c *Client) ListItems(ctx context.Context, keyword, itemType string) ([]GameItem, error) {
	params := url.Values{"keyword": {keyword}}
	if itemType != "" {
		params.Set("type", itemType)
	}
	var items []GameItem
	if err := c.get(ctx, "/api/game-data/items", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) ListLevels(ctx context.Context, keyword string) ([]GameLevel, error) {
	var levels []GameLevel
	if err := c.get(ctx, "/api/game-data/levels", url.Values{"keyword": {keyword}}, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}

// --- Dashboard ---

type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type DashboardStats struct {
	Cards []StatCard `json:"cards"`
}

func (c *Client) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	if err := c.get(ctx, "/api/dashboard/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
