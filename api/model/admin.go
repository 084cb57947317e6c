package model

type User struct {
	ID           int64  `json:"id" yaml:"id"`
	Username     string `json:"username" yaml:"username"`
	Nickname     string `json:"nickname" yaml:"nickname"`
	Email        string `json:"email" yaml:"email"`
	Status       string `json:"status" yaml:"status"` // active | banned | inactive
	Level        int    `json:"level" yaml:"level"`
	Coins        int64  `json:"coins" yaml:"coins"`
	RegisterTime string `json:"registerTime" yaml:"registerTime"`
	LastLogin    string `json:"lastLogin" yaml:"lastLogin"`
}

type GameItem struct {
	ID     int64  `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Rarity string `json:"rarity" yaml:"rarity"` // common | rare | epic | legendary
	Price  int64  `json:"price" yaml:"price"`
	Stock  int64  `json:"stock" yaml:"stock"`
	Status string `json:"status" yaml:"status"`
}

type GameLevel struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Difficulty  string `json:"difficulty" yaml:"difficulty"` // easy | medium | hard | hell
	Rewards     string `json:"rewards" yaml:"rewards"`
	UnlockLevel int    `json:"unlockLevel" yaml:"unlockLevel"`
	Status      string `json:"status" yaml:"status"`
}

type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type DashboardStats struct {
	Cards []StatCard `json:"cards"`
}

// Account is an operator of the console, not a player.
type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required" comment:"用户名"`
	Password string `json:"password" validate:"required" comment:"密码"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required" comment:"当前密码"`
	NewPassword string `json:"newPassword" validate:"required,min=6,nefield=OldPassword" comment:"新密码"`
}
