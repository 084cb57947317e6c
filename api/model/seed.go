package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content of the development backend.
type Seed struct {
	Accounts []Account            `yaml:"accounts"`
	Users    []User               `yaml:"users"`
	Items    []GameItem           `yaml:"items"`
	Levels   []GameLevel          `yaml:"levels"`
	History  []HistoryItem        `yaml:"history"`
	Pending  *DetectResult        `yaml:"pending"`
	FailStep string               `yaml:"failStep"` // step key forced to fail, for rehearsing error handling
	Logs     map[string][]LogLine `yaml:"logs"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	seed := DefaultSeed()
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return seed, nil
}

// DefaultSeed mirrors the demo data operators are used to seeing.
func DefaultSeed() *Seed {
	return &Seed{
		Accounts: []Account{
			{Username: "admin", Password: "admin", Name: "管理员"},
		},
		Users: []User{
			{ID: 1, Username: "player001", Nickname: "王者玩家", Email: "player001@game.com", Status: "active", Level: 58, Coins: 12500, RegisterTime: "2025-06-15", LastLogin: "2026-02-01"},
			{ID: 2, Username: "player002", Nickname: "快乐游戏", Email: "player002@game.com", Status: "active", Level: 32, Coins: 5800, RegisterTime: "2025-08-20", LastLogin: "2026-01-30"},
			{ID: 3, Username: "player003", Nickname: "游戏达人", Email: "player003@game.com", Status: "banned", Level: 45, Coins: 0, RegisterTime: "2025-05-10", LastLogin: "2026-01-15"},
			{ID: 4, Username: "player004", Nickname: "新手小白", Email: "player004@game.com", Status: "inactive", Level: 5, Coins: 200, RegisterTime: "2026-01-20", LastLogin: "2026-01-22"},
			{ID: 5, Username: "player005", Nickname: "氪金大佬", Email: "player005@game.com", Status: "active", Level: 99, Coins: 999999, RegisterTime: "2024-12-01", LastLogin: "2026-02-01"},
		},
		Items: []GameItem{
			{ID: 1, Name: "初级血瓶", Type: "消耗品", Rarity: "common", Price: 100, Stock: 9999, Status: "active"},
			{ID: 2, Name: "高级血瓶", Type: "消耗品", Rarity: "rare", Price: 500, Stock: 5000, Status: "active"},
			{ID: 3, Name: "屠龙宝刀", Type: "武器", Rarity: "legendary", Price: 99999, Stock: 10, Status: "active"},
			{ID: 4, Name: "精灵之弓", Type: "武器", Rarity: "epic", Price: 25000, Stock: 100, Status: "active"},
			{ID: 5, Name: "复活石", Type: "消耗品", Rarity: "epic", Price: 10000, Stock: 500, Status: "inactive"},
		},
		Levels: []GameLevel{
			{ID: 1, Name: "新手村", Difficulty: "easy", Rewards: "100金币, 初级装备", UnlockLevel: 1, Status: "active"},
			{ID: 2, Name: "黑暗森林", Difficulty: "medium", Rewards: "500金币, 稀有装备", UnlockLevel: 10, Status: "active"},
			{ID: 3, Name: "火焰山", Difficulty: "hard", Rewards: "2000金币, 史诗装备", UnlockLevel: 30, Status: "active"},
			{ID: 4, Name: "魔王城", Difficulty: "hell", Rewards: "10000金币, 传说装备", UnlockLevel: 50, Status: "active"},
			{ID: 5, Name: "隐藏副本", Difficulty: "hell", Rewards: "特殊奖励", UnlockLevel: 99, Status: "inactive"},
		},
		History: []HistoryItem{
			{ID: 1, Title: "配置更新成功", Time: "2026-02-02 14:32:18", Executor: "张策划", Commit: "a1b2c3d4e5f6", Status: HistorySuccess},
			{ID: 2, Title: "配置更新成功", Time: "2026-02-01 10:15:42", Executor: "李开发", Commit: "b2c3d4e5f6g7", Status: HistorySuccess},
			{ID: 3, Title: "配置回滚", Time: "2026-01-31 16:28:05", Executor: "王运维", Commit: "c3d4e5f6g7h8", Status: HistoryRollback},
			{ID: 4, Title: "配置更新成功", Time: "2026-01-30 09:45:33", Executor: "张策划", Commit: "d4e5f6g7h8i9", Status: HistorySuccess},
			{ID: 5, Title: "配置更新失败", Time: "2026-01-29 15:22:11", Executor: "李开发", Commit: "e5f6g7h8i9j0", Status: HistoryFailed},
		},
		Pending: &DetectResult{
			HasSchemaChange: true,
			Changes: []ChangeItem{
				{Name: "t_item", Type: ChangeSchema},
				{Name: "t_level", Type: ChangeData},
				{Name: "t_config", Type: ChangeData},
			},
			ConfigFiles: []string{"game_config.json", "item_config.json", "level_config.json"},
		},
		Logs: DefaultStepLogs(),
	}
}

// DefaultStepLogs is the scripted output of each simulated step. Only the
// content and type are replayed; timestamps are taken when a line is emitted.
func DefaultStepLogs() map[string][]LogLine {
	return map[string][]LogLine{
		"upload": {
			{Content: "开始上传配置文件...", Type: "info"},
			{Content: "检测到 5 个配置文件", Type: "info"},
			{Content: "正在校验 game_config.json...", Type: "info"},
			{Content: "正在校验 item_config.json...", Type: "info"},
			{Content: "正在校验 level_config.json...", Type: "info"},
			{Content: "✓ 所有配置文件校验通过", Type: "success"},
			{Content: "正在上传到测试服务器...", Type: "info"},
			{Content: "✓ 上传完成", Type: "success"},
		},
		"build": {
			{Content: "检测到表结构变更，开始镜像重建...", Type: "warning"},
			{Content: "Pulling base image: game-server:latest", Type: "info"},
			{Content: "Step 1/5: FROM game-server:latest", Type: "info"},
			{Content: "Step 2/5: COPY config/ /app/config/", Type: "info"},
			{Content: "Step 3/5: RUN npm run build", Type: "info"},
			{Content: "Building game logic...", Type: "info"},
			{Content: "Compiling schemas...", Type: "info"},
			{Content: "Step 4/5: RUN npm run migrate", Type: "info"},
			{Content: "Running database migrations...", Type: "info"},
			{Content: "Step 5/5: CMD [\"npm\", \"start\"]", Type: "info"},
			{Content: "✓ 镜像构建完成: game-server:v1.2.3", Type: "success"},
		},
		"restart": {
			{Content: "正在停止当前服务...", Type: "info"},
			{Content: "Stopping container: game-test-server", Type: "info"},
			{Content: "✓ 服务已停止", Type: "success"},
			{Content: "正在启动新服务...", Type: "info"},
			{Content: "Starting container with new image...", Type: "info"},
			{Content: "Health check: waiting...", Type: "info"},
			{Content: "Health check: passed", Type: "success"},
			{Content: "✓ 服务启动成功，测试服已更新", Type: "success"},
		},
	}
}
