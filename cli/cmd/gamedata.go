package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gameops/cli/style"
)

var itemType string

var itemsCmd = &cobra.Command{
	Use:         "items [keyword]",
	Short:       "List game items",
	Args:        cobra.MaximumNArgs(1),
	Annotations: withRoute("/game-data"),
	RunE:        runItems,
}

var levelsCmd = &cobra.Command{
	Use:         "levels [keyword]",
	Short:       "List game levels",
	Args:        cobra.MaximumNArgs(1),
	Annotations: withRoute("/game-data"),
	RunE:        runLevels,
}

func init() {
	itemsCmd.Flags().StringVarP(&itemType, "type", "t", "", "filter by item type, e.g. 武器 or 消耗品")
	rootCmd.AddCommand(itemsCmd, levelsCmd)
}

func runItems(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	items, err := client.ListItems(ctx, strings.Join(args, ""), itemType)
	if err != nil {
		return explain(err, "获取道具列表失败")
	}

	fmt.Println(header(cmd) + style.Subtitle.Render(fmt.Sprintf("  %d 个道具", len(items))))
	fmt.Println()
	if len(items) == 0 {
		fmt.Println(style.DimText.Render("  暂无数据"))
		return nil
	}

	fmt.Println(style.TableHeader.Render(fmt.Sprintf("  %-6s %s %-12s %s %-8s %-8s %s",
		"ID", padRight("名称", 16), "类型", padRight("稀有度", 8), "价格", "库存", "状态")))
	for _, it := range items {
		fmt.Printf("  %-6d %s %-12s %s %-8d %-8d %s\n",
			it.ID,
			style.Bold.Render(padRight(it.Name, 16)),
			it.Type,
			padRight(style.LabelFor(style.Rarity, it.Rarity), 8),
			it.Price,
			it.Stock,
			style.LabelFor(style.ItemStatus, it.Status),
		)
	}
	fmt.Println()
	return nil
}

func runLevels(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	levels, err := client.ListLevels(ctx, strings.Join(args, ""))
	if err != nil {
		return explain(err, "获取关卡列表失败")
	}

	fmt.Println(header(cmd) + style.Subtitle.Render(fmt.Sprintf("  %d 个关卡", len(levels))))
	fmt.Println()
	if len(levels) == 0 {
		fmt.Println(style.DimText.Render("  暂无数据"))
		return nil
	}

	fmt.Println(style.TableHeader.Render(fmt.Sprintf("  %-6s %s %s %s %s",
		"ID", padRight("名称", 16), padRight("难度", 8), padRight("解锁等级", 10), "奖励")))
	for _, lv := range levels {
		fmt.Printf("  %-6d %s %s %-10d %s\n",
			lv.ID,
			style.Bold.Render(padRight(lv.Name, 16)),
			padRight(style.LabelFor(style.Difficulty, lv.Difficulty), 8),
			lv.UnlockLevel,
			style.DimText.Render(lv.Rewards),
		)
	}
	fmt.Println()
	return nil
}
