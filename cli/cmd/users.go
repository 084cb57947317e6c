package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gameops/cli/api"
	"gameops/cli/style"
)

var usersCmd = &cobra.Command{
	Use:         "users [keyword]",
	Short:       "List players, optionally filtered by name or email",
	Aliases:     []string{"u"},
	Args:        cobra.MaximumNArgs(1),
	Annotations: withRoute("/users"),
	RunE:        runUsers,
}

var banYes bool

var usersBanCmd = &cobra.Command{
	Use:   "ban <user-id>",
	Short: "Ban a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersBan,
}

func init() {
	usersBanCmd.Flags().BoolVarP(&banYes, "yes", "y", false, "skip the confirmation prompt")
	usersCmd.AddCommand(usersBanCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, "")

	ctx, cancel := requestContext(cmd)
	defer cancel()
	users, err := client.ListUsers(ctx, keyword)
	if err != nil {
		return explain(err, "获取用户列表失败")
	}

	fmt.Println(header(cmd) + style.Subtitle.Render(fmt.Sprintf("  %d 名用户", len(users))))
	fmt.Println()
	if len(users) == 0 {
		fmt.Println(style.DimText.Render("  暂无数据"))
		return nil
	}

	fmt.Println(style.TableHeader.Render(fmt.Sprintf("  %-6s %s %s %s %-6s %-10s %s",
		"ID", padRight("用户名", 14), padRight("昵称", 14), padRight("状态", 8), "等级", "金币", "最后登录")))
	for _, u := range users {
		printUserRow(u)
	}
	fmt.Println()
	return nil
}

func printUserRow(u api.User) {
	fmt.Printf("  %-6d %s %s %s %-6d %-10d %s\n",
		u.ID,
		style.Bold.Render(padRight(u.Username, 14)),
		padRight(u.Nickname, 14),
		padRight(style.LabelFor(style.UserStatus, u.Status), 8),
		u.Level,
		u.Coins,
		style.DimText.Render(u.LastLogin),
	)
}

func runUsersBan(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	if !banYes {
		ok, err := confirm(fmt.Sprintf("确定封禁用户 #%d", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(style.DimText.Render("已取消"))
			return nil
		}
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := client.BanUser(ctx, id); err != nil {
		return explain(err, "封禁失败")
	}
	fmt.Println(style.SuccessBox.Render(fmt.Sprintf("✓ 用户 #%d 已封禁", id)))
	return nil
}
