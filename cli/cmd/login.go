package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gameops/cli/nav"
	"gameops/cli/style"
)

var loginCmd = &cobra.Command{
	Use:         "login [username]",
	Short:       "Sign in to the console",
	Args:        cobra.MaximumNArgs(1),
	Annotations: withRoute(nav.LoginRoute),
	RunE:        runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sess.Clear(); err != nil {
			return err
		}
		fmt.Println(style.DimText.Render("已退出登录"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	fmt.Println(style.Banner.Render("⚡ GAMEOPS") + "  " + style.Crumb.Render("登录"))

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		var err error
		if username, err = promptText("用户名", os.Getenv("USER")); err != nil {
			return err
		}
	}

	password := os.Getenv("GAMEOPS_PASSWORD")
	if password == "" {
		var err error
		if password, err = readSecret("密码"); err != nil {
			return err
		}
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := client.Login(ctx, username, password); err != nil {
		return explain(err, "登录失败")
	}

	fmt.Println(style.SuccessBox.Render("✓ 登录成功，欢迎 " + username))
	return nil
}
