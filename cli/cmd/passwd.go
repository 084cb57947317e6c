package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gameops/cli/style"
)

const minPasswordLen = 6

var passwdCmd = &cobra.Command{
	Use:         "passwd",
	Short:       "Change the password of the signed-in account",
	Args:        cobra.NoArgs,
	Annotations: withRoute("/account"),
	RunE:        runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	fmt.Println(header(cmd))
	fmt.Println()

	oldPassword, err := readSecret("当前密码")
	if err != nil {
		return err
	}
	newPassword, err := readSecret("新密码")
	if err != nil {
		return err
	}
	confirmPassword, err := readSecret("确认新密码")
	if err != nil {
		return err
	}
	if err := checkNewPassword(oldPassword, newPassword, confirmPassword); err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return explain(err, "密码修改失败")
	}
	fmt.Println(style.SuccessBox.Render("✓ 密码修改成功"))
	return nil
}

func checkNewPassword(oldPassword, newPassword, confirmPassword string) error {
	switch {
	case oldPassword == "":
		return errors.New("请输入当前密码")
	case len([]rune(newPassword)) < minPasswordLen:
		return fmt.Errorf("新密码长度不能少于 %d 位", minPasswordLen)
	case newPassword != confirmPassword:
		return errors.New("两次输入的新密码不一致")
	}
	return nil
}
