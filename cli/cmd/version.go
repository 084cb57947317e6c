package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gameops/cli/style"
)

var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		logo := lipgloss.NewStyle().
			Bold(true).
			Foreground(style.Primary).
			Render(`
  ┌─┐┌─┐┌┬┐┌─┐┌─┐┌─┐┌─┐
  │ ┬├─┤│││├┤ │ │├─┘└─┐
  └─┘┴ ┴┴ ┴└─┘└─┘┴  └─┘`)

		fmt.Println(logo)
		fmt.Println()
		fmt.Printf("  %s %s\n", style.Key.Render("Version"), style.Val.Render(Version))
		fmt.Printf("  %s %s\n", style.Key.Render("API"), style.Val.Render(cfg.APIURL))
		fmt.Printf("  %s %s\n", style.Key.Render("Session"), style.Val.Render(sessionLabel()))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func sessionLabel() string {
	if sess.Authenticated() {
		return style.Healthy.Render("signed in")
	}
	return style.DimText.Render("signed out")
}
