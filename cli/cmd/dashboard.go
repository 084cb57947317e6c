package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gameops/cli/nav"
	"gameops/cli/style"
)

var dashboardCmd = &cobra.Command{
	Use:         "dashboard",
	Short:       "Show headline statistics",
	Aliases:     []string{"dash"},
	Args:        cobra.NoArgs,
	Annotations: withRoute(nav.DefaultRoute),
	RunE:        runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	stats, err := client.Dashboard(ctx)
	if err != nil {
		return explain(err, "获取统计数据失败")
	}

	fmt.Println(header(cmd))
	fmt.Println()

	cards := make([]string, 0, len(stats.Cards))
	for _, c := range stats.Cards {
		cards = append(cards, style.CardStyle.Render(
			style.DimText.Render(c.Title)+"\n"+style.Bold.Render(c.Value),
		))
	}
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	fmt.Println()
	fmt.Print(renderNav(cmd.Root(), routeOf(cmd)))
	fmt.Println()
	return nil
}
