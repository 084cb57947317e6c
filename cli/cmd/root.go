package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gameops/cli/api"
	"gameops/cli/config"
	"gameops/cli/logging"
	"gameops/cli/nav"
	"gameops/cli/session"
	"gameops/cli/style"
)

var (
	apiURL     string
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	sess   *session.Session
	client *api.Client
)

// routeKey annotates a command with the console route it stands for.
const routeKey = "route"

var errNotLoggedIn = errors.New("not logged in, run `gameops login` first")

var rootCmd = &cobra.Command{
	Use:   "gameops",
	Short: "Operations console for the game backend",
	Long: `gameops: the game operations console in your terminal.

Manage players and game data, and roll out configuration with the hot-update
workflow: detect changes, confirm, execute with live step logs.`,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, style.ErrorBox.Render("✗ "+err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "backend API URL (overrides config and GAMEOPS_URL)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gameops/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log API traffic to stderr")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	logger, err = logging.New(verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	sess, err = session.New(session.FileStore{Path: cfg.TokenFile})
	if err != nil {
		return err
	}
	sess.OnExpired(func() {
		logger.Info("session expired, redirecting to login")
	})

	client = api.New(cfg.APIURL, sess, api.WithLogger(logger))
	client.HTTPClient.Timeout = cfg.Timeout

	route := routeOf(cmd)
	if route == "" {
		return nil
	}
	if nav.Guard(route, sess.Authenticated()) == nav.LoginRoute && route != nav.LoginRoute {
		return errNotLoggedIn
	}
	return nil
}

// routeOf finds the nearest route annotation walking up the command tree.
func routeOf(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if r := c.Annotations[routeKey]; r != "" {
			return r
		}
	}
	return ""
}

func withRoute(route string) map[string]string {
	return map[string]string{routeKey: route}
}

// header renders the banner line with the breadcrumb of the command's route.
func header(cmd *cobra.Command) string {
	sel := nav.Resolve(routeOf(cmd))
	return style.Banner.Render("⚡ GAMEOPS") + "  " + style.Crumb.Render(strings.Join(sel.Breadcrumb, " / "))
}

// renderNav draws the top groups and the pages of the current group, each
// with the command that opens it.
func renderNav(root *cobra.Command, route string) string {
	sel := nav.Resolve(route)

	tops := make([]string, 0, len(nav.TopGroups))
	for _, g := range nav.TopGroups {
		if g.Key == sel.Group {
			tops = append(tops, style.Badge.Foreground(style.Primary).Render(g.Text))
			continue
		}
		text := g.Text
		if c := commandFor(root, nav.FirstPage(g.Key)); c != "" {
			text += " (" + c + ")"
		}
		tops = append(tops, style.DimText.Render(text))
	}

	var b strings.Builder
	b.WriteString(strings.Join(tops, "  ") + "\n")
	for _, it := range sel.Side {
		hint := commandFor(root, it.Key)
		switch {
		case it.Key == route:
			b.WriteString("  ▸ " + style.Bold.Render(it.Text) + "\n")
		case hint != "":
			b.WriteString("    " + padRight(it.Text, 10) + style.Code.Render(hint) + "\n")
		default:
			b.WriteString("    " + style.DimText.Render(it.Text) + "\n")
		}
	}
	return b.String()
}

// commandFor names the top-level command serving route, or "".
func commandFor(root *cobra.Command, route string) string {
	for _, c := range root.Commands() {
		if c.Annotations[routeKey] == route {
			return root.Name() + " " + c.Name()
		}
	}
	return ""
}

// explain turns a client error into the message shown to the operator.
func explain(err error, fallback string) error {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("登录已过期，请重新登录 (gameops login)")
	case errors.As(err, &apiErr):
		if apiErr.Message == "" {
			return errors.New(fallback)
		}
		return errors.New(apiErr.Message)
	case err != nil:
		return fmt.Errorf("网络错误，请稍后重试: %w", err)
	}
	return nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout+5*time.Second)
}

// padRight pads to n terminal columns; styled and wide text are measured
// by their rendered width.
func padRight(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}
