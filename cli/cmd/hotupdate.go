package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gameops/cli/api"
	"gameops/cli/history"
	"gameops/cli/hotupdate"
	"gameops/cli/style"
)

var (
	huAck bool
	huYes bool
)

var hotUpdateCmd = &cobra.Command{
	Use:     "hot-update",
	Short:   "Detect, confirm and execute a configuration hot update",
	Aliases: []string{"hu"},
	Long: `Runs the hot-update wizard: read the notice, detect changed configs, review
the change summary, then execute with live step logs.

Without a subcommand an interactive terminal UI is started.`,
	Args:        cobra.NoArgs,
	Annotations: withRoute("/hot-update"),
	RunE:        runHotUpdateTUI,
}

var huNoticeCmd = &cobra.Command{
	Use:   "notice",
	Short: "Print the hot-update notice",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(header(cmd))
		fmt.Println()
		fmt.Print(renderNotice())
	},
}

var huDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show pending configuration changes without executing",
	Args:  cobra.NoArgs,
	RunE:  runHotUpdateDetect,
}

var huRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect and execute a hot update, streaming step logs",
	Args:  cobra.NoArgs,
	RunE:  runHotUpdateRun,
}

var huStatusCmd = &cobra.Command{
	Use:   "status <execution-id>",
	Short: "Follow a running execution until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runHotUpdateStatus,
}

var huHistoryCmd = &cobra.Command{
	Use:     "history [keyword]",
	Short:   "List past hot updates",
	Aliases: []string{"log"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runHotUpdateHistory,
}

func init() {
	for _, c := range []*cobra.Command{huDetectCmd, huRunCmd} {
		c.Flags().BoolVar(&huAck, "ack", false, "acknowledge the notice (see `gameops hot-update notice`)")
	}
	huRunCmd.Flags().BoolVarP(&huYes, "yes", "y", false, "execute without asking for confirmation")

	hotUpdateCmd.AddCommand(huNoticeCmd, huDetectCmd, huRunCmd, huStatusCmd, huHistoryCmd)
	rootCmd.AddCommand(hotUpdateCmd)
}

func newSearcher(opts ...history.Option) *history.Searcher {
	opts = append([]history.Option{
		history.WithQuiet(cfg.HistoryQuiet),
		history.WithPageSize(cfg.PageSize),
		history.WithLogger(logger.Named("history")),
	}, opts...)
	return history.New(client, opts...)
}

func newController(opts ...hotupdate.Option) *hotupdate.Controller {
	opts = append([]hotupdate.Option{
		hotupdate.WithPollInterval(cfg.PollInterval),
		hotupdate.WithLogger(logger.Named("hotupdate")),
	}, opts...)
	return hotupdate.New(client, opts...)
}

// acknowledge sets the notice gate from --ack or by asking on the terminal.
func acknowledge(ctrl *hotupdate.Controller) error {
	if !huAck {
		fmt.Print(renderNotice())
		fmt.Println()
		ok, err := confirm("我已阅读并了解注意事项")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("请先阅读并确认注意事项")
		}
	}
	ctrl.AcknowledgeNotice(true)
	return nil
}

func detect(ctx context.Context, ctrl *hotupdate.Controller) error {
	err := ctrl.Detect(ctx)
	switch {
	case errors.Is(err, hotupdate.ErrNothingToUpdate):
		fmt.Println(style.SuccessBox.Render("✓ 当前没有需要更新的配置"))
		return err
	case err != nil:
		return explain(err, "检测失败")
	}
	fmt.Println(renderConfirm(ctrl.State()))
	return nil
}

func runHotUpdateDetect(cmd *cobra.Command, args []string) error {
	fmt.Println(header(cmd))
	ctrl := newController()
	defer ctrl.Close()

	if err := acknowledge(ctrl); err != nil {
		return err
	}
	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := detect(ctx, ctrl); err != nil && !errors.Is(err, hotupdate.ErrNothingToUpdate) {
		return err
	}
	return nil
}

func runHotUpdateRun(cmd *cobra.Command, args []string) error {
	fmt.Println(header(cmd))
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	ctrl := newController(
		hotupdate.WithHistory(newSearcher()),
		hotupdate.WithOnChange(func(hotupdate.State) { signalChange(changed) }),
	)
	defer ctrl.Close()

	if err := acknowledge(ctrl); err != nil {
		return err
	}
	if err := detect(ctx, ctrl); err != nil {
		if errors.Is(err, hotupdate.ErrNothingToUpdate) {
			return nil
		}
		return err
	}

	if !huYes {
		ok, err := confirm("确认执行热更新")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(style.DimText.Render("已取消"))
			return nil
		}
	}

	if err := ctrl.ConfirmAndExecute(ctx); err != nil {
		var locked *hotupdate.LockedError
		if errors.As(err, &locked) {
			return fmt.Errorf("%s 正在执行热更新（开始于 %s），请稍后再试", locked.LockedBy, locked.LockedAt)
		}
		return explain(err, "启动热更新失败")
	}
	fmt.Println(style.DimText.Render("执行编号 " + ctrl.State().ExecutionID))
	return follow(ctx, ctrl, changed)
}

func runHotUpdateStatus(cmd *cobra.Command, args []string) error {
	fmt.Println(header(cmd))
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	changed := make(chan struct{}, 1)
	ctrl := newController(hotupdate.WithOnChange(func(hotupdate.State) { signalChange(changed) }))
	defer ctrl.Close()

	if err := ctrl.Resume(args[0]); err != nil {
		return err
	}
	return follow(ctx, ctrl, changed)
}

// signalChange coalesces notifications; the receiver always reads fresh state.
func signalChange(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// follow prints step transitions and new log lines until the execution
// reaches a terminal status.
func follow(ctx context.Context, ctrl *hotupdate.Controller, changed <-chan struct{}) error {
	printed := map[string]int{}
	statuses := map[string]api.StepStatus{}

	for {
		st := ctrl.State()
		for _, s := range st.Steps {
			if statuses[s.Key] != s.Status && s.Status != api.StepIdle {
				statuses[s.Key] = s.Status
				line := fmt.Sprintf("%s %s", stepIcon(s.Status, style.StepRunning.Render("●")), stepTitle(s))
				if s.Duration != "" {
					line += "  " + style.DimText.Render(s.Duration)
				}
				fmt.Println(line)
			}
			for _, l := range s.Logs[min(printed[s.Key], len(s.Logs)):] {
				fmt.Println("    " + renderLogLine(l))
			}
			printed[s.Key] = len(s.Logs)
		}

		if st.PollErr != nil {
			return explain(st.PollErr, "获取执行状态失败")
		}
		if st.Status.Terminal() && !st.Executing {
			fmt.Println(renderResult(st))
			if st.AnyFailed() {
				return errors.New("hot update failed")
			}
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Println(style.WarningBox.Render("已停止跟踪，执行仍在服务器上继续: gameops hot-update status " + st.ExecutionID))
			return nil
		case <-changed:
		}
	}
}

func runHotUpdateHistory(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, "")
	s := newSearcher(history.WithKeyword(keyword))
	defer s.Close()

	ctx, cancel := requestContext(cmd)
	defer cancel()
	err := s.Refresh(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return explain(err, "")
	}

	fmt.Println(header(cmd) + style.Subtitle.Render("  更新记录"))
	fmt.Println()
	fmt.Print(renderHistory(s.State(), 0))
	return nil
}
