package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gameops/cli/api"
	"gameops/cli/style"
)

var watchExecution string

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Tail live hot-update events from the backend",
	Args:        cobra.NoArgs,
	Annotations: withRoute("/hot-update"),
	RunE:        runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchExecution, "execution", "e", "", "only show events of this execution")
	hotUpdateCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}
	fmt.Println(header(cmd) + style.Subtitle.Render("  live events, ctrl+c to stop"))
	fmt.Println()

	for evt := range events {
		if watchExecution != "" && evt.ExecutionID != "" && evt.ExecutionID != watchExecution {
			continue
		}
		if line := formatEvent(evt); line != "" {
			fmt.Println(line)
		}
	}
	if ctx.Err() == nil {
		return fmt.Errorf("event stream closed by server")
	}
	return nil
}

func formatEvent(evt api.Event) string {
	ts := style.LogTime.Render(time.Now().Format("15:04:05"))
	id := ""
	if len(evt.ExecutionID) >= 8 {
		id = style.Code.Render(evt.ExecutionID[:8]) + " "
	}

	switch evt.Type {
	case "hotupdate.step":
		var p struct{ Step, Status string }
		if json.Unmarshal(evt.Payload, &p) != nil {
			return ""
		}
		return ts + id + stepIcon(api.StepStatus(p.Status), style.StepRunning.Render("●")) + " " + p.Step + " " + style.DimText.Render(p.Status)
	case "hotupdate.log":
		var p struct {
			Step string
			Line api.LogLine
		}
		if json.Unmarshal(evt.Payload, &p) != nil {
			return ""
		}
		return ts + id + style.DimText.Render(p.Step+" ") + renderLogLine(p.Line)
	case "hotupdate.completed":
		return ts + id + style.Healthy.Render("✓ 热更新完成")
	case "hotupdate.failed":
		var p struct{ Error string }
		_ = json.Unmarshal(evt.Payload, &p)
		return ts + id + style.Unhealthy.Render("✗ 热更新失败 "+p.Error)
	case "server.status":
		var p struct {
			Locked         bool
			LockedBy       string
			PendingChanges int
		}
		if json.Unmarshal(evt.Payload, &p) != nil {
			return ""
		}
		lock := style.Healthy.Render("空闲")
		if p.Locked {
			lock = style.Warning.Render("执行中 (" + p.LockedBy + ")")
		}
		return ts + style.DimText.Render(fmt.Sprintf("status  lock=%s  pending=%d", lock, p.PendingChanges))
	}
	return ""
}
