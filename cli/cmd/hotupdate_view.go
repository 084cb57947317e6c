package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gameops/cli/api"
	"gameops/cli/history"
	"gameops/cli/hotupdate"
	"gameops/cli/style"
)

const heroText = "热更新功能支持在线更新游戏配置，无需重启服务即可生效。系统会自动检测表结构变更，\n如有变更将执行镜像重建流程，确保数据一致性。"

var noticeSections = []struct{ title, body string }{
	{"配置审核", "更新前请确保已完成配置文件的审核，检查数据格式是否正确、字段值是否合理。\n配置错误可能导致游戏服务异常，影响玩家体验。"},
	{"表结构变更", "如果配置涉及数据库表结构变更（如新增字段、修改字段类型等），系统将自动触发镜像重建流程。\n此过程预计耗时 3-5 分钟，期间服务会短暂中断，请合理安排更新时间。"},
	{"更新时机建议", "建议在业务低峰期执行更新操作，如凌晨或工作日上午。避免在活动期间、服务器高峰时段进行热更新，\n以减少对在线玩家的影响。如有紧急更新需求，请提前通知运营团队。"},
	{"回滚机制", "系统支持配置回滚功能，如发现更新后出现问题，可在更新记录中选择历史版本进行回滚。\n回滚操作会将配置恢复到指定版本的状态，请谨慎操作。"},
}

func renderNotice() string {
	var b strings.Builder
	for i, s := range noticeSections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(style.Bold.Render(s.title) + "\n")
		b.WriteString(style.DimText.Render(s.body) + "\n")
	}
	return b.String()
}

func renderConfirm(st hotupdate.State) string {
	var b strings.Builder

	if st.Detect != nil && st.Detect.HasSchemaChange {
		b.WriteString(style.WarningBox.Render("⚠ 检测到表结构变更，执行更新时需要重建镜像，此过程可能需要几分钟。"))
	} else {
		b.WriteString(style.SuccessBox.Render("✓ 仅检测到数据变更，支持热更新，确认后即可执行。"))
	}
	b.WriteString("\n\n")

	cards := []string{
		style.CardStyle.Render(style.DimText.Render("结构变更") + "\n" + style.Bold.Render(fmt.Sprint(st.Summary.Schema))),
		style.CardStyle.Render(style.DimText.Render("数据变更") + "\n" + style.Bold.Render(fmt.Sprint(st.Summary.Data))),
		style.CardStyle.Render(style.DimText.Render("变更总数") + "\n" + style.Bold.Render(fmt.Sprint(st.Summary.Total))),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	b.WriteString("\n\n")

	b.WriteString(style.Bold.Render("变更详情") + "\n")
	if st.Detect != nil {
		for _, c := range st.Detect.Changes {
			tag := style.Tag("数据变更", style.Primary)
			if c.Type == api.ChangeSchema {
				tag = style.Tag("结构变更", style.Orange)
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", padRight(c.Name, 16), tag))
		}
		if len(st.Detect.ConfigFiles) > 0 {
			b.WriteString("\n" + style.Bold.Render("配置文件") + "\n")
			for _, f := range st.Detect.ConfigFiles {
				b.WriteString("  " + style.Code.Render(f) + "\n")
			}
		}
	}
	return b.String()
}

func stepIcon(status api.StepStatus, spin string) string {
	switch status {
	case api.StepSuccess:
		return style.StepDone.Render("✓")
	case api.StepRunning:
		return spin
	case api.StepError:
		return style.StepFailed.Render("✗")
	default:
		return style.StepPending.Render("○")
	}
}

func stepTitle(s api.ExecutionStep) string {
	switch s.Status {
	case api.StepSuccess:
		return style.StepDone.Render(s.Title)
	case api.StepRunning:
		return style.StepRunning.Render(s.Title)
	case api.StepError:
		return style.StepFailed.Render(s.Title)
	default:
		return style.StepPending.Render(s.Title)
	}
}

func renderLogLine(l api.LogLine) string {
	content := l.Content
	switch l.Type {
	case api.LogSuccess:
		content = style.LogSuccess.Render(content)
	case api.LogError:
		content = style.LogError.Render(content)
	case api.LogWarning:
		content = style.LogWarning.Render(content)
	}
	return style.LogTime.Render("["+l.Time+"]") + content
}

// renderSteps draws the execution timeline. selected < 0 disables the cursor.
func renderSteps(steps []api.ExecutionStep, selected int, spin string) string {
	var b strings.Builder
	for i, s := range steps {
		cursor := "  "
		if i == selected {
			cursor = style.StepRunning.Render("▸ ")
		}
		fold := "▸"
		if s.Expanded {
			fold = "▾"
		}
		line := fmt.Sprintf("%s%s %s %s", cursor, stepIcon(s.Status, spin), padRight(stepTitle(s), 12), style.DimText.Render(fold))
		if s.Duration != "" {
			line += "  " + style.DimText.Render(s.Duration)
		}
		b.WriteString(line + "\n")
		if !s.Expanded {
			continue
		}
		if len(s.Logs) == 0 {
			b.WriteString("      " + style.DimText.Render("等待执行...") + "\n")
		}
		for _, l := range s.Logs {
			b.WriteString("      " + renderLogLine(l) + "\n")
		}
	}
	return b.String()
}

func renderResult(st hotupdate.State) string {
	switch {
	case st.AllSucceeded():
		return style.SuccessBox.Render("✓ 热更新完成，所有步骤执行成功")
	case st.AnyFailed():
		return style.ErrorBox.Render("✗ 热更新失败，请检查日志后重试")
	}
	return ""
}

func renderHistory(st history.State, limit int) string {
	var b strings.Builder
	switch {
	case st.Err != nil:
		b.WriteString(style.ErrorBox.Render("✗ 获取更新记录失败: "+st.Err.Error()) + "\n")
	case st.Empty:
		b.WriteString(style.DimText.Render("  暂无匹配记录") + "\n")
		return b.String()
	}
	if len(st.Items) == 0 {
		return b.String()
	}

	b.WriteString(style.TableHeader.Render(fmt.Sprintf("  %s %s %s %s %s",
		padRight("标题", 24), padRight("时间", 18), padRight("执行人", 10), padRight("提交", 10), "状态")) + "\n")
	for i, it := range st.Items {
		if limit > 0 && i >= limit {
			b.WriteString(style.DimText.Render(fmt.Sprintf("  … 另有 %d 条", len(st.Items)-limit)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %s %s %s %s %s\n",
			style.Bold.Render(padRight(it.Title, 24)),
			style.DimText.Render(padRight(it.Time, 18)),
			padRight(it.Executor, 10),
			style.Code.Render(padRight(it.Commit, 10)),
			style.LabelFor(style.HistoryStatus, string(it.Status)),
		))
	}
	return b.String()
}
