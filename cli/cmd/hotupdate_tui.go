package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gameops/cli/api"
	"gameops/cli/history"
	"gameops/cli/hotupdate"
	"gameops/cli/style"
)

func runHotUpdateTUI(cmd *cobra.Command, args []string) error {
	events := make(chan struct{}, 1)
	hist := newSearcher(history.WithOnChange(func(history.State) { signalChange(events) }))
	ctrl := newController(
		hotupdate.WithHistory(hist),
		hotupdate.WithOnChange(func(hotupdate.State) { signalChange(events) }),
	)
	unsubscribe := sess.OnExpired(func() { signalChange(events) })
	defer func() {
		unsubscribe()
		ctrl.Close()
		hist.Close()
	}()

	m := newHotUpdateModel(cmd.Context(), header(cmd), ctrl, hist, events)
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if final.(hotUpdateModel).expired {
		return explain(api.ErrUnauthorized, "")
	}
	return nil
}

// --- Messages ---

type stateChanged struct{}

type opDone struct {
	op  string
	err error
}

// --- Model ---

type hotUpdateModel struct {
	ctx    context.Context
	title  string
	ctrl   *hotupdate.Controller
	hist   *history.Searcher
	events chan struct{}

	state     hotupdate.State
	histState history.State

	tab      string // "history" | "notice"
	search   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	cursor   int

	busy    string // "detect" | "execute" | ""
	flash   string
	flashFn func(...string) string
	locked  *hotupdate.LockedError
	expired bool
}

func newHotUpdateModel(ctx context.Context, title string, ctrl *hotupdate.Controller, hist *history.Searcher, events chan struct{}) hotUpdateModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.Primary)

	in := textinput.New()
	in.Placeholder = "搜索标题、执行人或提交号"
	in.Prompt = "🔍 "
	in.CharLimit = 64

	return hotUpdateModel{
		ctx:     ctx,
		title:   title,
		ctrl:    ctrl,
		hist:    hist,
		events:  events,
		state:   ctrl.State(),
		tab:     "history",
		search:  in,
		spinner: s,
	}
}

func (m hotUpdateModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForChange(m.events),
		m.run("history", m.hist.Refresh),
	)
}

func (m hotUpdateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := msg.Height - 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Executing {
			m.syncViewport()
		}
		return m, cmd

	case stateChanged:
		m.state = m.ctrl.State()
		m.histState = m.hist.State()
		if n := len(m.state.Steps); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		if !sess.Authenticated() {
			m.expired = true
			return m, tea.Quit
		}
		if m.state.PollErr != nil {
			m.setFlash(explain(m.state.PollErr, "获取执行状态失败").Error(), style.Unhealthy.Render)
		}
		m.syncViewport()
		return m, waitForChange(m.events)

	case opDone:
		m.busy = ""
		m.handleResult(msg)
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *hotUpdateModel) handleResult(msg opDone) {
	var locked *hotupdate.LockedError
	switch {
	case msg.err == nil:
		m.setFlash("", nil)
	case errors.Is(msg.err, hotupdate.ErrNoticeRequired):
		m.tab = "notice"
		m.setFlash("请先阅读并确认注意事项", style.Warning.Render)
	case errors.Is(msg.err, hotupdate.ErrNothingToUpdate):
		m.setFlash("当前没有需要更新的配置", style.Healthy.Render)
	case errors.As(msg.err, &locked):
		m.locked = locked
	case errors.Is(msg.err, hotupdate.ErrAborted), errors.Is(msg.err, hotupdate.ErrClosed):
	case msg.op == "history":
		// rendered from the searcher state
	default:
		m.setFlash(explain(msg.err, "操作失败").Error(), style.Unhealthy.Render)
	}
}

func (m *hotUpdateModel) setFlash(text string, fn func(...string) string) {
	m.flash = text
	m.flashFn = fn
}

func (m hotUpdateModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.locked != nil {
		m.locked = nil
		m.syncViewport()
		return m, nil
	}

	if m.search.Focused() {
		switch key {
		case "esc", "enter":
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		before := m.search.Value()
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != before {
			m.hist.SetKeyword(v)
		}
		return m, cmd
	}

	if key == "q" {
		return m, tea.Quit
	}
	if m.busy != "" {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state.Page {
	case hotupdate.PageDetect:
		cmd = m.detectKeys(key)
	case hotupdate.PageConfirm:
		cmd = m.confirmKeys(key)
	case hotupdate.PageExecute:
		cmd = m.executeKeys(key)
	}
	m.syncViewport()
	return m, cmd
}

func (m *hotUpdateModel) detectKeys(key string) tea.Cmd {
	switch key {
	case "tab":
		if m.tab == "history" {
			m.tab = "notice"
		} else {
			m.tab = "history"
		}
	case "n":
		m.tab = "notice"
	case " ", "x":
		m.ctrl.AcknowledgeNotice(!m.state.NoticeRead)
	case "/":
		m.tab = "history"
		return m.search.Focus()
	case "enter", "d":
		m.busy = "detect"
		m.setFlash("", nil)
		return m.run("detect", m.ctrl.Detect)
	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)
	}
	return nil
}

func (m *hotUpdateModel) confirmKeys(key string) tea.Cmd {
	switch key {
	case "enter", "y":
		m.busy = "execute"
		m.setFlash("", nil)
		return m.run("execute", m.ctrl.ConfirmAndExecute)
	case "esc", "b":
		m.ctrl.Back()
	case "up", "k":
		m.viewport.LineUp(1)
	case "down", "j":
		m.viewport.LineDown(1)
	}
	return nil
}

func (m *hotUpdateModel) executeKeys(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Steps)-1 {
			m.cursor++
		}
	case " ", "enter":
		if m.cursor < len(m.state.Steps) {
			m.ctrl.ToggleStep(m.state.Steps[m.cursor].Key)
		}
	case "esc", "b":
		if err := m.ctrl.Back(); err != nil {
			m.setFlash("执行中，无法返回", style.Warning.Render)
		}
	case "n", "r":
		if m.state.Finished() {
			m.cursor = 0
			m.search.SetValue("")
			return m.run("reset", func(ctx context.Context) error {
				m.ctrl.Reset(ctx)
				return nil
			})
		}
	case "pgup":
		m.viewport.HalfViewUp()
	case "pgdown":
		m.viewport.HalfViewDown()
	}
	return nil
}

// run executes a blocking controller call off the UI goroutine.
func (m hotUpdateModel) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDone{op: op, err: fn(ctx)}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChanged{}
	}
}

// --- View ---

func (m *hotUpdateModel) syncViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.body())
	if m.state.Executing && atBottom {
		m.viewport.GotoBottom()
	}
}

func (m hotUpdateModel) View() string {
	var b strings.Builder
	b.WriteString(m.title + "  " + style.Badge.Foreground(style.Primary).Render(pageName(m.state.Page)))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.body())
	}
	b.WriteString("\n")

	if m.flash != "" && m.flashFn != nil {
		b.WriteString(m.flashFn(m.flash) + "  ")
	}
	b.WriteString(style.DimText.Render(m.help()))
	return b.String()
}

func (m hotUpdateModel) body() string {
	if m.locked != nil {
		return style.ErrorBox.Render(fmt.Sprintf(
			"✗ 无法执行热更新\n\n%s 正在执行热更新（开始于 %s），请稍后再试。\n\n按任意键关闭",
			m.locked.LockedBy, m.locked.LockedAt,
		))
	}

	switch m.state.Page {
	case hotupdate.PageConfirm:
		out := renderConfirm(m.state)
		if m.busy == "execute" {
			out += "\n" + m.spinner.View() + style.DimText.Render(" 正在检查执行锁...")
		}
		return out
	case hotupdate.PageExecute:
		out := renderSteps(m.state.Steps, m.cursor, m.spinner.View())
		if m.state.Executing {
			out += "\n" + m.spinner.View() + style.DimText.Render(" 执行中...")
		} else if r := renderResult(m.state); r != "" {
			out += r
		}
		return out
	}
	return m.detectBody()
}

func (m hotUpdateModel) detectBody() string {
	var b strings.Builder
	b.WriteString(style.Title.Render("热更新配置"))
	b.WriteString("\n")
	b.WriteString(style.DimText.Render(heroText))
	b.WriteString("\n\n")

	check := "[ ]"
	if m.state.NoticeRead {
		check = style.Healthy.Render("[✓]")
	}
	b.WriteString(check + " 我已阅读并了解" + style.Code.Render("注意事项"))
	b.WriteString("\n\n")

	if m.busy == "detect" {
		b.WriteString(m.spinner.View() + style.DimText.Render(" 正在检测配置变更..."))
	} else {
		b.WriteString(style.Banner.Render("[ 检测表结构 ]"))
	}
	b.WriteString("\n\n")

	tabs := []struct{ key, text string }{{"history", "更新记录"}, {"notice", "注意事项"}}
	for _, t := range tabs {
		if t.key == m.tab {
			b.WriteString(style.Badge.Foreground(style.Primary).Underline(true).Render(t.text))
		} else {
			b.WriteString(style.Badge.Foreground(style.Dim).Render(t.text))
		}
	}
	b.WriteString("\n\n")

	if m.tab == "notice" {
		b.WriteString(renderNotice())
		return b.String()
	}

	b.WriteString(m.search.View())
	if m.histState.Loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")
	b.WriteString(renderHistory(m.histState, 0))
	return b.String()
}

func (m hotUpdateModel) help() string {
	if m.search.Focused() {
		return "enter/esc 完成搜索"
	}
	switch m.state.Page {
	case hotupdate.PageConfirm:
		return "enter 确认执行 • b 返回 • q 退出"
	case hotupdate.PageExecute:
		if m.state.Finished() {
			if m.state.AnyFailed() {
				return "↑/↓ 选择步骤 • space 展开 • r 重试 • b 返回 • q 退出"
			}
			return "↑/↓ 选择步骤 • space 展开 • n 开始新的更新 • b 返回 • q 退出"
		}
		return "↑/↓ 选择步骤 • space 展开/收起 • q 退出（执行将在服务器继续）"
	}
	return "space 确认注意事项 • enter 检测 • tab 切换 • / 搜索 • q 退出"
}

func pageName(p hotupdate.Page) string {
	switch p {
	case hotupdate.PageConfirm:
		return "② 确认更新"
	case hotupdate.PageExecute:
		return "③ 执行更新"
	}
	return "① 检测变更"
}
