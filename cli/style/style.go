package style

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary = lipgloss.Color("#3370FF")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Orange  = lipgloss.Color("#FF7D00")
	Purple  = lipgloss.Color("#7C3AED")
	Cyan    = lipgloss.Color("#06B6D4")
	Dim     = lipgloss.Color("#6B7280")
	White   = lipgloss.Color("#F9FAFB")

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
		Foreground(Dim).
		Italic(true)

	Bold    = lipgloss.NewStyle().Bold(true).Foreground(White)
	DimText = lipgloss.NewStyle().Foreground(Dim)
	Code    = lipgloss.NewStyle().Foreground(Cyan)

	Healthy   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Unhealthy = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warning   = lipgloss.NewStyle().Foreground(Yellow)

	Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Crumb = lipgloss.NewStyle().Foreground(Dim)

	Badge = lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true)

	// Step indicators
	StepPending = DimText
	StepRunning = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	StepDone    = lipgloss.NewStyle().Foreground(Green)
	StepFailed  = lipgloss.NewStyle().Foreground(Red).Bold(true)

	// Log lines
	LogTime    = lipgloss.NewStyle().Foreground(Dim).PaddingRight(1)
	LogSuccess = lipgloss.NewStyle().Foreground(Green)
	LogError   = lipgloss.NewStyle().Foreground(Red)
	LogWarning = lipgloss.NewStyle().Foreground(Yellow)

	TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Dim).
		PaddingRight(2)

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#374151")).
		Padding(0, 2).
		MarginRight(1)

	ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Red).
		Foreground(Red).
		Padding(0, 1).
		MarginTop(1)

	SuccessBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Green).
		Foreground(Green).
		Padding(0, 1).
		MarginTop(1)

	WarningBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Yellow).
		Foreground(Yellow).
		Padding(0, 1).
		MarginTop(1)

	// Key-value
	Key = lipgloss.NewStyle().Foreground(Dim).Width(14)
	Val = lipgloss.NewStyle().Foreground(White)
)

// Tag renders a short colored label.
func Tag(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Render("[" + text + "]")
}

// Label pairs display text with a color, used for enum columns.
type Label struct {
	Text  string
	Color lipgloss.Color
}

func (l Label) String() string {
	return Tag(l.Text, l.Color)
}

var UserStatus = map[string]Label{
	"active":   {"正常", Green},
	"banned":   {"封禁", Red},
	"inactive": {"未激活", Dim},
}

var Rarity = map[string]Label{
	"common":    {"普通", Dim},
	"rare":      {"稀有", Primary},
	"epic":      {"史诗", Purple},
	"legendary": {"传说", Orange},
}

var Difficulty = map[string]Label{
	"easy":   {"简单", Green},
	"medium": {"中等", Primary},
	"hard":   {"困难", Orange},
	"hell":   {"地狱", Red},
}

var HistoryStatus = map[string]Label{
	"success":  {"成功", Green},
	"rollback": {"回滚", Orange},
	"failed":   {"失败", Red},
}

var ItemStatus = map[string]Label{
	"active":   {"启用", Green},
	"inactive": {"禁用", Dim},
}

// LabelFor looks up value in m, falling back to the raw value.
func LabelFor(m map[string]Label, value string) string {
	if l, ok := m[value]; ok {
		return l.String()
	}
	return DimText.Render(value)
}
