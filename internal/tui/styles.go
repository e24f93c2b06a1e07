// Package tui is the terminal presentation layer: a bubbletea shell
// routing between login, onboarding, and the dashboard, rendered with
// lipgloss. All state machines live below this package; the tui only
// renders snapshots and translates keys into operations.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

const (
	colorAccent  = lipgloss.Color("#00E676")
	colorDim     = lipgloss.Color("#6B7280")
	colorFaint   = lipgloss.Color("#374151")
	colorText    = lipgloss.Color("#F9FAFB")
	colorGreen   = lipgloss.Color("#4ADE80")
	colorRed     = lipgloss.Color("#EF4444")
	colorGray    = lipgloss.Color("#9CA3AF")
	colorBlue    = lipgloss.Color("#60A5FA")
	colorOrange  = lipgloss.Color("#F97316")
	colorBorder  = lipgloss.Color("#1C2B1F")
	colorErrText = lipgloss.Color("#FCA5A5")
)

var (
	brandStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	titleStyle    = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	faintStyle    = lipgloss.NewStyle().Foreground(colorFaint)
	errorStyle    = lipgloss.NewStyle().Foreground(colorErrText)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	aiChipStyle   = lipgloss.NewStyle().Foreground(colorBlue)
	humanStyle    = lipgloss.NewStyle().Foreground(colorOrange)

	paneBorder = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder)
)

// statusLabel maps a conversation status to its badge caption.
func statusLabel(status domain.ConversationStatus) string {
	switch status {
	case domain.StatusOpen:
		return "Open"
	case domain.StatusNeedsHuman:
		return "Urgent"
	case domain.StatusResolved:
		return "Resolved"
	default:
		return string(status)
	}
}

// statusStyle maps a conversation status to its semantic color:
// green for open, red for urgent, gray for resolved.
func statusStyle(status domain.ConversationStatus) lipgloss.Style {
	switch status {
	case domain.StatusOpen:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case domain.StatusNeedsHuman:
		return lipgloss.NewStyle().Foreground(colorRed)
	default:
		return lipgloss.NewStyle().Foreground(colorGray)
	}
}

// roleLabel maps a message role to the sender caption.
func roleLabel(role domain.MessageRole) string {
	switch role {
	case domain.RoleUser:
		return "Customer"
	case domain.RoleAssistant:
		return "AI"
	case domain.RoleHumanAgent:
		return "You"
	default:
		return string(role)
	}
}

// roleStyle maps a message role to its accent: plain for the
// customer, blue for the AI, orange for the human agent.
func roleStyle(role domain.MessageRole) lipgloss.Style {
	switch role {
	case domain.RoleAssistant:
		return aiChipStyle
	case domain.RoleHumanAgent:
		return humanStyle
	default:
		return dimStyle
	}
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
