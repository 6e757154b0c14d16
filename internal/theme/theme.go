package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
	ColorBrand   = lipgloss.AdaptiveColor{Dark: "#C92A2A", Light: "#9B2C2C"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBrand).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CardStyle frames a dashboard counter.
var CardStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

var (
	DimmedStyle  = lipgloss.NewStyle().Foreground(ColorGray)
	OverdueStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	DueDateStyle = lipgloss.NewStyle().Foreground(ColorGray)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	SuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorWhite)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
)

// StatusColor returns the accent color of a mandate status.
func StatusColor(status model.Status) lipgloss.TerminalColor {
	switch status {
	case model.StatusOnTrack:
		return ColorGreen
	case model.StatusInProgress:
		return ColorBlue
	case model.StatusPending:
		return ColorYellow
	case model.StatusStagnant:
		return ColorRed
	case model.StatusPendingClosing:
		return ColorMagenta
	case model.StatusClosed:
		return ColorGray
	default:
		return ColorGray
	}
}

// StatusStyle returns a color-coded badge style for a mandate status.
func StatusStyle(status model.Status) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(StatusColor(status))
}

// PriorityStyle returns a color-coded style for a mandate priority.
func PriorityStyle(priority model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.PriorityUrgent:
		return base.Foreground(ColorRed)
	case model.PriorityHigh:
		return base.Foreground(ColorOrange)
	case model.PriorityMedium:
		return base.Foreground(ColorYellow)
	case model.PriorityLow:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// RoleStyle returns the badge style for a user role.
func RoleStyle(role model.Role) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if role == model.RoleSecretary {
		return base.Foreground(ColorBrand)
	}
	return base.Foreground(ColorBlue)
}
