package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/bod-watchlist/internal/theme"
)

// Layout manages the terminal frame: header, navigation tabs, content and
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// Header, tabs and status bar are one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the active view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.TabsHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with the title on the left and the
// session summary on the right.
func (l Layout) RenderHeader(title string, right string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	rightRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(right)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		rightRendered,
	)
}

// RenderTabs renders the navigation line, highlighting the active tab.
// A negative active index highlights nothing.
func (l Layout) RenderTabs(tabs []string, active int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).Underline(true).Foreground(theme.ColorWhite).Padding(0, 1)
	idleStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Padding(0, 1)

	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if i == active {
			parts[i] = activeStyle.Render(t)
		} else {
			parts[i] = idleStyle.Render(t)
		}
	}
	line := strings.Join(parts, " ")
	return lipgloss.NewStyle().MaxWidth(l.Width).Render(line)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, tabs, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	tabs string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabs,
		content,
		statusBar,
	)
}
