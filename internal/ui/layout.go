package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutDetailWidth is the minimum width to show the detail pane beside
	// the entity table.
	LayoutDetailWidth = 120
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines read from the file.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// LogRefreshInterval is the minimum time between log file reads.
	LogRefreshInterval = 2 * time.Second

	// ActionTimeout bounds one device write started from the dashboard.
	ActionTimeout = 15 * time.Second

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)

// renderBox draws content inside a rounded border with title set into the
// top edge. The box is exactly width by height cells.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	if width < 4 || height < 2 {
		return ""
	}
	borderColor := m.theme.Border
	titleColor := m.theme.Muted
	bgColor := m.theme.Surface
	if focused {
		borderColor = m.theme.BorderFocus
		titleColor = m.theme.Accent
		bgColor = m.theme.FocusBg
	}
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor)).Background(lipgloss.Color(bgColor))
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(titleColor)).Background(lipgloss.Color(bgColor)).Bold(true)
	bg := NewBgStyle(bgColor)
	inner := width - 2

	title = truncate(title, inner-4)
	top := border.Render("╭─")
	used := 1
	if title != "" {
		top += titleStyle.Render(" " + title + " ")
		used += lipgloss.Width(title) + 2
	}
	top += border.Render(strings.Repeat("─", max(inner-used, 0)) + "╮")

	lines := strings.Split(content, "\n")
	body := make([]string, 0, height-2)
	for i := 0; i < height-2; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		if lipgloss.Width(line) > inner {
			line = lipgloss.NewStyle().MaxWidth(inner).Render(line)
		}
		body = append(body, border.Render("│")+bg.FillLine(line, inner)+border.Render("│"))
	}
	bottom := border.Render("╰" + strings.Repeat("─", inner) + "╯")

	return top + "\n" + strings.Join(body, "\n") + "\n" + bottom
}
