package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// renderHeader renders the status bar for the selected device.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	dev, ok := m.currentDevice()
	if !ok {
		return styles.Header.Width(m.width).Render(
			bg.Render("zowiebox", styles.Logo) + bg.Spaces(2) +
				bg.Render("No devices installed", styles.WarningText.Bold(true)),
		)
	}

	view := m.deviceView()
	if !view.HasData() {
		return m.renderConnectingHeader(dev, view, styles, bg)
	}

	content := m.buildStatusContent(dev, view, styles, bg)
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(content)
}

// renderConnectingHeader shows the state before the first good refresh.
func (m Model) renderConnectingHeader(dev Device, view state.View, styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)
	title := truncate(dev.Title, 30)

	if view.LastError != nil {
		last := "soon"
		if !view.LastUpdated.IsZero() {
			last = view.LastUpdated.Format("15:04:05")
		}
		parts := []string{
			bg.Render("zowiebox", styles.Logo),
			bg.Render(title, styles.Text),
			bg.Render(classifyConnectionError(view.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		}
		if m.logPath != "" {
			parts = append(parts,
				bg.Render("logs", styles.FaintText)+bg.Space()+
					bg.Render(truncateMiddle(m.logPath, 50), styles.MutedText))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("zowiebox", styles.Logo) + sep +
			bg.Render(title, styles.Text) + sep +
			bg.Render("Connecting...", styles.WarningText.Bold(true)),
	)
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(dev Device, view state.View, styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth

	titleLimit := 30
	if compact {
		titleLimit = 16
	}

	var parts []string
	parts = append(parts, bg.Render("zowiebox", styles.Logo))
	parts = append(parts, bg.Render(truncate(dev.Title, titleLimit), styles.Text))

	status := "online"
	if !view.Available() {
		status = "offline"
	}
	parts = append(parts, styles.StatusStyle(status).Render(strings.ToUpper(status)))

	mode := view.Mode()
	parts = append(parts, styles.StatusStyle(string(mode)).Render(strings.ToUpper(string(mode))))

	if m.broker != nil && m.brokerSeen {
		if m.brokerErr != nil {
			parts = append(parts, styles.StatusStyle("offline").Render("MQTT DOWN"))
		} else {
			parts = append(parts, styles.StatusStyle("online").Render("MQTT"))
		}
	}

	if dev.Registry != nil {
		parts = append(parts,
			bg.Render("Entities:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", dev.Registry.Len()), styles.Text),
		)
	}

	if ts := formatTimestamp(view.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if view.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		label := classifyConnectionError(view.LastError)
		if view.ConsecutiveFailures > 1 {
			label = fmt.Sprintf("%s ×%d", label, view.ConsecutiveFailures)
		}
		parts = append(parts,
			bg.Render(label, styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(view.LastError.Error(), maxErr), styles.DangerText),
		)
	}

	return bg.Join(parts, "  ")
}

// formatTimestamp formats the last update time with a relative indicator.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	since := now.Sub(t)
	text := t.Format("15:04:05")

	switch {
	case since < time.Minute:
		text += " (now)"
	case since < time.Hour:
		text += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		text += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return text
}

// classifyConnectionError returns a short description of a refresh error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *zowie.APIError
	if errors.As(err, &apiErr) {
		return "API ERROR"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case errors.Is(err, zowie.ErrCannotConnect):
		return "UNREACHABLE"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"q", "Entities"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"Space", "Toggle"},
			{"enter", "Next option"},
			{"+/-", "Adjust"},
			{"f", choose(m.showAll, "All", "Available")},
			{"r", "Refresh"},
			{"l", "Logs"},
		}
		if len(m.devices) > 1 {
			commands = append(commands, cmd{"[/]", "Device"})
		}
		commands = append(commands, cmd{"?", "More"})
	}

	colon := bg.fill.Render(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewLogs && m.logState.searchQuery != "" {
		segments = append(segments, bg.Render("/"+truncate(m.logState.searchQuery, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
