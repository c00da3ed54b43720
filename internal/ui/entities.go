package ui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
)

// visibleEntities lists the selected device's entities. Unavailable ones are
// hidden while the device is reachable unless showAll is set.
func (m Model) visibleEntities() []entity.Entity {
	dev, ok := m.currentDevice()
	if !ok || dev.Registry == nil {
		return nil
	}
	all := dev.Registry.All()
	view := m.deviceView()
	if m.showAll || !view.Available() {
		return all
	}
	out := make([]entity.Entity, 0, len(all))
	for _, e := range all {
		if e.Available(view) {
			out = append(out, e)
		}
	}
	return out
}

func (m Model) selectedEntity() (entity.Entity, bool) {
	list := m.visibleEntities()
	if m.selectedRow < 0 || m.selectedRow >= len(list) {
		return nil, false
	}
	return list[m.selectedRow], true
}

func (m *Model) clampSelection() {
	n := len(m.visibleEntities())
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// handleEntitiesKey processes keyboard input for the entities view.
func (m Model) handleEntitiesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "f" {
		m.showAll = !m.showAll
		m.clampSelection()
		return m, nil
	}

	count := len(m.visibleEntities())
	if count == 0 {
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case "k", "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "g", "home":
		m.selectedRow = 0
	case "G", "end":
		m.selectedRow = count - 1
	case " ":
		return m.startAction(m.toggleAction)
	case "enter":
		return m.startAction(m.nextOptionAction)
	case "+", "=":
		return m.startAction(m.stepAction(1))
	case "-":
		return m.startAction(m.stepAction(-1))
	}
	return m, nil
}

// entityAction resolves the write for the selected entity. It returns the
// description shown while and after the write runs.
type entityAction func(e entity.Entity, v state.View) (string, func(ctx context.Context) error, error)

// startAction runs act against the selected entity in the background. Only
// one write runs at a time.
func (m Model) startAction(act entityAction) (tea.Model, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	e, ok := m.selectedEntity()
	if !ok {
		return m, nil
	}
	view := m.deviceView()
	desc, run, err := act(e, view)
	if err != nil {
		m.notice = notice{text: e.Label(view) + ": " + err.Error(), isErr: true}
		return m, nil
	}
	m.pending = desc
	ctx := m.ctx
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return actionResultMsg{desc: desc, err: run(ctx)}
	}
}

func (m Model) toggleAction(e entity.Entity, v state.View) (string, func(ctx context.Context) error, error) {
	label := e.Label(v)
	switch ent := e.(type) {
	case entity.Light:
		on, _ := ent.IsOn(v)
		if on {
			return label + " off", ent.TurnOff, nil
		}
		return label + " on", func(ctx context.Context) error {
			return ent.TurnOn(ctx, entity.LightCommand{})
		}, nil
	case entity.Switch:
		on, _ := ent.IsOn(v)
		if on {
			return label + " off", ent.TurnOff, nil
		}
		return label + " on", ent.TurnOn, nil
	}
	return "", nil, fmt.Errorf("not a switch")
}

func (m Model) nextOptionAction(e entity.Entity, v state.View) (string, func(ctx context.Context) error, error) {
	sel, ok := e.(entity.Select)
	if !ok {
		return "", nil, fmt.Errorf("not a select")
	}
	option, err := nextOption(sel.Options(v), optionOrEmpty(sel.Current(v)))
	if err != nil {
		return "", nil, err
	}
	return sel.Label(v) + " → " + option, func(ctx context.Context) error {
		return sel.SelectOption(ctx, option)
	}, nil
}

func (m Model) stepAction(dir float64) entityAction {
	return func(e entity.Entity, v state.View) (string, func(ctx context.Context) error, error) {
		num, ok := e.(entity.Number)
		if !ok {
			return "", nil, fmt.Errorf("not a number")
		}
		current, ok := num.Value(v)
		if !ok {
			return "", nil, fmt.Errorf("value unknown")
		}
		info := num.Info()
		target := stepValue(current, dir, info.Min, info.Max, info.Step)
		if target == current {
			return "", nil, fmt.Errorf("at limit")
		}
		return fmt.Sprintf("%s → %s", num.Label(v), formatNumber(target, info.Unit)), func(ctx context.Context) error {
			return num.SetValue(ctx, target)
		}, nil
	}
}

func optionOrEmpty(s string, ok bool) string {
	if !ok {
		return ""
	}
	return s
}

// nextOption returns the option after current, wrapping. An unknown current
// selects the first option.
func nextOption(options []string, current string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options")
	}
	for i, o := range options {
		if o == current {
			return options[(i+1)%len(options)], nil
		}
	}
	return options[0], nil
}

// stepValue moves current by one step in dir and clamps to the range.
func stepValue(current, dir, lo, hi, step float64) float64 {
	if step <= 0 {
		step = 1
	}
	next := current + dir*step
	if hi > lo {
		next = math.Min(math.Max(next, lo), hi)
	}
	return next
}

func formatNumber(v float64, unit string) string {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if unit != "" {
		text += " " + unit
	}
	return text
}

// renderEntities renders the entity table, the detail pane when the
// terminal is wide enough, and the action status line.
func (m Model) renderEntities() string {
	contentHeight := m.height - 3
	if contentHeight < 3 {
		return ""
	}

	title := "Entities"
	if dev, ok := m.currentDevice(); ok {
		title = dev.Title
		if len(m.devices) > 1 {
			title = fmt.Sprintf("%s (%d/%d)", dev.Title, m.selectedDevice+1, len(m.devices))
		}
	}
	if m.showAll {
		title += " · all"
	}

	var body string
	if m.width >= LayoutDetailWidth {
		tableWidth := m.width * 3 / 5
		detailWidth := m.width - tableWidth
		table := m.renderBox(title, m.renderEntityTable(tableWidth-2, contentHeight-2), tableWidth, contentHeight, true)
		detail := m.renderBox("Detail", m.renderEntityDetail(detailWidth-2), detailWidth, contentHeight, false)
		body = lipgloss.JoinHorizontal(lipgloss.Top, table, detail)
	} else {
		body = m.renderBox(title, m.renderEntityTable(m.width-2, contentHeight-2), m.width, contentHeight, true)
	}
	return body + "\n" + m.renderEntityStatus()
}

const (
	colPlatform = 8
	colStatus   = 9
)

// renderEntityTable renders the visible entities, scrolled so the selected
// row stays in view.
func (m Model) renderEntityTable(width, height int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	list := m.visibleEntities()
	if len(list) == 0 {
		msg := "No entities"
		if !m.deviceView().HasData() {
			msg = "Waiting for device data..."
		}
		return bg.FillLine(bg.Render(msg, styles.MutedText), width)
	}

	stateWidth := max((width-colPlatform-colStatus)/3, 8)
	nameWidth := max(width-colPlatform-colStatus-stateWidth-3, 8)

	header := padRight("TYPE", colPlatform) + " " + padRight("NAME", nameWidth) + " " +
		padRight("STATE", stateWidth) + " " + "STATUS"
	lines := []string{bg.FillLine(bg.Render(header, styles.MutedText.Bold(true)), width)}

	rows := max(height-1, 1)
	offset := 0
	if m.selectedRow >= rows {
		offset = m.selectedRow - rows + 1
	}

	view := m.deviceView()
	for i := offset; i < len(list) && i < offset+rows; i++ {
		e := list[i]
		text, ok := e.State(view)
		if !ok {
			text = "unknown"
		}
		status := "offline"
		if e.Available(view) {
			status = "online"
		}
		row := padRight(string(e.Info().Platform), colPlatform) + " " +
			padRight(truncate(e.Label(view), nameWidth), nameWidth) + " " +
			padRight(truncate(text, stateWidth), stateWidth) + " "

		if i == m.selectedRow {
			sel := m.theme.Styles().Selected
			lines = append(lines, sel.Width(width).Render(row+status))
			continue
		}
		statusStyle := styles.SuccessText
		if status == "offline" {
			statusStyle = styles.FaintText
		}
		lines = append(lines, bg.FillLine(bg.Render(row, styles.Text)+bg.Render(status, statusStyle), width))
	}
	return strings.Join(lines, "\n")
}

// renderEntityDetail renders identity, range and option details of the
// selected entity.
func (m Model) renderEntityDetail(width int) string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	e, ok := m.selectedEntity()
	if !ok {
		return bg.FillLine(bg.Render("Select an entity", styles.MutedText), width)
	}
	view := m.deviceView()
	info := e.Info()

	var lines []string
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, bg.Render(padRight(label, 10), styles.MutedText)+
			bg.Render(truncate(value, max(width-10, 4)), styles.Text))
	}

	lines = append(lines, bg.Render(e.Label(view), styles.AccentText.Bold(true)), "")
	field("Object", info.ObjectID)
	field("Unique", info.UniqueID)
	field("Platform", titleCase(string(info.Platform)))
	field("Kind", string(info.Kind))
	if info.ModeAware {
		field("Decoding", string(info.DecodingKind))
	}
	field("Icon", info.Icon)
	if text, ok := e.State(view); ok {
		field("State", text)
	}

	switch ent := e.(type) {
	case entity.Number:
		field("Range", fmt.Sprintf("%s to %s step %s", formatNumber(info.Min, ""), formatNumber(info.Max, ""), formatNumber(info.Step, "")))
		field("Unit", info.Unit)
	case entity.Select:
		current, _ := ent.Current(view)
		lines = append(lines, "", bg.Render("Options", styles.MutedText))
		for _, o := range ent.Options(view) {
			marker := "  "
			style := styles.Text
			if o == current {
				marker = "● "
				style = styles.SuccessText
			}
			lines = append(lines, bg.Render(marker+truncate(o, width-2), style))
		}
	case entity.Sensor:
		attrs := ent.Attributes(view)
		if len(attrs) > 0 {
			lines = append(lines, "", bg.Render("Attributes", styles.MutedText))
			keys := make([]string, 0, len(attrs))
			for k := range attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				field(k, fmt.Sprint(attrs[k]))
			}
		}
	case entity.Camera:
		field("Recording", choose(ent.IsRecording(view), "yes", "no"))
		field("Source", ent.StreamSource(view))
	case entity.Light:
		if b, ok := ent.Brightness(view); ok {
			field("Bright", strconv.Itoa(b)+"%")
		}
		if ct, ok := ent.ColorTemp(view); ok {
			field("Temp", strconv.Itoa(ct)+" mired")
		}
	}

	for i, line := range lines {
		lines[i] = bg.FillLine(line, width)
	}
	return strings.Join(lines, "\n")
}

// renderEntityStatus renders the line below the table: the pending write,
// the last action outcome, or a hint.
func (m Model) renderEntityStatus() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles().WithBackground(m.theme.Background)

	var line string
	switch {
	case m.pending != "":
		line = bg.Render("… "+m.pending, styles.WarningText)
	case m.notice.text != "" && m.notice.isErr:
		line = bg.Render("✗ "+m.notice.text, styles.DangerText)
	case m.notice.text != "":
		line = bg.Render("✓ "+m.notice.text, styles.SuccessText)
	default:
		line = bg.Render(fmt.Sprintf("%d entities", len(m.visibleEntities())), styles.FaintText)
	}
	return bg.FillLine(line, m.width)
}
