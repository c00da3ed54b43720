package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/zowiebox/internal/entity"
	"github.com/five82/zowiebox/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewEntities View = iota
	ViewLogs
)

// Device is one installed entry as the dashboard sees it.
type Device struct {
	Title    string
	Source   entity.ViewSource
	Registry *entity.Registry
	// Refresh requests an immediate poll. Nil disables the refresh key.
	Refresh func()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Devices   []Device
	PollTick  time.Duration
	ThemeName string
	LogPath   string
	// Broker reports the MQTT connection in the header. Nil hides it.
	Broker HealthChecker
}

// HealthChecker reports whether a backing connection is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	devices  []Device
	pollTick time.Duration
	logPath  string
	broker   HealthChecker
	keys     keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	views       []state.View
	lastUpdated time.Time
	brokerErr   error
	brokerSeen  bool

	// Entity state
	selectedDevice int
	selectedRow    int
	showAll        bool
	pending        string
	notice         notice

	// Log state
	logViewport viewport.Model
	logState    logState

	// Help overlay
	showHelp bool
}

// notice is the outcome of the last dashboard action.
type notice struct {
	text  string
	isErr bool
	at    time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	return Model{
		ctx:         ctx,
		devices:     opts.Devices,
		pollTick:    pollTick,
		logPath:     opts.LogPath,
		broker:      opts.Broker,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		currentView: ViewEntities,
		views:       make([]state.View, len(opts.Devices)),
		logState:    newLogState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.devices),
		brokerHealthCmd(m.ctx, m.broker),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		if len(msg.views) == len(m.views) {
			m.views = msg.views
		}
		m.lastUpdated = msg.at
		m.clampSelection()
		return m, nil

	case brokerHealthMsg:
		m.brokerErr = msg.err
		m.brokerSeen = true
		return m, nil

	case actionResultMsg:
		m.pending = ""
		if msg.err != nil {
			m.notice = notice{text: msg.desc + ": " + msg.err.Error(), isErr: true, at: time.Now()}
		} else {
			m.notice = notice{text: msg.desc, at: time.Now()}
		}
		return m, fetchSnapshotCmd(m.devices)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case logErrorMsg:
		m.logState.err = msg.err
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Search input swallows everything but ctrl+c
	if m.currentView == ViewLogs && m.logState.searchActive && msg.String() != "ctrl+c" {
		return m.handleLogSearchInput(msg)
	}

	switch msg.String() {
	case "ctrl+c", "e":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case "tab":
		if m.currentView == ViewEntities {
			cmd := m.openLogs()
			return m, cmd
		}
		m.currentView = ViewEntities
		return m, nil

	case "q":
		m.currentView = ViewEntities
		return m, nil

	case "l":
		cmd := m.openLogs()
		return m, cmd

	case "]":
		m.selectDevice(1)
		return m, nil

	case "[":
		m.selectDevice(-1)
		return m, nil

	case "r":
		if dev, ok := m.currentDevice(); ok && dev.Refresh != nil {
			dev.Refresh()
			m.notice = notice{text: "refresh requested", at: time.Now()}
		}
		return m, nil

	case "esc":
		if m.currentView == ViewLogs && m.logState.searchRegex != nil {
			m.clearLogSearch()
			m.updateLogViewport()
			return m, nil
		}
		m.currentView = ViewEntities
		return m, nil
	}

	switch m.currentView {
	case ViewEntities:
		return m.handleEntitiesKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m *Model) openLogs() tea.Cmd {
	m.currentView = ViewLogs
	m.logState.lastRefresh = time.Time{}
	return m.refreshLogs()
}

// selectDevice moves the device selection by delta, wrapping around.
func (m *Model) selectDevice(delta int) {
	n := len(m.devices)
	if n == 0 {
		return
	}
	m.selectedDevice = ((m.selectedDevice+delta)%n + n) % n
	m.selectedRow = 0
}

func (m Model) currentDevice() (Device, bool) {
	if m.selectedDevice < 0 || m.selectedDevice >= len(m.devices) {
		return Device{}, false
	}
	return m.devices[m.selectedDevice], true
}

func (m Model) deviceView() state.View {
	if m.selectedDevice < 0 || m.selectedDevice >= len(m.views) {
		return state.View{}
	}
	return m.views[m.selectedDevice]
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{fetchSnapshotCmd(m.devices)}
	if m.broker != nil {
		cmds = append(cmds, brokerHealthCmd(m.ctx, m.broker))
	}

	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderEntities())
	}
	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	views []state.View
	at    time.Time
}

type brokerHealthMsg struct {
	err error
}

type actionResultMsg struct {
	desc string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshotCmd reads every device view and registers new entities.
func fetchSnapshotCmd(devices []Device) tea.Cmd {
	return func() tea.Msg {
		views := make([]state.View, len(devices))
		for i, dev := range devices {
			if dev.Source == nil {
				continue
			}
			views[i] = dev.Source.Snapshot()
			if dev.Registry != nil {
				dev.Registry.Sync(views[i])
			}
		}
		return snapshotMsg{views: views, at: time.Now()}
	}
}

// brokerHealthCmd checks broker. It returns nil when there is no broker.
func brokerHealthCmd(ctx context.Context, broker HealthChecker) tea.Cmd {
	if broker == nil {
		return nil
	}
	return func() tea.Msg {
		return brokerHealthMsg{err: broker.HealthCheck(ctx)}
	}
}

// Run starts the Bubble Tea program and returns when the user quits or ctx
// is done.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
