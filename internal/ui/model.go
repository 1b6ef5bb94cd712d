package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cadence/internal/lifecycle"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/prefs"
	"github.com/five82/cadence/internal/scheduler"
	"github.com/five82/cadence/internal/state"
)

// ScheduleActions performs lifecycle transitions against the remote service.
type ScheduleActions interface {
	Apply(ctx context.Context, id string, action lifecycle.Action) (*scheduler.Schedule, error)
}

// Stores are the projections the pollers keep current.
type Stores struct {
	Health    *state.Store[*scheduler.Health]
	Metrics   *state.Store[*scheduler.SystemMetrics]
	Schedules *state.Store[*scheduler.Page[scheduler.Schedule]]
	Runs      *state.Store[*scheduler.Page[scheduler.Run]]
}

// Options configure the UI runtime.
type Options struct {
	Context   context.Context
	Actions   ScheduleActions
	Stores    Stores
	BaseURL   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string // empty disables saving theme changes
	Logger    *logging.Logger
}

// Tab is one of the dashboard views.
type Tab int

const (
	TabDashboard Tab = iota
	TabSchedules
	TabRuns
)

var tabNames = []string{"Dashboard", "Schedules", "Runs"}

func (t Tab) String() string { return tabNames[t] }

const (
	defaultUITick = time.Second
	defaultWidth  = 120
	defaultHeight = 30
	chromeHeight  = 7
)

type tickMsg time.Time

type actionDoneMsg struct {
	id       string
	action   lifecycle.Action
	schedule *scheduler.Schedule
	err      error
}

type pendingAction struct {
	id     string
	action lifecycle.Action
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	opts  Options
	ctx   context.Context
	theme Theme
	keys  keyMap
	help  help.Model

	spinner       spinner.Model
	scheduleTable table.Model
	runTable      table.Model

	tab    Tab
	width  int
	height int

	health    state.Snapshot[*scheduler.Health]
	metrics   state.Snapshot[*scheduler.SystemMetrics]
	schedules state.Snapshot[*scheduler.Page[scheduler.Schedule]]
	runs      state.Snapshot[*scheduler.Page[scheduler.Run]]

	scheduleItems []scheduler.Schedule
	runItems      []scheduler.Run

	confirm   *pendingAction
	inFlight  bool
	notice    string
	noticeErr bool
}

// New builds the model and takes a first look at the stores.
func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.PollTick <= 0 {
		opts.PollTick = defaultUITick
	}
	m := Model{
		opts:    opts,
		ctx:     opts.Context,
		theme:   GetTheme(opts.Prefs.Theme),
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		scheduleTable: table.New(
			table.WithColumns(scheduleColumns()),
			table.WithFocused(true),
		),
		runTable: table.New(
			table.WithColumns(runColumns()),
			table.WithFocused(true),
		),
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.applyTheme()
	m.resize()
	m.sync()
	return m
}

// Init starts the refresh tick and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spinner.Tick)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.PollTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles input, ticks and action results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		m.sync()
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.tab == TabRuns && m.hasRunning() {
			m.runTable.SetRows(m.runRows())
		}
		return m, cmd

	case actionDoneMsg:
		m.inFlight = false
		m.handleActionResult(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		pending := *m.confirm
		m.confirm = nil
		if key.Matches(msg, m.keys.Confirm) {
			return m, m.startAction(pending.id, pending.action)
		}
		m.setNotice("delete cancelled", false)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.Dashboard):
		m.tab = TabDashboard
		return m, nil
	case key.Matches(msg, m.keys.Schedules):
		m.tab = TabSchedules
		return m, nil
	case key.Matches(msg, m.keys.Runs):
		m.tab = TabRuns
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		return m, m.cycleTheme()
	case key.Matches(msg, m.keys.Pause):
		return m, m.requestAction(lifecycle.ActionPause)
	case key.Matches(msg, m.keys.Resume):
		return m, m.requestAction(lifecycle.ActionResume)
	case key.Matches(msg, m.keys.Delete):
		return m, m.requestAction(lifecycle.ActionDelete)
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabSchedules:
		m.scheduleTable, cmd = m.scheduleTable.Update(msg)
	case TabRuns:
		m.runTable, cmd = m.runTable.Update(msg)
	}
	return m, cmd
}

// requestAction offers an action only where the lifecycle allows it. The
// remote service stays the authority; nothing changes locally.
func (m *Model) requestAction(action lifecycle.Action) tea.Cmd {
	if m.tab != TabSchedules {
		return nil
	}
	sched, ok := m.selectedSchedule()
	if !ok {
		return nil
	}
	if m.inFlight {
		m.setNotice("waiting for the previous action", false)
		return nil
	}
	if !sched.Status.Allows(action) {
		m.setNotice(fmt.Sprintf("%s is not available for a %s schedule", action, sched.Status), true)
		return nil
	}
	if action == lifecycle.ActionDelete {
		m.confirm = &pendingAction{id: sched.ID, action: action}
		m.setNotice(fmt.Sprintf("delete schedule %s? press y to confirm", shortID(sched.ID)), false)
		return nil
	}
	return m.startAction(sched.ID, action)
}

func (m *Model) startAction(id string, action lifecycle.Action) tea.Cmd {
	if m.opts.Actions == nil {
		m.setNotice("actions are unavailable", true)
		return nil
	}
	m.inFlight = true
	m.setNotice(fmt.Sprintf("%s %s…", action, shortID(id)), false)
	actions, ctx := m.opts.Actions, m.ctx
	return func() tea.Msg {
		sched, err := actions.Apply(ctx, id, action)
		return actionDoneMsg{id: id, action: action, schedule: sched, err: err}
	}
}

// handleActionResult shows the remote's answer or the normalized error.
func (m *Model) handleActionResult(msg actionDoneMsg) {
	if msg.err != nil {
		m.setNotice(fmt.Sprintf("%s %s failed: %v", msg.action, shortID(msg.id), msg.err), true)
		return
	}
	if msg.action == lifecycle.ActionDelete || msg.schedule == nil {
		m.setNotice(fmt.Sprintf("schedule %s deleted", shortID(msg.id)), false)
		return
	}
	m.setNotice(fmt.Sprintf("schedule %s is now %s", shortID(msg.id), msg.schedule.Status), false)
}

func (m *Model) cycleTheme() tea.Cmd {
	m.opts.Prefs.Theme = NextTheme(m.theme.Name)
	m.theme = GetTheme(m.opts.Prefs.Theme)
	m.applyTheme()
	if m.opts.PrefsPath == "" {
		return nil
	}
	path, p, logger := m.opts.PrefsPath, m.opts.Prefs, m.opts.Logger
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			logger.Warn("save preferences failed", map[string]any{"error": err, "path": path})
		}
		return nil
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) selectedSchedule() (scheduler.Schedule, bool) {
	idx := m.scheduleTable.Cursor()
	if idx < 0 || idx >= len(m.scheduleItems) {
		return scheduler.Schedule{}, false
	}
	return m.scheduleItems[idx], true
}

func (m Model) hasRunning() bool {
	for _, r := range m.runItems {
		if r.Status.Badge().Animated {
			return true
		}
	}
	return false
}

// sync copies the latest snapshots out of the stores.
func (m *Model) sync() {
	m.health = snapshot(m.opts.Stores.Health)
	m.metrics = snapshot(m.opts.Stores.Metrics)
	m.schedules = snapshot(m.opts.Stores.Schedules)
	m.runs = snapshot(m.opts.Stores.Runs)

	m.scheduleItems = nil
	if m.schedules.HasData && m.schedules.Data != nil {
		m.scheduleItems = m.schedules.Data.Items
	}
	m.runItems = nil
	if m.runs.HasData && m.runs.Data != nil {
		m.runItems = m.runs.Data.Items
	}
	setRows(&m.scheduleTable, m.scheduleRows())
	setRows(&m.runTable, m.runRows())
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.scheduleTable.SetHeight(h)
	m.runTable.SetHeight(h)
	m.scheduleTable.SetWidth(m.width)
	m.runTable.SetWidth(m.width)
	m.help.Width = m.width
}

func (m *Model) applyTheme() {
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(lipgloss.Color(m.theme.Muted)).Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg))
	m.scheduleTable.SetStyles(s)
	m.runTable.SetStyles(s)
	m.spinner.Style = m.theme.Styles().InfoText
}

func setRows(t *table.Model, rows []table.Row) {
	t.SetRows(rows)
	if c := t.Cursor(); c >= len(rows) && len(rows) > 0 {
		t.SetCursor(len(rows) - 1)
	}
}

func snapshot[T any](s *state.Store[T]) state.Snapshot[T] {
	if s == nil {
		return state.Snapshot[T]{}
	}
	return s.Snapshot()
}
