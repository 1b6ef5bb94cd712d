package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cadence/internal/lifecycle"
	"github.com/five82/cadence/internal/scheduler"
	"github.com/five82/cadence/internal/state"
)

// View renders header, tabs, the active view, the notice line and the
// command bar.
func (m Model) View() string {
	var body string
	switch m.tab {
	case TabSchedules:
		body = m.renderSchedules()
	case TabRuns:
		body = m.renderRuns()
	default:
		body = m.renderDashboard()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		body,
		m.renderNotice(),
		m.renderCommandBar(),
	)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{styles.Logo.Render("cadence")}

	unreachable := m.health.IsOffline() || (!m.health.HasData && m.health.LastError != nil)
	switch {
	case unreachable:
		parts = append(parts, styles.DangerText.Render("● "+classifyConnectionError(m.health.LastError)))
	case !m.health.HasData:
		parts = append(parts, styles.WarningText.Render("Connecting…"))
	case m.health.Data.Healthy():
		parts = append(parts, styles.SuccessText.Render("● HEALTHY"))
	default:
		parts = append(parts, styles.WarningText.Render("● DEGRADED"))
	}

	if m.opts.BaseURL != "" {
		parts = append(parts, styles.MutedText.Render(truncateMiddle(m.opts.BaseURL, 40)))
	}
	if ts := formatTimestamp(m.metrics.LastUpdated); ts != "" {
		parts = append(parts, styles.MutedText.Render(ts))
	}
	if err := m.health.LastError; err != nil {
		parts = append(parts, styles.DangerText.Render("ERROR ")+styles.DangerText.Render(truncate(err.Error(), 60)))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			tabs = append(tabs, styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	snap := m.metrics
	switch snap.View() {
	case state.ViewLoading:
		return styles.MutedText.Render("Loading metrics…")
	case state.ViewFailed:
		return styles.DangerText.Render("Failed to load metrics: " + snap.LastError.Error())
	}
	mt := snap.Data
	if mt == nil {
		return styles.MutedText.Render("No metrics reported")
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("Targets", strconv.Itoa(mt.TargetsCount))
	row("Schedules", fmt.Sprintf("%d total  %s %d  %s %d  %s %d",
		mt.Schedules.Total,
		styles.Badge(lifecycle.ScheduleActive.Badge()), mt.Schedules.Active,
		styles.Badge(lifecycle.SchedulePaused.Badge()), mt.Schedules.Paused,
		styles.Badge(lifecycle.ScheduleExpired.Badge()), mt.Schedules.Expired))
	row("Runs", fmt.Sprintf("%d total  %s %d  %s %d  %s %d  %s %d",
		mt.Runs.Total,
		styles.Badge(lifecycle.RunSuccess.Badge()), mt.Runs.Success,
		styles.Badge(lifecycle.RunFailed.Badge()), mt.Runs.Failed,
		styles.Badge(lifecycle.RunPending.Badge()), mt.Runs.Pending,
		m.spinner.View()+" "+styles.Badge(lifecycle.RunRunning.Badge()), mt.Runs.Running))
	row("Success rate", fmt.Sprintf("%.1f%%", mt.Performance.SuccessRate))
	row("Latency", fmt.Sprintf("avg %s  min %s  max %s",
		formatMillis(mt.Performance.AvgLatencyMs),
		formatMillis(mt.Performance.MinLatencyMs),
		formatMillis(mt.Performance.MaxLatencyMs)))

	byType := mt.Errors.ByType()
	var errs []string
	for _, et := range lifecycle.ErrorTypes {
		if n := byType[et]; n > 0 {
			errs = append(errs, fmt.Sprintf("%s %d", styles.Badge(et.Badge()), n))
		}
	}
	if len(errs) == 0 {
		row("Errors", styles.SuccessText.Render("none"))
	} else {
		row("Errors", strings.Join(errs, "  "))
	}

	if snap.LastError != nil {
		b.WriteString(styles.WarningText.Render("showing last good data: " + snap.LastError.Error()))
		b.WriteString("\n")
	}
	return styles.Panel.Width(m.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderSchedules() string {
	return m.renderTable("schedules", m.schedules.View(), m.schedules.LastError, m.scheduleTable, pageSummary(m.schedules.Data))
}

func (m Model) renderRuns() string {
	return m.renderTable("runs", m.runs.View(), m.runs.LastError, m.runTable, pageSummary(m.runs.Data))
}

// renderTable keeps "failed to load" distinct from "nothing there".
func (m Model) renderTable(noun string, view state.View, lastErr error, t table.Model, summary string) string {
	styles := m.theme.Styles()
	switch view {
	case state.ViewLoading:
		return styles.MutedText.Render("Loading " + noun + "…")
	case state.ViewFailed:
		return styles.DangerText.Render("Failed to load " + noun + ": " + lastErr.Error())
	case state.ViewEmpty:
		return styles.MutedText.Render("No " + noun + " yet")
	}
	out := t.View() + "\n" + styles.FaintText.Render(summary)
	if lastErr != nil {
		out += "  " + styles.WarningText.Render("stale: "+truncate(lastErr.Error(), 60))
	}
	return out
}

func (m Model) renderNotice() string {
	styles := m.theme.Styles()
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return styles.DangerText.Render(m.notice)
	}
	return styles.InfoText.Render(m.notice)
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bar := m.help.View(m.keys) + "  " + styles.AccentText.Render("T") + ":" + styles.FaintText.Render(m.theme.Name)
	return styles.Footer.Width(m.width).Render(bar)
}

func scheduleColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Target", Width: 18},
		{Title: "Type", Width: 9},
		{Title: "Every", Width: 8},
		{Title: "Window", Width: 8},
		{Title: "Status", Width: 11},
		{Title: "Next run", Width: 16},
		{Title: "Runs", Width: 6},
		{Title: "Actions", Width: 20},
	}
}

func (m Model) scheduleRows() []table.Row {
	rows := make([]table.Row, 0, len(m.scheduleItems))
	for _, s := range m.scheduleItems {
		target := shortID(s.TargetID)
		if s.Target != nil && s.Target.Name != "" {
			target = s.Target.Name
		}
		window := "-"
		if s.DurationSeconds != nil {
			window = formatSeconds(*s.DurationSeconds)
		}
		status := badgeText(s.Status.Badge())
		if s.IsExecuting {
			status += " ⟳"
		}
		rows = append(rows, table.Row{
			shortID(s.ID),
			truncate(target, 18),
			string(s.ScheduleType),
			formatSeconds(s.IntervalSeconds),
			window,
			status,
			formatWhen(s.ParsedNextRunAt()),
			strconv.Itoa(s.RunCount),
			actionHints(s.Status),
		})
	}
	return rows
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Schedule", Width: 10},
		{Title: "Status", Width: 12},
		{Title: "Method", Width: 7},
		{Title: "URL", Width: 28},
		{Title: "Code", Width: 5},
		{Title: "Latency", Width: 9},
		{Title: "Error", Width: 16},
		{Title: "Scheduled", Width: 16},
	}
}

func (m Model) runRows() []table.Row {
	rows := make([]table.Row, 0, len(m.runItems))
	for _, r := range m.runItems {
		badge := r.Status.Badge()
		status := badgeText(badge)
		if badge.Animated {
			status = m.spinner.View() + " " + badge.Label
		}
		code := "-"
		if r.StatusCode != nil {
			code = strconv.Itoa(*r.StatusCode)
		}
		errLabel := "-"
		if et := r.Taxonomy(); et != "" {
			errLabel = et.Label()
		}
		rows = append(rows, table.Row{
			shortID(r.ID),
			shortID(r.ScheduleID),
			status,
			r.RequestMethod,
			truncateMiddle(r.RequestURL, 28),
			code,
			formatMillis(r.LatencyMs),
			errLabel,
			formatWhen(r.ParsedScheduledAt()),
		})
	}
	return rows
}

func actionHints(status lifecycle.ScheduleStatus) string {
	var hints []string
	for _, a := range status.Actions() {
		hints = append(hints, string(a[0])+" "+string(a))
	}
	if len(hints) == 0 {
		return "-"
	}
	return strings.Join(hints, " · ")
}

func badgeText(b lifecycle.Badge) string {
	if b.Icon == "" {
		return b.Label
	}
	return b.Icon + " " + b.Label
}

func pageSummary[T any](p *scheduler.Page[T]) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("page %d/%d · %d total", p.Page, max(p.TotalPages, 1), p.Total)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatSeconds(n int) string {
	return (time.Duration(n) * time.Second).String()
}

func formatMillis(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%.0fms", *ms)
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02 15:04:05")
}

// formatTimestamp formats the last update time with a relative indicator.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	since := time.Since(t)
	out := t.Format("15:04:05")
	switch {
	case since < time.Minute:
		out += " (now)"
	case since < time.Hour:
		out += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		out += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return out
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return "OFFLINE"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps more of the end than the start.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
