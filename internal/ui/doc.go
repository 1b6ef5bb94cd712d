// Package ui renders the cadence terminal dashboard with bubbletea.
//
// The model never fetches on its own. Pollers in package app keep a
// state.Store per resource current; the model copies their snapshots once a
// second and renders one of three tabs:
//
//   - Dashboard: health, schedule and run counts, latency and error taxonomy
//   - Schedules: one row per schedule with its status badge and the actions
//     the lifecycle allows from that status
//   - Runs: run history, with a spinner on running rows
//
// Each view tells "still loading", "failed to load" and "nothing there"
// apart, and keeps showing the last good data next to a newer fault.
//
// Pause, resume and delete are offered only where the lifecycle allows them.
// After an action the notice line shows what the service answered, or the
// normalized error message; the table itself changes only when the next
// poll brings the new status.
//
// Key bindings:
//
//	tab / shift+tab  cycle views      1 2 3  jump to a view
//	j / k            move selection   p r d  pause, resume, delete (y confirms)
//	T                cycle theme      ?      full help    q  quit
package ui
