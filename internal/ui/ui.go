package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the bubbletea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Stores.Metrics == nil || opts.Stores.Schedules == nil || opts.Stores.Runs == nil {
		return fmt.Errorf("ui requires metrics, schedules and runs stores")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}

	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
