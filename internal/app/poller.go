package app

import (
	"context"
	"sync"
	"time"

	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/scheduler"
	"github.com/five82/cadence/internal/state"
	"github.com/five82/cadence/internal/ui"
)

const (
	// MetricsInterval refreshes the dashboard summary.
	MetricsInterval = 5 * time.Second
	// RunsInterval refreshes the run history.
	RunsInterval = 3 * time.Second

	defaultPollInterval = 5 * time.Second
)

// FetchFunc performs one idempotent read.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// StartPoller fetches once immediately, then on every tick, writing each
// result to store. It returns immediately. The returned stop cancels the
// timer and any in-flight fetch and waits for the goroutine to exit;
// cancelling ctx has the same effect. A failed fetch is recorded and the
// next attempt waits for the next tick.
func StartPoller[T any](ctx context.Context, store *state.Store[T], interval time.Duration, fetch FetchFunc[T], logger *logging.Logger) (stop func()) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			refresh(ctx, store, fetch, logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func refresh[T any](ctx context.Context, store *state.Store[T], fetch FetchFunc[T], logger *logging.Logger) {
	data, err := fetch(ctx)
	if ctx.Err() != nil {
		// torn down mid-fetch; nobody is looking at this store any more
		return
	}
	if err != nil {
		var zero T
		store.Update(zero, err)
		logger.Warn("poll failed", map[string]any{"error": err})
		return
	}
	store.Update(data, nil)
}

// NewStores allocates one empty store per polled resource.
func NewStores() ui.Stores {
	return ui.Stores{
		Health:    &state.Store[*scheduler.Health]{},
		Metrics:   &state.Store[*scheduler.SystemMetrics]{},
		Schedules: &state.Store[*scheduler.Page[scheduler.Schedule]]{},
		Runs:      &state.Store[*scheduler.Page[scheduler.Run]]{},
	}
}

// StartPollers keeps every store current with its own timer. The returned
// stop halts all of them and waits.
func StartPollers(ctx context.Context, client *scheduler.Client, stores ui.Stores, every Intervals, pageSize int, logger *logging.Logger) (stop func()) {
	first := scheduler.ListOptions{Page: 1, PageSize: pageSize}
	stops := []func(){
		StartPoller(ctx, stores.Health, every.Health, client.Health, logger),
		StartPoller(ctx, stores.Metrics, every.Metrics, client.Metrics, logger),
		StartPoller(ctx, stores.Schedules, every.Schedules, func(ctx context.Context) (*scheduler.Page[scheduler.Schedule], error) {
			return client.Schedules().List(ctx, scheduler.ScheduleFilter{ListOptions: first})
		}, logger),
		StartPoller(ctx, stores.Runs, every.Runs, func(ctx context.Context) (*scheduler.Page[scheduler.Run], error) {
			return client.Runs().List(ctx, scheduler.RunFilter{ListOptions: first})
		}, logger),
	}
	return func() {
		for _, s := range stops {
			s()
		}
	}
}
