package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/cadence/internal/auth"
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/prefs"
	"github.com/five82/cadence/internal/scheduler"
	"github.com/five82/cadence/internal/ui"
)

// Options configure the dashboard.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/cadence/prefs.toml
	PollEvery  int    // seconds; zero keeps the per-resource defaults
}

// Runtime is the dependency graph every entry point shares: one logger, one
// token store and one client factory per process.
type Runtime struct {
	Config   config.Config
	Logger   *logging.Logger
	Tokens   auth.TokenStore
	Factory  *scheduler.Factory
	Registry *prometheus.Registry
}

// Bootstrap loads configuration and builds the runtime.
func Bootstrap(configPath string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Console:  cfg.ConsoleLogger,
		FilePath: cfg.LogFile,
		Hostname: cfg.Hostname(),
		Timezone: cfg.LogTimezone,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tokens, err := auth.NewFileStore(cfg.SessionFile)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	registry := prometheus.NewRegistry()
	factory, err := scheduler.NewFactory(scheduler.FactoryConfig{
		BaseURL:    cfg.APIURL,
		Resolver:   &auth.Resolver{Store: tokens, Logger: logger},
		Logger:     logger,
		Registerer: registry,
	})
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("init scheduler client: %w", err)
	}

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Tokens:   tokens,
		Factory:  factory,
		Registry: registry,
	}, nil
}

// LocalClient returns a client that reads credentials from the token store.
func (r *Runtime) LocalClient(opts ...scheduler.ClientOption) *scheduler.Client {
	return r.Factory.Client(nil, opts...)
}

// Close flushes the log sink.
func (r *Runtime) Close() error {
	return r.Logger.Close()
}

// Intervals sets how often each resource is re-fetched.
type Intervals struct {
	Health    time.Duration
	Metrics   time.Duration
	Schedules time.Duration
	Runs      time.Duration
}

// DefaultIntervals returns the dashboard refresh cadence. A positive
// override replaces every interval.
func DefaultIntervals(override time.Duration) Intervals {
	if override > 0 {
		return Intervals{Health: override, Metrics: override, Schedules: override, Runs: override}
	}
	return Intervals{
		Health:    MetricsInterval,
		Metrics:   MetricsInterval,
		Schedules: defaultPollInterval,
		Runs:      RunsInterval,
	}
}

// Run boots the terminal dashboard until the context is cancelled or the
// user quits. Quitting stops every poller before Run returns.
func Run(ctx context.Context, opts Options) error {
	rt, err := Bootstrap(opts.ConfigPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := rt.LocalClient()
	stores := NewStores()
	stop := StartPollers(ctx, client, stores, DefaultIntervals(time.Duration(opts.PollEvery)*time.Second), userPrefs.PageSize, rt.Logger)
	defer stop()

	rt.Logger.Info("dashboard started", map[string]any{"baseURL": rt.Factory.BaseURL(), "env": rt.Config.ActiveEnv})

	return ui.Run(ctx, ui.Options{
		Context:   ctx,
		Actions:   client.Schedules(),
		Stores:    stores,
		BaseURL:   rt.Factory.BaseURL(),
		PollTick:  userPrefs.RefreshEvery(),
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    rt.Logger,
	})
}
