// Package app is the composition root of cadence.
//
// # Overview
//
// Bootstrap turns a config path into a Runtime: the resolved configuration,
// one logging handle, the session token store and one scheduler client
// factory with its metrics registry. Every entry point (CLI commands, the
// terminal dashboard, the web server) starts from a Runtime so they all log,
// authenticate and measure the same way.
//
// Run builds on Bootstrap to start the terminal dashboard:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> Bootstrap()      config, logger, tokens, factory
//	       ├─────> prefs.Load()     theme, page size, UI refresh
//	       ├─────> StartPollers()   one timer per resource
//	       └─────> ui.Run()         blocks until quit
//
// # Polling
//
// Each resource has its own poller and its own state.Store:
//
//   - health and metrics every 5 seconds
//   - schedules every 5 seconds
//   - runs every 3 seconds
//
// A poller fetches once immediately, then on every tick. A failed fetch is
// recorded in the store (keeping the last good data) and logged at WARN;
// the next attempt simply waits for the next tick. There is no retry or
// backoff. Stopping a poller cancels its timer and any in-flight fetch, and
// a fetch cancelled that way is not recorded.
//
// Quitting the dashboard cancels the shared context, so no timer outlives
// the view that started it.
package app
