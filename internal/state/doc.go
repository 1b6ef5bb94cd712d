// Package state provides thread-safe view state for the dashboard.
//
// # Overview
//
// A Store holds the latest projection of one remote resource (metrics, a
// page of runs, a page of schedules) between the poller that fetches it and
// the views that render it. The remote service owns the data; a Store only
// keeps the last good copy and is overwritten by the next fetch.
//
// # Update Semantics
//
//	// Success: replace data, clear the fault
//	store.Update(page, nil)
//
//	// Failure: keep the last good data, record the fault
//	store.Update(nil, err)
//
// # Views
//
// Snapshot.View tells a renderer which screen to draw:
//
//   - ViewLoading: nothing fetched yet
//   - ViewFailed: the fetch failed and there is no earlier data
//   - ViewEmpty: the fetch succeeded with zero items
//   - ViewReady: data to show; LastError may still carry a newer fault
//
// This keeps "failed to load" and "nothing here" apart.
//
// # Concurrency Model
//
// Update takes the write lock and Snapshot the read lock. Neither holds the
// lock across network I/O or rendering. The zero Store is ready to use.
package state
