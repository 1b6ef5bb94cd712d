package state

import (
	"fmt"
	"sync"
	"time"
)

// View tells a renderer which of four screens to show.
type View int

const (
	// ViewLoading means nothing has been fetched yet.
	ViewLoading View = iota
	// ViewFailed means the last fetch failed and there is no data to fall back on.
	ViewFailed
	// ViewEmpty means the last good fetch returned zero items.
	ViewEmpty
	// ViewReady means there is data to show, possibly alongside a newer fault.
	ViewReady
)

func (v View) String() string {
	switch v {
	case ViewFailed:
		return "failed"
	case ViewEmpty:
		return "empty"
	case ViewReady:
		return "ready"
	}
	return "loading"
}

// Emptier is implemented by payloads that can be successfully empty, such as
// a page with no items.
type Emptier interface {
	IsEmpty() bool
}

// Snapshot is the latest projection available to a view.
type Snapshot[T any] struct {
	Data                T
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the service has been unreachable for multiple polls.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// View distinguishes "failed to load" from "empty".
func (s Snapshot[T]) View() View {
	if !s.HasData {
		if s.LastError != nil {
			return ViewFailed
		}
		return ViewLoading
	}
	if e, ok := any(s.Data).(Emptier); ok && e.IsEmpty() {
		return ViewEmpty
	}
	return ViewReady
}

// Store coordinates concurrent updates to one snapshot.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
}

// Update replaces the stored data. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store[T]) Update(data T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.Data = data
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot. Data is copied by value;
// callers treat pointer payloads as read-only.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
