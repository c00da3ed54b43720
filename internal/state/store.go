package state

import (
	"sync"
	"time"
)

// View is what readers see: the latest good snapshot plus refresh health.
type View struct {
	Data                *Snapshot
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// HasData reports whether any refresh has succeeded.
func (v View) HasData() bool { return v.Data != nil }

// Available reports whether the last refresh succeeded and data exists.
func (v View) Available() bool { return v.Data != nil && v.LastError == nil }

// IsOffline returns true when the device has been unreachable for multiple polls.
func (v View) IsOffline() bool { return v.ConsecutiveFailures >= 2 }

// Mode is the device mode of the current data, unknown without data.
func (v View) Mode() Mode { return v.Data.Mode() }

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu   sync.RWMutex
	view View
}

// Update publishes snap. When err is non-nil the previous data is kept but
// the error is recorded for visibility.
func (s *Store) Update(snap *Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.view.LastError = err
		s.view.LastUpdated = time.Now()
		s.view.ConsecutiveFailures++
		return
	}

	s.view.Data = snap
	s.view.LastError = nil
	s.view.LastUpdated = time.Now()
	s.view.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current view. The referenced Snapshot is
// shared and must not be modified.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}
