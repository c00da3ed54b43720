package state

import (
	"errors"
	"testing"
	"time"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	var s Store

	if s.Snapshot().HasData() {
		t.Fatal("zero Store should have no data")
	}

	snap := &Snapshot{Streams: map[string]Stream{"0": {ID: 0, Type: StreamMain, Active: true}}}
	before := time.Now()
	s.Update(snap, nil)

	view := s.Snapshot()
	if view.Data != snap {
		t.Fatalf("Data = %p, want %p", view.Data, snap)
	}
	if !view.Available() {
		t.Fatal("Available() = false, want true after success")
	}
	if view.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", view.LastUpdated, before)
	}
	if view.Mode() != ModeEncoding {
		t.Fatalf("Mode = %q, want encoding", view.Mode())
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	prev := &Snapshot{Streams: map[string]Stream{}}
	s.Update(prev, nil)

	before := time.Now()
	s.Update(nil, errors.New("boom"))

	view := s.Snapshot()
	if view.Data != prev {
		t.Fatal("data changed on error")
	}
	if view.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", view.LastUpdated, before)
	}
	if view.LastError == nil || view.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", view.LastError)
	}
	if view.Available() {
		t.Fatal("Available() = true, want false after failed refresh")
	}
	if !view.HasData() {
		t.Fatal("HasData() = false, want previous data retained")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	// Initially zero failures
	view := s.Snapshot()
	if view.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", view.ConsecutiveFailures)
	}
	if view.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	s.Update(nil, errors.New("fail 1"))
	view = s.Snapshot()
	if view.ConsecutiveFailures != 1 || view.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v, want 1/false", view.ConsecutiveFailures, view.IsOffline())
	}

	// Second failure - now offline
	s.Update(nil, errors.New("fail 2"))
	view = s.Snapshot()
	if view.ConsecutiveFailures != 2 || !view.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v, want 2/true", view.ConsecutiveFailures, view.IsOffline())
	}

	// Success resets counter
	s.Update(&Snapshot{}, nil)
	view = s.Snapshot()
	if view.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0 after success", view.ConsecutiveFailures)
	}
	if view.IsOffline() {
		t.Fatal("IsOffline() = true, want false after success")
	}
}

func TestView_NilDataModeUnknown(t *testing.T) {
	var v View
	if v.Mode() != ModeUnknown {
		t.Fatalf("Mode = %q, want unknown", v.Mode())
	}
}
