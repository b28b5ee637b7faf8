package runclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"isotope-backend/internal/runs"
)

// statusSequence serves a scripted progression of statuses, holding the
// final one once exhausted.
type statusSequence struct {
	mu       sync.Mutex
	statuses []string
	calls    int
}

func (s *statusSequence) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	return s.statuses[idx]
}

func (s *statusSequence) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sequenceServer(t *testing.T, seq *statusSequence) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runFixture(seq.next()))
	}))
	t.Cleanup(server.Close)
	return server
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	seq := &statusSequence{statuses: []string{runs.StatusQueued, runs.StatusRunning, runs.StatusSucceeded}}
	server := sequenceServer(t, seq)

	var updates []string
	var mu sync.Mutex
	poller := &Poller{
		Client:   New(server.URL),
		Interval: 20 * time.Millisecond,
		OnUpdate: func(run runs.RunResponse) {
			mu.Lock()
			updates = append(updates, run.Status)
			mu.Unlock()
		},
	}
	poller.Start(context.Background(), "run-1")
	t.Cleanup(poller.Stop)

	waitFor(t, 2*time.Second, poller.Terminal)

	latest, ok := poller.Latest()
	if !ok || latest.Status != runs.StatusSucceeded {
		t.Fatalf("expected succeeded snapshot, got %+v ok=%v", latest, ok)
	}

	// No further requests once terminal.
	settled := seq.callCount()
	time.Sleep(100 * time.Millisecond)
	if got := seq.callCount(); got != settled {
		t.Fatalf("poller kept polling after terminal: %d -> %d", settled, got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 || updates[len(updates)-1] != runs.StatusSucceeded {
		t.Fatalf("unexpected update order %v", updates)
	}
}

func TestPollerPollsImmediately(t *testing.T) {
	seq := &statusSequence{statuses: []string{runs.StatusQueued}}
	server := sequenceServer(t, seq)

	poller := &Poller{Client: New(server.URL), Interval: time.Hour}
	poller.Start(context.Background(), "run-1")
	t.Cleanup(poller.Stop)

	waitFor(t, time.Second, func() bool {
		_, ok := poller.Latest()
		return ok
	})
	if seq.callCount() != 1 {
		t.Fatalf("expected exactly the immediate poll, got %d", seq.callCount())
	}
}

func TestPollerStaleResponseDoesNotRegressTerminalState(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			// First request stalls until after a newer one completed.
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(runFixture(runs.StatusRunning))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runFixture(runs.StatusSucceeded))
	}))
	t.Cleanup(server.Close)

	poller := &Poller{Client: New(server.URL), Interval: 20 * time.Millisecond}
	poller.Start(context.Background(), "run-1")
	t.Cleanup(poller.Stop)

	waitFor(t, 2*time.Second, poller.Terminal)
	close(release)
	time.Sleep(50 * time.Millisecond)

	latest, ok := poller.Latest()
	if !ok || latest.Status != runs.StatusSucceeded {
		t.Fatalf("stale response overwrote terminal state: %+v", latest)
	}
}

func TestPollerRefreshIsNoOpAfterTerminal(t *testing.T) {
	seq := &statusSequence{statuses: []string{runs.StatusCanceled}}
	server := sequenceServer(t, seq)

	poller := &Poller{Client: New(server.URL), Interval: time.Hour}
	poller.Start(context.Background(), "run-1")
	t.Cleanup(poller.Stop)

	waitFor(t, time.Second, poller.Terminal)
	settled := seq.callCount()

	poller.Refresh(context.Background())
	time.Sleep(50 * time.Millisecond)
	if got := seq.callCount(); got != settled {
		t.Fatalf("refresh polled a terminal run: %d -> %d", settled, got)
	}
}

func TestPollerRefreshReArmsAfterStop(t *testing.T) {
	seq := &statusSequence{statuses: []string{runs.StatusRunning}}
	server := sequenceServer(t, seq)

	poller := &Poller{Client: New(server.URL), Interval: 20 * time.Millisecond}
	poller.Start(context.Background(), "run-1")

	waitFor(t, time.Second, func() bool { return seq.callCount() >= 1 })
	poller.Stop()
	settled := seq.callCount()

	poller.Refresh(context.Background())
	t.Cleanup(poller.Stop)

	// The re-armed loop keeps ticking, not just the refresh poll.
	waitFor(t, 2*time.Second, func() bool { return seq.callCount() >= settled+3 })
}

func TestPollerStopHaltsPolling(t *testing.T) {
	seq := &statusSequence{statuses: []string{runs.StatusQueued}}
	server := sequenceServer(t, seq)

	poller := &Poller{Client: New(server.URL), Interval: 10 * time.Millisecond}
	poller.Start(context.Background(), "run-1")

	waitFor(t, time.Second, func() bool { return seq.callCount() >= 2 })
	poller.Stop()

	settled := seq.callCount()
	time.Sleep(60 * time.Millisecond)
	if got := seq.callCount(); got > settled {
		t.Fatalf("poller kept polling after Stop: %d -> %d", settled, got)
	}
}
