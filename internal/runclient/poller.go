package runclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"isotope-backend/internal/runs"
)

// DefaultPollInterval is how often a Poller asks for fresh run state.
const DefaultPollInterval = 2 * time.Second

// Poller tracks one run until it reaches a terminal status. It polls
// immediately on Start and then on a fixed interval. When a tick fires
// while an earlier request is still in flight, the earlier request is
// canceled; its response, if it arrives anyway, is discarded. Once a
// terminal status has been observed the state never changes again.
type Poller struct {
	Client   *Client
	Interval time.Duration

	// OnUpdate is called with every state snapshot that is applied, in
	// order. Optional.
	OnUpdate func(runs.RunResponse)
	// OnError is called for poll failures other than canceled requests.
	// Polling continues afterwards. Optional.
	OnError func(error)

	mu             sync.Mutex
	runID          string
	seq            uint64
	applied        uint64
	latest         runs.RunResponse
	hasLatest      bool
	terminal       bool
	cancelInFlight context.CancelFunc
	stopLoop       context.CancelFunc
	loopDone       chan struct{}
}

func (p *Poller) interval() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return DefaultPollInterval
}

// Start begins polling the given run. It returns immediately; state is
// delivered through OnUpdate and Latest. Calling Start on an already
// started poller stops tracking the previous run first.
func (p *Poller) Start(ctx context.Context, runID string) {
	p.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.runID = runID
	p.terminal = false
	p.hasLatest = false
	p.applied = 0
	p.seq = 0
	p.stopLoop = cancel
	p.loopDone = done
	p.mu.Unlock()

	go p.loop(loopCtx, runID, done)
}

// Stop halts polling and any in-flight request. It is safe to call on a
// poller that was never started.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.stopLoop
	inFlight := p.cancelInFlight
	done := p.loopDone
	p.stopLoop = nil
	p.cancelInFlight = nil
	p.loopDone = nil
	p.mu.Unlock()

	if inFlight != nil {
		inFlight()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Refresh forces an immediate poll outside the fixed schedule. On a
// stopped poller tracking a non-terminal run it re-arms periodic polling
// as well. It is a no-op once a terminal status has been observed.
func (p *Poller) Refresh(ctx context.Context) {
	p.mu.Lock()
	runID := p.runID
	terminal := p.terminal
	stopped := p.stopLoop == nil
	p.mu.Unlock()
	if runID == "" || terminal {
		return
	}
	if stopped {
		p.rearm(ctx, runID)
		return
	}
	p.pollOnce(ctx, runID)
}

// rearm restarts the poll loop after a Stop. The loop's immediate poll
// doubles as the refresh itself.
func (p *Poller) rearm(ctx context.Context, runID string) {
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	if p.stopLoop != nil || p.terminal {
		p.mu.Unlock()
		cancel()
		return
	}
	p.stopLoop = cancel
	p.loopDone = done
	p.mu.Unlock()

	go p.loop(loopCtx, runID, done)
}

// Latest returns the most recently applied snapshot and whether one
// exists yet.
func (p *Poller) Latest() (runs.RunResponse, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLatest
}

// Terminal reports whether the tracked run has reached a terminal status.
func (p *Poller) Terminal() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminal
}

func (p *Poller) loop(ctx context.Context, runID string, done chan struct{}) {
	defer close(done)

	p.pollOnce(ctx, runID)

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.Terminal() {
				return
			}
			p.pollOnce(ctx, runID)
		}
	}
}

// pollOnce issues one request, superseding any still-running one. The
// sequence number taken under the lock decides which response wins when
// a superseded request races its replacement.
func (p *Poller) pollOnce(ctx context.Context, runID string) {
	reqCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.terminal {
		p.mu.Unlock()
		cancel()
		return
	}
	if p.cancelInFlight != nil {
		p.cancelInFlight()
	}
	p.cancelInFlight = cancel
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	go func() {
		defer cancel()
		run, err := p.Client.GetRun(reqCtx, runID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if p.OnError != nil {
				p.OnError(err)
			}
			return
		}
		p.apply(seq, run)
	}()
}

func (p *Poller) apply(seq uint64, run runs.RunResponse) {
	p.mu.Lock()
	if p.terminal || seq <= p.applied {
		p.mu.Unlock()
		return
	}
	p.applied = seq
	p.latest = run
	p.hasLatest = true
	if runs.IsTerminalStatus(run.Status) {
		p.terminal = true
	}
	onUpdate := p.OnUpdate
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(run)
	}
}
