package prefetch

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

const (
	// DefaultDelay lets the current card's primary image finish
	// decoding before background work starts.
	DefaultDelay = 300 * time.Millisecond

	// DefaultIdleCeiling bounds how long a task waits for an idle
	// slot; under sustained load it runs anyway.
	DefaultIdleCeiling = 2 * time.Second
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Delay is the debounce delay before a task becomes eligible.
	// Default: DefaultDelay.
	Delay time.Duration

	// IdleCeiling is the longest a task waits for idleness.
	// Default: DefaultIdleCeiling.
	IdleCeiling time.Duration
}

// Scheduler runs low-priority background tasks: debounced, then
// deferred to the next idle slot, but no later than the ceiling.
// Scheduling a new task supersedes any task still waiting; only the
// most recently scheduled task ever runs.
//
// Idleness is cooperative: callers bracket foreground work (rendering,
// decoding) with BeginWork/EndWork, and scheduled tasks wait for the
// work count to reach zero.
type Scheduler struct {
	mu          sync.Mutex
	debounced   func(f func())
	gen         uint64
	busy        int
	idleWaiters []chan struct{}
	ceiling     time.Duration
}

// NewScheduler creates a scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	if config.IdleCeiling <= 0 {
		config.IdleCeiling = DefaultIdleCeiling
	}
	return &Scheduler{
		debounced: debounce.New(config.Delay),
		ceiling:   config.IdleCeiling,
	}
}

// Schedule queues task to run after the debounce delay and the next
// idle slot. Any previously scheduled task that has not started yet is
// cancelled.
func (s *Scheduler) Schedule(task func()) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.debounced(func() {
		s.runWhenIdle(gen, task)
	})
}

// Cancel drops any scheduled task that has not started. Idempotent and
// safe to call from a teardown path.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// BeginWork marks the start of foreground work. Scheduled tasks wait
// until all foreground work has ended (or the ceiling expires).
func (s *Scheduler) BeginWork() {
	s.mu.Lock()
	s.busy++
	s.mu.Unlock()
}

// EndWork marks the end of foreground work.
func (s *Scheduler) EndWork() {
	s.mu.Lock()
	if s.busy > 0 {
		s.busy--
	}
	if s.busy == 0 {
		for _, ch := range s.idleWaiters {
			close(ch)
		}
		s.idleWaiters = nil
	}
	s.mu.Unlock()
}

func (s *Scheduler) runWhenIdle(gen uint64, task func()) {
	if s.stale(gen) {
		return
	}

	timer := time.NewTimer(s.ceiling)
	defer timer.Stop()

	select {
	case <-s.idleCh():
	case <-timer.C:
	}

	if s.stale(gen) {
		return
	}
	task()
}

func (s *Scheduler) stale(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen
}

// idleCh returns a channel that is closed once no foreground work is
// in flight. If the scheduler is already idle the channel is closed
// immediately.
func (s *Scheduler) idleCh() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{})
	if s.busy == 0 {
		close(ch)
		return ch
	}
	s.idleWaiters = append(s.idleWaiters, ch)
	return ch
}
