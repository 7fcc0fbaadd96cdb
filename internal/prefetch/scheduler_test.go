package prefetch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsTask(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Delay: 10 * time.Millisecond, IdleCeiling: 100 * time.Millisecond})

	var ran atomic.Int32
	s.Schedule(func() { ran.Add(1) })

	waitFor(t, 500*time.Millisecond, func() bool { return ran.Load() == 1 })
}

func TestSchedulerSupersedesPendingTask(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Delay: 20 * time.Millisecond, IdleCeiling: 100 * time.Millisecond})

	var first, second atomic.Int32
	s.Schedule(func() { first.Add(1) })
	s.Schedule(func() { second.Add(1) })

	waitFor(t, 500*time.Millisecond, func() bool { return second.Load() == 1 })
	if first.Load() != 0 {
		t.Error("Superseded task must not run")
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Delay: 10 * time.Millisecond, IdleCeiling: 50 * time.Millisecond})

	var ran atomic.Int32
	s.Schedule(func() { ran.Add(1) })
	s.Cancel()
	s.Cancel() // idempotent

	time.Sleep(150 * time.Millisecond)
	if ran.Load() != 0 {
		t.Error("Cancelled task must not run")
	}
}

func TestSchedulerWaitsForIdle(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Delay: 5 * time.Millisecond, IdleCeiling: time.Second})

	s.BeginWork()

	var ran atomic.Int32
	s.Schedule(func() { ran.Add(1) })

	time.Sleep(60 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatal("Task must wait while foreground work is in flight")
	}

	s.EndWork()
	waitFor(t, 500*time.Millisecond, func() bool { return ran.Load() == 1 })
}

func TestSchedulerCeilingForcesRun(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Delay: 5 * time.Millisecond, IdleCeiling: 30 * time.Millisecond})

	s.BeginWork()
	defer s.EndWork()

	var ran atomic.Int32
	s.Schedule(func() { ran.Add(1) })

	// Never idle, but the ceiling must still force the task through.
	waitFor(t, 500*time.Millisecond, func() bool { return ran.Load() == 1 })
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
	t.Fatal("Condition not met before timeout")
}
