package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/prometheus/client_golang/prometheus"
)

// countingTick returns a Tick that counts invocations and tracks the maximum
// number of concurrent invocations observed.
func countingTick(count, inFlight, maxInFlight *atomic.Int64) Tick {
	return func(ctx context.Context) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := maxInFlight.Load()
			if cur <= old || maxInFlight.CompareAndSwap(old, cur) {
				break
			}
		}
		count.Add(1)
		return nil
	}
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
	t.Fatal("condition not met within deadline")
}

func TestStart_RunsImmediateTick(t *testing.T) {
	t.Parallel()

	var count, inFlight, maxInFlight atomic.Int64
	s := New("replies", countingTick(&count, &inFlight, &maxInFlight), log.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx, 500*time.Millisecond, 100*time.Millisecond)

	waitFor(t, 2*time.Second, func() bool { return count.Load() >= 1 })
	if !s.Active() {
		t.Error("expected schedule to be active")
	}
}

func TestStart_CoalescesIntoSingleSchedule(t *testing.T) {
	t.Parallel()

	var count, inFlight, maxInFlight atomic.Int64
	m := NewMetrics(prometheus.NewRegistry())
	s := New("replies", countingTick(&count, &inFlight, &maxInFlight), log.Nop(), m)

	// Freeze the clock so the schedule never expires during the test.
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx, 1*time.Minute, time.Hour)
	waitFor(t, 2*time.Second, func() bool { return count.Load() == 1 })

	d1, active := s.Deadline()
	if !active {
		t.Fatal("expected active schedule")
	}
	if want := t0.Add(1 * time.Minute); !d1.Equal(want) {
		t.Errorf("deadline = %v, want %v", d1, want)
	}

	// Longer request extends the deadline, no second immediate tick.
	s.Start(ctx, 5*time.Minute, time.Hour)
	d2, _ := s.Deadline()
	if want := t0.Add(5 * time.Minute); !d2.Equal(want) {
		t.Errorf("deadline = %v, want %v", d2, want)
	}

	// Shorter request never shrinks the deadline.
	s.Start(ctx, 1*time.Minute, time.Hour)
	d3, _ := s.Deadline()
	if !d3.Equal(d2) {
		t.Errorf("deadline shrank: %v, want %v", d3, d2)
	}

	// Give any stray immediate fire a moment to land, then verify only the
	// original arm ran the tick.
	time.Sleep(50 * time.Millisecond)
	if got := count.Load(); got != 1 {
		t.Errorf("tick ran %d times, want 1 (redundant starts must not fire)", got)
	}
}

func TestTick_DroppedWhileInFlight(t *testing.T) {
	t.Parallel()

	var started atomic.Int64
	release := make(chan struct{})
	tick := func(ctx context.Context) error {
		started.Add(1)
		<-release
		return nil
	}

	s := New("replies", tick, log.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx, time.Second, 10*time.Millisecond)

	// The immediate run blocks on release; every ticker firing in the
	// meantime must be dropped, not queued.
	waitFor(t, 2*time.Second, func() bool { return started.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Fatalf("tick started %d times while one was outstanding, want 1", got)
	}

	close(release)
	waitFor(t, 2*time.Second, func() bool { return started.Load() >= 2 })
}

func TestDeadlineLapse_StopsAndRearms(t *testing.T) {
	t.Parallel()

	var count, inFlight, maxInFlight atomic.Int64
	s := New("replies", countingTick(&count, &inFlight, &maxInFlight), log.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx, 30*time.Millisecond, 10*time.Millisecond)
	waitFor(t, 2*time.Second, func() bool { return !s.Active() })

	settled := count.Load()
	time.Sleep(50 * time.Millisecond)
	if got := count.Load(); got != settled {
		t.Errorf("tick ran after deadline lapsed: %d then %d", settled, got)
	}

	// A later start re-arms from scratch, including the immediate pass.
	s.Start(ctx, 200*time.Millisecond, 50*time.Millisecond)
	waitFor(t, 2*time.Second, func() bool { return count.Load() > settled })
	if !s.Active() {
		t.Error("expected re-armed schedule to be active")
	}
	if got := maxInFlight.Load(); got > 1 {
		t.Errorf("max concurrent ticks = %d, want at most 1", got)
	}
}

func TestTickError_ScheduleContinues(t *testing.T) {
	t.Parallel()

	var count atomic.Int64
	tick := func(ctx context.Context) error {
		count.Add(1)
		return errors.New("remote call failed")
	}

	s := New("replies", tick, log.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx, time.Second, 10*time.Millisecond)
	waitFor(t, 2*time.Second, func() bool { return count.Load() >= 3 })
}

func TestContextCancel_StopsSchedule(t *testing.T) {
	t.Parallel()

	var count, inFlight, maxInFlight atomic.Int64
	s := New("replies", countingTick(&count, &inFlight, &maxInFlight), log.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, time.Minute, 10*time.Millisecond)
	waitFor(t, 2*time.Second, func() bool { return count.Load() >= 1 })

	cancel()
	waitFor(t, 2*time.Second, func() bool { return !s.Active() })
}

func TestStart_IgnoresInvalidArgs(t *testing.T) {
	t.Parallel()

	var count, inFlight, maxInFlight atomic.Int64
	s := New("replies", countingTick(&count, &inFlight, &maxInFlight), log.Nop(), nil)

	s.Start(context.Background(), 0, 10*time.Millisecond)
	s.Start(context.Background(), time.Second, 0)

	if s.Active() {
		t.Error("expected no schedule for invalid arguments")
	}
	if count.Load() != 0 {
		t.Error("tick must not run for invalid arguments")
	}
}
