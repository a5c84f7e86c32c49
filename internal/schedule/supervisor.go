// Package schedule provides a duration-bounded recurring job runner with an
// at-most-one-in-flight guarantee for the supervised tick.
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

// Tick is the unit of work a schedule executes on each interval firing.
// Errors are logged and counted; they never stop the schedule.
type Tick func(ctx context.Context) error

// Supervisor runs a tick at a fixed interval for a bounded total duration.
//
// Invariants:
//   - at most one live schedule exists, regardless of how many goroutines
//     call Start; overlapping Start calls only extend the deadline
//     (monotonically non-decreasing while live);
//   - at most one tick invocation is in flight at a time; a firing that
//     lands while a previous invocation is still outstanding is dropped,
//     not queued.
//
// The guarantee is per process. A fleet of instances each runs its own
// schedule; callers that need fleet-wide exclusivity must coordinate
// elsewhere.
type Supervisor struct {
	name    string
	tick    Tick
	logger  log.Logger
	metrics *Metrics

	// now is swappable for tests.
	now func() time.Time

	mu       sync.Mutex
	active   bool
	deadline time.Time

	inFlight atomic.Bool
}

// New creates a supervisor for the named job. Metrics may be nil.
func New(name string, tick Tick, logger log.Logger, metrics *Metrics) *Supervisor {
	if tick == nil {
		panic(xerrors.New("schedule: tick is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Supervisor{
		name:    name,
		tick:    tick,
		logger:  logger.With("job", name),
		metrics: metrics,
		now:     time.Now,
	}
}

// Start arms the schedule for duration, firing every interval. If a schedule
// is already live, the deadline is extended to max(existing, now+duration)
// and no second ticker is armed. On a fresh arm the tick runs once
// immediately, fire-and-forget. Safe to call redundantly from any goroutine;
// it never returns an error to the caller.
//
// The schedule stops when a ticker fire observes the deadline has lapsed, or
// when ctx is canceled. A later Start re-arms from scratch.
func (s *Supervisor) Start(ctx context.Context, duration, interval time.Duration) {
	if duration <= 0 || interval <= 0 {
		s.logger.Warn(ctx, "schedule start ignored", "duration", duration, "interval", interval)
		return
	}

	until := s.now().Add(duration)

	s.mu.Lock()
	if s.active {
		if until.After(s.deadline) {
			s.deadline = until
		}
		deadline := s.deadline
		s.mu.Unlock()
		s.observeStart("extended")
		s.logger.Info(ctx, "schedule extended", "deadline", deadline)
		return
	}
	s.active = true
	s.deadline = until
	s.mu.Unlock()

	s.observeStart("armed")
	s.logger.Info(ctx, "schedule armed", "deadline", until, "interval", interval)

	// immediate first pass
	s.fire(ctx)

	go s.loop(ctx, interval)
}

// Active reports whether a schedule is currently live.
func (s *Supervisor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Deadline returns the current deadline and whether a schedule is live.
func (s *Supervisor) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.active
}

func (s *Supervisor) loop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.disarm()
			s.logger.Info(context.WithoutCancel(ctx), "schedule stopped", "reason", "context canceled")
			return
		case <-t.C:
			s.mu.Lock()
			expired := s.now().After(s.deadline)
			if expired {
				s.active = false
			}
			s.mu.Unlock()

			if expired {
				s.logger.Info(ctx, "schedule stopped", "reason", "deadline lapsed")
				return
			}
			s.fire(ctx)
		}
	}
}

func (s *Supervisor) disarm() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// fire invokes the tick unless a previous invocation is still outstanding,
// in which case this firing is dropped.
func (s *Supervisor) fire(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.observeTick("skipped")
		s.logger.Warn(ctx, "tick skipped, previous run still in flight")
		return
	}

	go func() {
		defer s.inFlight.Store(false)
		if err := s.tick(ctx); err != nil {
			s.observeTick("error")
			s.logger.Error(ctx, err, "tick failed")
			return
		}
		s.observeTick("ok")
	}()
}

func (s *Supervisor) observeStart(result string) {
	if s.metrics != nil {
		s.metrics.StartsTotal.WithLabelValues(s.name, result).Inc()
	}
}

func (s *Supervisor) observeTick(result string) {
	if s.metrics != nil {
		s.metrics.TicksTotal.WithLabelValues(s.name, result).Inc()
	}
}
