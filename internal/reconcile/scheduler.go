package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"matchreel/internal/access"
	"matchreel/internal/logging"
)

// Scheduler runs ReconcileAll on a fixed interval.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	running sync.Mutex
	wg      sync.WaitGroup
	skipped atomic.Int64

	// AfterPass, when set, observes every completed pass.
	AfterPass func(Summary, error)
}

// NewScheduler returns nil when interval is not positive.
func NewScheduler(engine *Engine, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if engine == nil || interval <= 0 {
		return nil
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		clock:    clock,
		logger:   logging.NewComponentLogger(logger, "reconcile-scheduler"),
	}
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Skipped reports how many ticks found a pass still running.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Run ticks until ctx is cancelled, then waits for an in-flight pass.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("reconcile scheduler started", logging.Duration("interval", s.interval))
	defer func() {
		s.wg.Wait()
		s.logger.Info("reconcile scheduler stopped")
	}()

	for {
		timer := s.clock.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.Chan():
		}

		if !s.running.TryLock() {
			s.skipped.Add(1)
			s.logger.Debug("reconcile tick skipped; previous pass still running")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.running.Unlock()
			s.pass(ctx)
		}()
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	summary, err := s.engine.ReconcileAll(ctx, access.Operator())
	if err != nil && ctx.Err() == nil {
		logging.WarnWithContext(s.logger, "scheduled reconcile failed", "reconcile_pass_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "pending matches wait for the next tick"))
	}
	if s.AfterPass != nil {
		s.AfterPass(summary, err)
	}
}
