// Package flusher flushes the store on a cron schedule.
package flusher

import (
	"context"
	"time"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"

	"feedcache/pkg/config"
	"feedcache/pkg/state/logger"
)

// Target is flushed on every tick.
type Target interface {
	Flush()
}

type Scheduler struct {
	cron   string
	target Target

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	// retry is the wait after a failed next-tick computation.
	retry time.Duration
}

func New(cron string, target Target) (*Scheduler, error) {
	if !gronx.IsValid(cron) {
		return nil, errors.Newf("invalid flush cron expression: %s", cron)
	}
	return &Scheduler{
		cron:   cron,
		target: target,
		now:    func() time.Time { return time.Now().UTC() },
		after:  time.After,
		retry:  30 * time.Second,
	}, nil
}

// Next returns the first tick strictly after from.
func (s *Scheduler) Next(from time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.cron, from, false)
}

// Run flushes target at every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		wait := s.retry
		next, err := s.Next(s.now())
		if err != nil {
			logger.Error("flush_nexttick_failed", "cron", s.cron, "error", err)
		} else {
			wait = next.Sub(s.now())
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			logger.Info("flush_scheduler_stopping")
			return
		case <-s.after(wait):
		}
		if err != nil {
			continue
		}
		s.target.Flush()
		logger.Debug("flush_scheduled_run", "cron", s.cron)
	}
}

// Start runs the scheduler in its own goroutine when enabled. The returned
// func stops it and waits for a flush in flight to return; it is a no-op
// when flushing is disabled.
func Start(ctx context.Context, cfg config.FlushConfig, target Target) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("flush_scheduler_disabled")
		return func() {}, nil
	}
	s, err := New(cfg.Cron, target)
	if err != nil {
		logger.Error("flush_invalid_cron", "cron", cfg.Cron)
		return nil, err
	}
	stop := s.start(ctx)
	logger.Info("flush_scheduler_started", "cron", cfg.Cron)
	return stop, nil
}

func (s *Scheduler) start(ctx context.Context) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
