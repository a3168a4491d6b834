// Package scheduler drives recurring monitoring cycles, by cron expression
// or fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"storewatch/config"
)

// Job is one monitoring cycle. Errors are logged, never fatal: a failed
// cycle must not stop the schedule.
type Job func(ctx context.Context) error

type Scheduler struct {
	cfg    config.SchedulerConfig
	job    Job
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
}

func New(cfg config.SchedulerConfig, job Job) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		job:    job,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	run := func() {
		if err := s.job(ctx); err != nil {
			log.Printf("scheduled run error: %v", err)
		}
	}

	if s.cfg.Cron != "" {
		log.Printf("scheduling with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, run)
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Cron, err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Interval > 0 {
		log.Printf("scheduling every %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			run()
			for {
				select {
				case <-s.ticker.C:
					run()
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	return fmt.Errorf("no schedule configured: set SCHEDULE_CRON or CHECK_INTERVAL")
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
