package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"listing_combiner/combiner"
	"listing_combiner/config"
	"listing_combiner/models"
)

// Runner performs one combine run.
type Runner interface {
	Run(ctx context.Context) (*models.CombineRun, error)
}

type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Runner
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
	once   sync.Once
}

func New(cfg config.SchedulerConfig, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		stopCh: make(chan struct{}),
	}
}

// Start registers the configured schedule. A cron expression takes precedence over
// an interval; with neither the scheduler stays idle.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		log.Info().Str("cron", s.cfg.Cron).Msg("starting scheduler")
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.runOnce(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		log.Info().Dur("interval", s.cfg.Interval).Msg("starting scheduler")
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runOnce(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Info().Msg("no schedule configured, combining only at startup")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.once.Do(func() {
		<-s.cron.Stop().Done()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// TriggerNow runs a combine pass synchronously.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	_, err := s.runner.Run(ctx)
	return err
}

func (s *Scheduler) runOnce(ctx context.Context) {
	run, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, combiner.ErrRunInProgress):
		log.Warn().Msg("scheduled run skipped: previous run still in progress")
	case err != nil:
		log.Error().Err(err).Msg("scheduled run failed")
	default:
		log.Info().Str("run_id", run.ID).Int("unique", run.UniqueCount).Msg("scheduled run complete")
	}
}
