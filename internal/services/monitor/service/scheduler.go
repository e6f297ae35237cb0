package service

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/platform/logger"
	"driftwatch/internal/services/monitor/domain"
	snapdom "driftwatch/internal/services/snapshots/domain"
)

// SchedulerConfig for the sweep loop
type SchedulerConfig struct {
	Schedule string // cron spec or @every form, empty disables the loop
	Workers  int
}

// Scheduler sweeps the catalog on a cron schedule and runs every enabled
// model through a bounded worker pool. Runs for different refs share nothing
type Scheduler struct {
	Runner  domain.RunnerPort
	Catalog snapdom.CatalogPort
	Cfg     SchedulerConfig

	cron *cron.Cron
	log  logger.Logger
}

// NewScheduler constructs a Scheduler
func NewScheduler(runner domain.RunnerPort, catalog snapdom.CatalogPort, cfg SchedulerConfig) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Scheduler{
		Runner:  runner,
		Catalog: catalog,
		Cfg:     cfg,
		cron:    cron.New(),
		log:     *logger.Named("scheduler"),
	}
}

// Start registers the sweep and starts the cron loop
// No-op when Schedule is empty
func (s *Scheduler) Start(ctx context.Context) error {
	if s.Cfg.Schedule == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(s.Cfg.Schedule, func() { s.Sweep(ctx) }); err != nil {
		return perr.InvalidArgf("bad schedule %q: %v", s.Cfg.Schedule, err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.Cfg.Schedule).Int("workers", s.Cfg.Workers).Msg("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs every enabled catalog model once, bounded by Workers.
// Individual run failures are logged and do not stop the sweep
func (s *Scheduler) Sweep(ctx context.Context) {
	specs, err := s.Catalog.Monitored(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("catalog sweep failed")
		return
	}

	sem := make(chan struct{}, s.Cfg.Workers)
	wg := sync.WaitGroup{}

	for i := range specs {
		wg.Add(1)
		sem <- struct{}{}
		go func(spec snapdom.ModelSpec) {
			defer func() { <-sem; wg.Done() }()
			if _, err := s.Runner.Run(ctx, spec.Ref); err != nil {
				s.log.Warn().Err(err).Str("model_id", spec.Ref.ModelID).Str("environment", spec.Ref.Environment).Msg("scheduled run failed")
			}
		}(specs[i])
	}
	wg.Wait()

	s.log.Debug().Int("models", len(specs)).Msg("sweep finished")
}
