// Package scheduler wires up the cron jobs that periodically run ingestion
// over every active source and purge stale geocode cache entries.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobmate/govjobs-service/internal/logging"
	"jobmate/govjobs-service/internal/scraper"
)

// Runner runs one ingestion cycle.
type Runner interface {
	RunAll(ctx context.Context) (scraper.RunReport, error)
}

// Purger deletes stale geocode cache entries.
type Purger interface {
	PurgeStale(ctx context.Context) (int64, error)
}

// Scheduler wraps robfig/cron and manages the ingestion loop.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	purger     Purger
	ingestSpec string // e.g. "@every 6h"
	purgeSpec  string // empty disables the purge job
	runOnStart bool

	wg sync.WaitGroup
}

// New creates a Scheduler. purger may be nil.
func New(runner Runner, purger Purger, ingestSpec, purgeSpec string, runOnStart bool) *Scheduler {
	logger := logging.CronLogger{S: zap.S().Named("cron")}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger), cron.Recover(logger))),
		runner:     runner,
		purger:     purger,
		ingestSpec: ingestSpec,
		purgeSpec:  purgeSpec,
		runOnStart: runOnStart,
	}
}

// Start registers the jobs and starts the scheduler. With runOnStart one
// ingestion cycle also runs immediately so the store is populated without
// waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.ingestSpec, func() { s.runIngest(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc ingest %q: %w", s.ingestSpec, err)
	}
	if s.purger != nil && s.purgeSpec != "" {
		if _, err := s.cron.AddFunc(s.purgeSpec, func() { s.runPurge(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc purge %q: %w", s.purgeSpec, err)
		}
	}

	s.cron.Start()
	zap.S().Named("scheduler").Infow("cron started", "ingest", s.ingestSpec, "purge", s.purgeSpec)

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runIngest(ctx)
		}()
	}
	return nil
}

// Stop shuts the scheduler down and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	zap.S().Named("scheduler").Info("cron stopped")
}

func (s *Scheduler) runIngest(ctx context.Context) {
	log := zap.S().Named("scheduler")
	if ctx.Err() != nil {
		return
	}
	report, err := s.runner.RunAll(ctx)
	if err != nil {
		log.Errorw("ingestion cycle failed", "error", err)
		return
	}
	log.Debugw("ingestion cycle finished", "sources", len(report.Sources), "failed_sources", report.FailedSources())
}

func (s *Scheduler) runPurge(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.purger.PurgeStale(ctx); err != nil {
		zap.S().Named("scheduler").Errorw("geocode purge failed", "error", err)
	}
}
