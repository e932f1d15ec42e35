package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Syncer is the slice of the reconciliation service the scheduler drives.
type Syncer interface {
	SyncToServer(ctx context.Context)
}

// Migrator runs the one-time historical backfill.
type Migrator interface {
	Run(ctx context.Context) error
}

// SyncScheduler owns the engine's background timeline: a periodic sync job,
// one sync shortly after startup once hydration has settled, and the delayed
// one-shot migration job. Steady-state sync never depends on UI-triggered
// refreshes.
type SyncScheduler struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	syncer    Syncer
	migrator  Migrator

	syncInterval   time.Duration
	settleDelay    time.Duration
	migrationDelay time.Duration
}

func NewSyncScheduler(syncer Syncer, migrator Migrator, syncInterval, settleDelay, migrationDelay time.Duration, clock clockwork.Clock) (*SyncScheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &SyncScheduler{
		scheduler:      s,
		clock:          clock,
		syncer:         syncer,
		migrator:       migrator,
		syncInterval:   syncInterval,
		settleDelay:    settleDelay,
		migrationDelay: migrationDelay,
	}, nil
}

func (s *SyncScheduler) Start(ctx context.Context) error {
	now := s.clock.Now()

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.syncInterval),
		gocron.NewTask(func() { s.syncer.SyncToServer(ctx) }),
		gocron.WithName("periodic-sync"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule periodic sync: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(now.Add(s.settleDelay))),
		gocron.NewTask(func() { s.syncer.SyncToServer(ctx) }),
		gocron.WithName("startup-sync"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule startup sync: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(now.Add(s.migrationDelay))),
		gocron.NewTask(func() {
			if err := s.migrator.Run(ctx); err != nil {
				log.Printf("[SCHEDULER] Historical migration failed: %v", err)
			}
		}),
		gocron.WithName("historical-migration"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule historical migration: %w", err)
	}

	log.Println("[SCHEDULER] Background sync started")
	s.scheduler.Start()
	return nil
}

// Stop cancels every owned timer. Must be called on session end so no
// background work runs against a stale session.
func (s *SyncScheduler) Stop() error {
	log.Println("[SCHEDULER] Shutting down...")
	return s.scheduler.Shutdown()
}
