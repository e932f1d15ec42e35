package services

import (
	"context"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/strideapp/stride-engine/internal/core/domain"
)

// MigrationService performs the one-time backfill of locally cached history
// to the remote store after install. Guarded by a persisted flag so the
// upload is attempted at most once per install lifetime.
type MigrationService struct {
	store   domain.StepStore
	remote  domain.RemoteStore
	observe FailureObserver
}

func NewMigrationService(store domain.StepStore, remote domain.RemoteStore, observe FailureObserver) *MigrationService {
	return &MigrationService{
		store:   store,
		remote:  remote,
		observe: observe,
	}
}

// Run uploads every cached per-date record. Each date is independent: a
// failed upsert is logged and the remaining dates still go out. The guard
// flag is set after the full attempt regardless of individual failures.
func (m *MigrationService) Run(ctx context.Context) error {
	done, err := m.store.MigrationDone(ctx)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	history, err := m.store.LoadHistorical(ctx)
	if err != nil {
		return err
	}

	dates := make([]string, 0, len(history))
	for date := range history {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	batch := uuid.NewString()[:8]
	failed := 0

	for _, date := range dates {
		if err := m.remote.UpsertSteps(ctx, date, history[date].Steps); err != nil {
			failed++
			log.Printf("[MIGRATION] Batch %s: upload for %s failed: %v", batch, date, err)
			if m.observe != nil {
				m.observe("migrate_record", err)
			}
		}
	}

	log.Printf("[MIGRATION] Batch %s uploaded %d/%d records", batch, len(dates)-failed, len(dates))

	return m.store.MarkMigrationDone(ctx)
}
