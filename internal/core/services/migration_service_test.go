package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride-engine/internal/adapters/kvstore"
	"github.com/strideapp/stride-engine/internal/adapters/storage"
	"github.com/strideapp/stride-engine/internal/core/domain"
	"github.com/strideapp/stride-engine/internal/core/services"
)

func seedHistory(t *testing.T, store *storage.StepStore, dates ...string) {
	t.Helper()
	ctx := context.Background()
	for i, date := range dates {
		rec := domain.NewHistoricalRecord(date, 1000*(i+1), 12000, 8000)
		require.NoError(t, store.SaveHistorical(ctx, rec))
	}
}

func TestMigrationUploadsAllRecordsOnce(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	store := storage.NewStepStore(kv)
	seedHistory(t, store, "2026-03-10", "2026-03-11", "2026-03-12")

	remote := new(MockRemote)
	remote.On("UpsertSteps", ctx, "2026-03-10", 1000).Return(nil).Once()
	remote.On("UpsertSteps", ctx, "2026-03-11", 2000).Return(nil).Once()
	remote.On("UpsertSteps", ctx, "2026-03-12", 3000).Return(nil).Once()

	migration := services.NewMigrationService(store, remote, nil)
	require.NoError(t, migration.Run(ctx))
	remote.AssertExpectations(t)

	// Second process lifetime over the same durable store: guard flag holds.
	rebooted := services.NewMigrationService(storage.NewStepStore(kv), remote, nil)
	require.NoError(t, rebooted.Run(ctx))
	remote.AssertNumberOfCalls(t, "UpsertSteps", 3)
}

func TestMigrationContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStepStore(kvstore.NewMemoryStore())
	seedHistory(t, store, "2026-03-10", "2026-03-11", "2026-03-12")

	remote := new(MockRemote)
	remote.On("UpsertSteps", ctx, "2026-03-10", 1000).Return(nil)
	remote.On("UpsertSteps", ctx, "2026-03-11", 2000).Return(errors.New("timeout"))
	remote.On("UpsertSteps", ctx, "2026-03-12", 3000).Return(nil)

	var observed int
	migration := services.NewMigrationService(store, remote, func(op string, err error) {
		observed++
	})

	require.NoError(t, migration.Run(ctx))
	remote.AssertExpectations(t)
	assert.Equal(t, 1, observed)

	// The guard is set even though one date failed: at most one attempt
	// per install.
	done, err := store.MigrationDone(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, migration.Run(ctx))
	remote.AssertNumberOfCalls(t, "UpsertSteps", 3)
}

func TestMigrationWithEmptyHistory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStepStore(kvstore.NewMemoryStore())

	remote := new(MockRemote)

	migration := services.NewMigrationService(store, remote, nil)
	require.NoError(t, migration.Run(ctx))

	remote.AssertNotCalled(t, "UpsertSteps", mock.Anything, mock.Anything, mock.Anything)

	done, err := store.MigrationDone(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}
