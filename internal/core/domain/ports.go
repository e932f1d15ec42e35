package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRecordNotFound = errors.New("historical record not found")
)

type StepStore interface {
	// SaveToday persists the current session state as today's cache.
	SaveToday(ctx context.Context, state *StepsState) error

	// LoadToday retrieves the cached state for the calendar day containing now.
	// A cache written on an earlier day is stale and reported as absent
	// (nil, nil), never silently carried forward. Malformed cached data is
	// also reported as absent.
	LoadToday(ctx context.Context, now time.Time) (*StepsState, error)

	// Goal returns the persisted daily goal, or the default when unset.
	Goal(ctx context.Context) (int, error)

	SetGoal(ctx context.Context, goal int) error

	// SaveHistorical creates or overwrites the record for record.Date.
	SaveHistorical(ctx context.Context, record *HistoricalRecord) error

	// LoadHistorical returns every cached per-date record keyed by date.
	LoadHistorical(ctx context.Context) (map[string]*HistoricalRecord, error)

	// Record retrieves a single date's record, ErrRecordNotFound when absent.
	Record(ctx context.Context, date string) (*HistoricalRecord, error)

	// MigrationDone reports whether the one-time historical upload already ran.
	MigrationDone(ctx context.Context) (bool, error)

	MarkMigrationDone(ctx context.Context) error
}

type SensorGateway interface {
	// Available probes whether a step sensor can be queried right now.
	Available(ctx context.Context) bool

	// TodaySteps queries the count for [start of local day, now]. ok is false
	// when the sensor is unavailable or the query fails; the gateway never
	// caches and never retries.
	TodaySteps(ctx context.Context, now time.Time) (steps int, ok bool)
}

type RemoteStore interface {
	// UpsertSteps pushes one day's count to the remote store. Idempotent per
	// date: repeated calls overwrite, never accumulate.
	UpsertSteps(ctx context.Context, date string, stepCount int) error
}
