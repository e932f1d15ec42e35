// Package stride is the step tracking and streak reconciliation engine. The
// presentation layer constructs one Engine per session, reads published
// snapshots, and calls the public operations; everything else (sensor
// drivers, rendering, the remote service itself) lives outside.
package stride

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/strideapp/stride-engine/internal/adapters/kvstore"
	"github.com/strideapp/stride-engine/internal/adapters/remote"
	"github.com/strideapp/stride-engine/internal/adapters/sensor"
	"github.com/strideapp/stride-engine/internal/adapters/storage"
	"github.com/strideapp/stride-engine/internal/config"
	"github.com/strideapp/stride-engine/internal/core/domain"
	"github.com/strideapp/stride-engine/internal/core/services"
	"github.com/strideapp/stride-engine/internal/core/workers"
)

// Aliases forming the public surface of the library.
type (
	Config           = config.Config
	SensorProvider   = sensor.Provider
	Snapshot         = services.Snapshot
	FailureObserver  = services.FailureObserver
	StepsState       = domain.StepsState
	HistoricalRecord = domain.HistoricalRecord
	StatsSummary     = remote.StatsSummary
)

// LoadConfig reads engine configuration from the environment.
func LoadConfig() Config { return config.Load() }

// Engine owns the session's step state, its durable store and the background
// sync timeline. Construct with New, start once, shut down on session end.
type Engine struct {
	steps     *services.StepService
	migration *services.MigrationService
	remote    *remote.Client
	scheduler *workers.SyncScheduler
	closers   []func() error
}

type Option func(*engineOptions)

type engineOptions struct {
	clock    clockwork.Clock
	observer services.FailureObserver
	kv       kvstore.Store
}

// WithClock injects a virtual clock; tests drive timers deterministically.
func WithClock(c clockwork.Clock) Option {
	return func(o *engineOptions) { o.clock = c }
}

// WithFailureObserver receives every failure the engine swallows.
func WithFailureObserver(fn FailureObserver) Option {
	return func(o *engineOptions) { o.observer = fn }
}

// WithStore overrides the configured backend, mainly for tests.
func WithStore(kv kvstore.Store) Option {
	return func(o *engineOptions) { o.kv = kv }
}

func New(cfg Config, provider SensorProvider, opts ...Option) (*Engine, error) {
	o := &engineOptions{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{}

	kv := o.kv
	if kv == nil {
		backend, closer, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		kv = backend
		if closer != nil {
			e.closers = append(e.closers, closer)
		}
	}

	store := storage.NewStepStore(kv)
	gateway := sensor.NewGateway(provider)
	e.remote = remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteToken, cfg.RemoteTimeout)

	svcOpts := []services.StepServiceOption{
		services.WithClock(o.clock),
		services.WithMinSyncInterval(cfg.MinSyncInterval),
	}
	if o.observer != nil {
		svcOpts = append(svcOpts, services.WithFailureObserver(o.observer))
	}
	e.steps = services.NewStepService(store, gateway, e.remote, svcOpts...)
	e.migration = services.NewMigrationService(store, e.remote, o.observer)

	scheduler, err := workers.NewSyncScheduler(e.steps, e.migration,
		cfg.SyncInterval, cfg.SettleDelay, cfg.MigrationDelay, o.clock)
	if err != nil {
		e.Shutdown()
		return nil, err
	}
	e.scheduler = scheduler

	return e, nil
}

func openStore(cfg Config) (kvstore.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kvstore.NewMemoryStore(), nil, nil

	case config.BackendSQLite:
		store, err := kvstore.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendRedis:
		client, err := kvstore.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewRedisStore(client), client.Close, nil

	case config.BackendPostgres:
		db, err := kvstore.NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword,
			cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresName)
		if err != nil {
			return nil, nil, err
		}
		store, err := kvstore.NewPostgresStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Start hydrates state from the durable store and begins the background sync
// timeline.
func (e *Engine) Start(ctx context.Context) error {
	e.steps.Initialize(ctx)
	return e.scheduler.Start(ctx)
}

// Refresh reads a fresh sensor count and reconciles state; the outcome is
// published through Snapshot.
func (e *Engine) Refresh(ctx context.Context) { e.steps.Refresh(ctx) }

func (e *Engine) UpdateGoal(ctx context.Context, goal int) error {
	return e.steps.UpdateGoal(ctx, goal)
}

// SyncToServer pushes today's record now, subject to the minimum interval.
func (e *Engine) SyncToServer(ctx context.Context) { e.steps.SyncToServer(ctx) }

// RunHistoricalMigration backfills cached history to the remote. Normally
// the scheduler triggers this once after startup; exposed for hosts that
// manage their own scheduling.
func (e *Engine) RunHistoricalMigration(ctx context.Context) error {
	return e.migration.Run(ctx)
}

// Snapshot returns the current published state.
func (e *Engine) Snapshot() Snapshot { return e.steps.Snapshot() }

// RangeStats fetches the remote aggregate view for [from, to]. Display-only:
// the result never feeds back into session state.
func (e *Engine) RangeStats(ctx context.Context, from, to string) (*StatsSummary, error) {
	return e.remote.RangeStats(ctx, from, to)
}

// Shutdown cancels the background timers and closes the durable store.
func (e *Engine) Shutdown() error {
	var errs []error

	if e.scheduler != nil {
		errs = append(errs, e.scheduler.Stop())
	}
	for _, closer := range e.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}
