package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/strideapp/stride-engine/internal/core/domain"
)

const DefaultMinSyncInterval = 5 * time.Minute

// Snapshot is the engine state published to the presentation layer. Values
// are copies; the UI never holds a reference into the service.
type Snapshot struct {
	State       domain.StepsState
	Yesterday   *domain.HistoricalRecord
	IsLoading   bool
	IsAvailable bool
	HasError    bool
}

// FailureObserver receives every failure the engine swallows instead of
// surfacing. Called synchronously, possibly with internal locks held — it
// must not call back into the service.
type FailureObserver func(op string, err error)

// StepService reconciles the session's step state: it reads the sensor on
// demand, runs the streak evaluation, persists through the durable store and
// pushes today's record to the remote under rate limiting. All writes to the
// session state are serialized here.
type StepService struct {
	store  domain.StepStore
	sensor domain.SensorGateway
	remote domain.RemoteStore
	clock  clockwork.Clock

	minSyncInterval time.Duration
	observe         FailureObserver

	mu        sync.Mutex
	state     domain.StepsState
	yesterday *domain.HistoricalRecord
	available bool
	hasError  bool
	inflight  int
	// refreshSeq orders refreshes by initiation time so a slow in-flight read
	// can never overwrite the result of a later, faster one.
	refreshSeq   uint64
	lastSync     time.Time
	syncInFlight bool
}

type StepServiceOption func(*StepService)

func WithClock(c clockwork.Clock) StepServiceOption {
	return func(s *StepService) { s.clock = c }
}

func WithMinSyncInterval(d time.Duration) StepServiceOption {
	return func(s *StepService) { s.minSyncInterval = d }
}

func WithFailureObserver(fn FailureObserver) StepServiceOption {
	return func(s *StepService) { s.observe = fn }
}

func NewStepService(store domain.StepStore, sensor domain.SensorGateway, remote domain.RemoteStore, opts ...StepServiceOption) *StepService {
	s := &StepService{
		store:           store,
		sensor:          sensor,
		remote:          remote,
		clock:           clockwork.NewRealClock(),
		minSyncInterval: DefaultMinSyncInterval,
		state:           *domain.NewStepsState(),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize hydrates state from the durable store: persisted goal, today's
// cache when present, yesterday's record for display. Probes sensor
// availability but performs no sensor read.
func (s *StepService) Initialize(ctx context.Context) {
	now := s.clock.Now()

	goal, err := s.store.Goal(ctx)
	if err != nil {
		s.swallow("load_goal", err)
		goal = domain.DefaultGoal
	}

	cached, err := s.store.LoadToday(ctx, now)
	if err != nil {
		s.swallow("load_today", err)
		cached = nil
	}

	yesterday, err := s.store.Record(ctx, domain.DateKey(now.AddDate(0, 0, -1)))
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			s.swallow("load_yesterday", err)
		}
		yesterday = nil
	}

	available := s.sensor.Available(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached != nil {
		s.state = *cached
		s.state.Source = domain.SourceCached
	} else {
		s.state = *domain.NewStepsState()
	}
	s.state.Goal = goal
	s.yesterday = yesterday
	s.available = available
}

// Refresh reads a fresh count from the sensor and reconciles state. On any
// failure the prior state is left untouched and HasError is raised; the
// outcome is published through Snapshot, never returned.
func (s *StepService) Refresh(ctx context.Context) {
	if !s.sensor.Available(ctx) {
		s.mu.Lock()
		s.available = false
		s.hasError = true
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.available = true
	s.refreshSeq++
	seq := s.refreshSeq
	s.inflight++
	s.mu.Unlock()

	now := s.clock.Now()
	steps, ok := s.sensor.TodaySteps(ctx, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if !ok {
		s.hasError = true
		return
	}
	if seq != s.refreshSeq {
		// A newer refresh was initiated while this one was in flight; last
		// initiated wins, so this result is discarded.
		return
	}

	today := domain.DateKey(now)
	yesterdayKey := domain.DateKey(now.AddDate(0, 0, -1))

	eval := domain.EvaluateStreak(steps, s.state.StreakGoal, s.state.CurrentStreak,
		s.state.LastStreakDate, today, yesterdayKey)

	s.state.Steps = steps
	s.state.Source = domain.SourceSensor
	s.state.LastUpdated = now
	s.state.CurrentStreak = eval.Streak
	s.state.LastStreakDate = eval.LastStreakDate
	s.hasError = false

	if eval.JustAchieved {
		log.Printf("[ENGINE] Streak extended to %d days", eval.Streak)
	}
	if eval.JustLost {
		log.Println("[ENGINE] Streak lost")
	}

	if err := s.store.SaveToday(ctx, &s.state); err != nil {
		s.swallow("save_today", err)
	}

	record := domain.NewHistoricalRecord(today, steps, s.state.Goal, s.state.StreakGoal)
	if err := s.store.SaveHistorical(ctx, record); err != nil {
		s.swallow("save_historical", err)
	}
}

// UpdateGoal persists and publishes the display goal. The streak goal is
// untouched and no re-evaluation happens.
func (s *StepService) UpdateGoal(ctx context.Context, goal int) error {
	if goal < 0 {
		return domain.ErrNegativeGoal
	}

	if err := s.store.SetGoal(ctx, goal); err != nil {
		return err
	}

	s.mu.Lock()
	s.state.Goal = goal
	s.mu.Unlock()
	return nil
}

// SyncToServer pushes today's count to the remote store. Calls inside the
// minimum interval since the last successful push, or while a push is in
// flight, are silent no-ops. Failures are swallowed: local state stays the
// durable fallback and the next scheduled attempt retries.
func (s *StepService) SyncToServer(ctx context.Context) {
	s.mu.Lock()
	now := s.clock.Now()
	if s.syncInFlight || (!s.lastSync.IsZero() && now.Sub(s.lastSync) < s.minSyncInterval) {
		s.mu.Unlock()
		return
	}
	s.syncInFlight = true
	date := domain.DateKey(now)
	steps := s.state.Steps
	s.mu.Unlock()

	attempt := uuid.NewString()[:8]
	err := s.remote.UpsertSteps(ctx, date, steps)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncInFlight = false

	if err != nil {
		s.swallow("sync_to_server", err)
		return
	}

	s.lastSync = now
	log.Printf("[ENGINE] Sync %s pushed %d steps for %s", attempt, steps, date)
}

// Snapshot returns a copy of the published engine state.
func (s *StepService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:       s.state,
		Yesterday:   s.yesterday,
		IsLoading:   s.inflight > 0,
		IsAvailable: s.available,
		HasError:    s.hasError,
	}
}

func (s *StepService) swallow(op string, err error) {
	log.Printf("[ENGINE] %s failed (suppressed): %v", op, err)
	if s.observe != nil {
		s.observe(op, err)
	}
}
