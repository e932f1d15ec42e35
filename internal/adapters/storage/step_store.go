package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/strideapp/stride-engine/internal/adapters/kvstore"
	"github.com/strideapp/stride-engine/internal/core/domain"
)

var _ domain.StepStore = (*StepStore)(nil)

// Namespaces are private to the engine; nothing else may write these keys.
const (
	keyToday     = "steps:today"
	keyGoal      = "steps:goal"
	keyHistory   = "steps:history"
	keyMigration = "steps:history_synced"
)

// StepStore is the typed adapter between the engine and the raw key-value
// backend. Malformed underlying data is never an error for callers: it is
// logged, the key is cleaned up, and the value is reported as absent.
type StepStore struct {
	kv kvstore.Store
}

func NewStepStore(kv kvstore.Store) *StepStore {
	return &StepStore{kv: kv}
}

func (s *StepStore) SaveToday(ctx context.Context, state *domain.StepsState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyToday, string(data))
}

func (s *StepStore) LoadToday(ctx context.Context, now time.Time) (*domain.StepsState, error) {
	val, err := s.kv.Get(ctx, keyToday)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var state domain.StepsState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		log.Printf("[STORE] Corrupted today cache, cleaning up key: %v", err)
		s.kv.Remove(ctx, keyToday)
		return nil, nil
	}

	// Yesterday's cache never carries into today.
	if domain.DateKey(state.LastUpdated.In(now.Location())) != domain.DateKey(now) {
		return nil, nil
	}

	return &state, nil
}

func (s *StepStore) Goal(ctx context.Context) (int, error) {
	val, err := s.kv.Get(ctx, keyGoal)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return domain.DefaultGoal, nil
		}
		return 0, err
	}

	goal, err := strconv.Atoi(val)
	if err != nil || goal < 0 {
		log.Printf("[STORE] Corrupted goal %q, falling back to default", val)
		s.kv.Remove(ctx, keyGoal)
		return domain.DefaultGoal, nil
	}
	return goal, nil
}

func (s *StepStore) SetGoal(ctx context.Context, goal int) error {
	if goal < 0 {
		return domain.ErrNegativeGoal
	}
	return s.kv.Set(ctx, keyGoal, strconv.Itoa(goal))
}

func (s *StepStore) SaveHistorical(ctx context.Context, record *domain.HistoricalRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	history, err := s.LoadHistorical(ctx)
	if err != nil {
		return err
	}

	history[record.Date] = record

	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, keyHistory, string(data))
}

func (s *StepStore) LoadHistorical(ctx context.Context) (map[string]*domain.HistoricalRecord, error) {
	val, err := s.kv.Get(ctx, keyHistory)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return map[string]*domain.HistoricalRecord{}, nil
		}
		return nil, err
	}

	var history map[string]*domain.HistoricalRecord
	if err := json.Unmarshal([]byte(val), &history); err != nil {
		log.Printf("[STORE] Corrupted history map, cleaning up key: %v", err)
		s.kv.Remove(ctx, keyHistory)
		return map[string]*domain.HistoricalRecord{}, nil
	}
	if history == nil {
		history = map[string]*domain.HistoricalRecord{}
	}

	return history, nil
}

func (s *StepStore) Record(ctx context.Context, date string) (*domain.HistoricalRecord, error) {
	history, err := s.LoadHistorical(ctx)
	if err != nil {
		return nil, err
	}

	record, ok := history[date]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

func (s *StepStore) MigrationDone(ctx context.Context) (bool, error) {
	val, err := s.kv.Get(ctx, keyMigration)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return val == "true", nil
}

func (s *StepStore) MarkMigrationDone(ctx context.Context) error {
	return s.kv.Set(ctx, keyMigration, "true")
}
