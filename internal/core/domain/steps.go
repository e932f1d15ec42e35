package domain

import (
	"errors"
	"time"
)

var (
	ErrNegativeSteps = errors.New("step count cannot be negative")
	ErrNegativeGoal  = errors.New("goal cannot be negative")
)

const (
	DefaultGoal       = 12000
	DefaultStreakGoal = 8000

	DateLayout = "2006-01-02"
)

type StepSource string

const (
	SourceSensor StepSource = "sensor"
	SourceCached StepSource = "cached"
)

// StepsState is the per-session step tracking state. A single instance is
// owned by the reconciliation service; everything else reads snapshots.
type StepsState struct {
	Steps       int        `json:"steps"`
	Source      StepSource `json:"source"`
	LastUpdated time.Time  `json:"last_updated"`
	Goal        int        `json:"goal"`

	CurrentStreak int `json:"current_streak"`
	// LastStreakDate is a DateLayout key, empty while no streak is active.
	LastStreakDate string `json:"last_streak_date,omitempty"`
	StreakGoal     int    `json:"streak_goal"`
}

func NewStepsState() *StepsState {
	return &StepsState{
		Source:     SourceCached,
		Goal:       DefaultGoal,
		StreakGoal: DefaultStreakGoal,
	}
}

func (s *StepsState) Validate() error {
	if s.Steps < 0 {
		return ErrNegativeSteps
	}
	if s.Goal < 0 || s.StreakGoal < 0 {
		return ErrNegativeGoal
	}
	if s.CurrentStreak < 0 {
		return errors.New("streak cannot be negative")
	}
	return nil
}

// DateKey reduces a timestamp to the calendar-day key used across the engine.
// Keys in DateLayout order lexicographically, which the streak calculator
// relies on.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfDay returns midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
