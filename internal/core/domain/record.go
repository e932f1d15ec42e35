package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidRecord = errors.New("invalid historical record data")
)

// HistoricalRecord is the per-date snapshot written once per successful step
// update. At most one record exists per date; rewrites overwrite in place.
type HistoricalRecord struct {
	Date           string `json:"date"`
	Steps          int    `json:"steps"`
	Goal           int    `json:"goal"`
	StreakAchieved bool   `json:"streak_achieved"`
}

func NewHistoricalRecord(date string, steps, goal, streakGoal int) *HistoricalRecord {
	return &HistoricalRecord{
		Date:           date,
		Steps:          steps,
		Goal:           goal,
		StreakAchieved: steps >= streakGoal,
	}
}

func (r *HistoricalRecord) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return ErrInvalidRecord
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidRecord
	}
	if r.Steps < 0 {
		return ErrNegativeSteps
	}
	if r.Goal < 0 {
		return ErrNegativeGoal
	}
	return nil
}
