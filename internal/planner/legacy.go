package planner

import (
	"math"
	"time"

	"goal-planner/internal/model"
	"goal-planner/internal/timeutil"
)

// Legacy calculator bounds differ from the adaptive ones; kept as-is for
// compatibility with goals planned before the five-strategy model.
const (
	legacyMinTaskCount = 2
	legacyMaxTaskCount = 8
)

// ComputeLegacy is the first-generation calculator. It inspects only the
// single most recent day of history and knows nothing about carry-overs or
// interventions. Retained behind ModeLegacy; ComputeAdaptive is the primary.
func ComputeLegacy(recent []model.Task, now time.Time, daysUntilDeadline int) Plan {
	day := mostRecentDay(recent)
	if len(day) == 0 {
		return Plan{
			TaskCount:  defaultTaskCount,
			Difficulty: minDifficulty,
			Strategy:   StrategyLegacy,
		}
	}

	completed := 0
	completedDifficulty := 0.0
	for _, t := range day {
		if t.Completed() {
			completed++
			completedDifficulty += float64(t.Difficulty)
		}
	}
	rate := float64(completed) / float64(len(day))
	avgCompleted := 0.0
	if completed > 0 {
		avgCompleted = completedDifficulty / float64(completed)
	}

	count := len(day)
	var difficulty int
	switch {
	case rate == 1:
		count++
		difficulty = min(day[0].Difficulty+1, maxDifficulty)
	case rate >= 0.7:
		difficulty = min(int(math.Round(avgCompleted+0.5)), maxDifficulty)
	default:
		difficulty = max(int(math.Round(avgCompleted)), minDifficulty)
	}

	// Deadline pressure: one extra, slightly harder task during the last week.
	if daysUntilDeadline > 0 && daysUntilDeadline <= 7 {
		count = min(count+1, legacyMaxTaskCount)
		difficulty = min(difficulty+1, maxDifficulty)
	}

	return Plan{
		TaskCount:       clampInt(count, legacyMinTaskCount, legacyMaxTaskCount),
		Difficulty:      clampInt(difficulty, minDifficulty, maxDifficulty),
		CarryOverRatio:  0,
		Strategy:        StrategyLegacy,
		CompletionRatio: rate,
	}
}

// mostRecentDay returns the tasks belonging to the latest calendar day present
// in recent, the newest task first.
func mostRecentDay(recent []model.Task) []model.Task {
	var latest time.Time
	for _, t := range recent {
		d := timeutil.StartOfDay(t.Date)
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return nil
	}

	var day []model.Task
	for _, t := range recent {
		if timeutil.SameDay(t.Date, latest) {
			day = append(day, t)
		}
	}
	return day
}
