package planner

import (
	"math"
	"sort"
	"time"

	"goal-planner/internal/model"
	"goal-planner/internal/timeutil"
)

// ComputeAdaptive derives today's plan from the last three calendar days of
// history. Strategy priority, first match wins:
//
//	INTERVENTION  three or more fully-missed days in a row
//	PROGRESSIVE   completion ratio >= 0.8
//	BALANCED      completion ratio >= 0.5
//	RECOVERY      completion ratio >= 0.2
//	RESET         everything else
//
// The function is total: empty history, past deadlines and degenerate windows
// all produce a valid clamped plan.
func ComputeAdaptive(recent []model.Task, now time.Time, daysUntilDeadline int) Plan {
	if len(recent) == 0 {
		return Plan{
			TaskCount:      defaultTaskCount,
			Difficulty:     defaultDifficulty,
			CarryOverRatio: 0,
			Strategy:       StrategyBalanced,
		}
	}

	cutoff := timeutil.DaysAgo(now, recentWindowDays)
	var window []model.Task
	for _, t := range recent {
		if !timeutil.StartOfDay(t.Date).Before(cutoff) {
			window = append(window, t)
		}
	}

	completionRatio := 0.0
	if len(window) > 0 {
		completed := 0
		for _, t := range window {
			if t.Completed() {
				completed++
			}
		}
		completionRatio = float64(completed) / float64(len(window))
	}

	missedRun := consecutiveMissedDays(window)

	avgDifficulty := 0.0
	for _, t := range window {
		avgDifficulty += float64(t.Difficulty)
	}
	if len(window) > 0 {
		avgDifficulty /= float64(len(window))
	}

	avgTaskCount := float64(defaultTaskCount)
	if days := distinctDays(window); days > 0 {
		avgTaskCount = float64(len(window)) / float64(days)
	}

	plan := Plan{
		CompletionRatio:       completionRatio,
		ConsecutiveMissedDays: missedRun,
	}

	switch {
	case missedRun >= 3:
		plan.Strategy = StrategyIntervention
		plan.Difficulty = int(math.Floor(avgDifficulty)) - 1
		plan.TaskCount = int(math.Floor(avgTaskCount)) - 1
		plan.CarryOverRatio = 0.8
	case completionRatio >= 0.8:
		multiplier := 1.0
		switch {
		case daysUntilDeadline <= 7:
			multiplier = 1.2
		case daysUntilDeadline <= 30:
			multiplier = 1.1
		}
		plan.Strategy = StrategyProgressive
		plan.Difficulty = int(math.Ceil(avgDifficulty)) + 1
		plan.TaskCount = int(math.Ceil(avgTaskCount*multiplier)) + 1
		plan.CarryOverRatio = 0
	case completionRatio >= 0.5:
		plan.Strategy = StrategyBalanced
		plan.Difficulty = int(math.Round(avgDifficulty))
		plan.TaskCount = int(math.Round(avgTaskCount))
		plan.CarryOverRatio = 0.2
	case completionRatio >= 0.2:
		plan.Strategy = StrategyRecovery
		plan.Difficulty = int(math.Floor(avgDifficulty)) - 1
		plan.TaskCount = int(math.Floor(avgTaskCount))
		plan.CarryOverRatio = 0.5
	default:
		plan.Strategy = StrategyReset
		plan.Difficulty = int(math.Floor(avgDifficulty)) - 1
		plan.TaskCount = int(math.Floor(avgTaskCount)) - 1
		plan.CarryOverRatio = 0.7
	}

	plan.TaskCount = clampInt(plan.TaskCount, minTaskCount, maxTaskCount)
	plan.Difficulty = clampInt(plan.Difficulty, minDifficulty, maxDifficulty)
	plan.CarryOverRatio = clampFloat(plan.CarryOverRatio, 0, 1)
	return plan
}

// consecutiveMissedDays counts the run of fully-missed days starting from the
// most recent day in the window. A day is fully missed when none of its tasks
// completed; the run stops at the first day containing any completion.
func consecutiveMissedDays(window []model.Task) int {
	byDay := make(map[string]bool) // day key -> any completion
	for _, t := range window {
		key := timeutil.DayKey(t.Date)
		if t.Completed() {
			byDay[key] = true
		} else if _, ok := byDay[key]; !ok {
			byDay[key] = false
		}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	run := 0
	for _, k := range keys {
		if byDay[k] {
			break
		}
		run++
	}
	return run
}

func distinctDays(window []model.Task) int {
	days := make(map[string]struct{})
	for _, t := range window {
		days[timeutil.DayKey(t.Date)] = struct{}{}
	}
	return len(days)
}
