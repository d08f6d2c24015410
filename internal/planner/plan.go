// Package planner derives how many tasks a goal gets today, at what
// difficulty, and what share should be simplified carry-overs of missed work.
// Everything in this package is pure: same history in, same plan out.
package planner

import (
	"time"

	"goal-planner/internal/model"
)

// Strategy labels the planner's read of recent completion behavior.
type Strategy string

const (
	StrategyProgressive  Strategy = "PROGRESSIVE"
	StrategyBalanced     Strategy = "BALANCED"
	StrategyRecovery     Strategy = "RECOVERY"
	StrategyReset        Strategy = "RESET"
	StrategyIntervention Strategy = "INTERVENTION"

	// StrategyLegacy marks plans produced by the legacy calculator, which
	// predates the five-strategy model.
	StrategyLegacy Strategy = "LEGACY"
)

// Mode selects which generation of the calculator runs.
type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeLegacy   Mode = "legacy"
)

const (
	defaultTaskCount  = 3
	defaultDifficulty = 2
	minTaskCount      = 1
	maxTaskCount      = 6
	minDifficulty     = 1
	maxDifficulty     = 5

	// recentWindowDays bounds how far back the adaptive calculator looks.
	recentWindowDays = 3
)

// Plan is the engine output for one generation request. It is never persisted.
type Plan struct {
	TaskCount  int
	Difficulty int
	// CarryOverRatio is the fraction of today's tasks that should be
	// simplified versions of previously missed ones. Always within [0,1].
	CarryOverRatio float64
	Strategy       Strategy

	// Diagnostics, exposed for logging and tests.
	CompletionRatio       float64
	ConsecutiveMissedDays int
}

// Compute dispatches to the calculator selected by mode.
func Compute(mode Mode, recent []model.Task, now time.Time, daysUntilDeadline int) Plan {
	if mode == ModeLegacy {
		return ComputeLegacy(recent, now, daysUntilDeadline)
	}
	return ComputeAdaptive(recent, now, daysUntilDeadline)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
