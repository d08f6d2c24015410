package planner

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"goal-planner/internal/generator"
	"goal-planner/internal/model"
	"goal-planner/internal/timeutil"
)

const (
	// historyContextLimit bounds how many prior tasks go into the generation
	// request for context.
	historyContextLimit = 10

	// missedContextLimit bounds how many missed tasks are offered for
	// adaptation.
	missedContextLimit = 5
)

// GoalContext is the read-only goal projection the composer needs.
type GoalContext struct {
	Title             string
	Description       string
	DaysUntilDeadline int
	Progress          int
}

// Composer turns a plan into concrete task content. Generator failures never
// propagate: the composer always returns exactly plan.TaskCount items, falling
// back to templates for any shortfall.
type Composer struct {
	gen     generator.ContentGenerator
	timeout time.Duration
}

// NewComposer builds a composer around the given content capability. A zero
// timeout keeps the generator's own bound.
func NewComposer(gen generator.ContentGenerator, timeout time.Duration) *Composer {
	return &Composer{gen: gen, timeout: timeout}
}

// Compose produces today's tasks for the plan. History and missed slices are
// expected newest-first; only the leading entries are sent upstream.
func (c *Composer) Compose(ctx context.Context, goal GoalContext, history, missed []model.Task, plan Plan) []generator.TaskItem {
	adaptedCount := int(math.Round(float64(plan.TaskCount) * plan.CarryOverRatio))

	req := generator.Request{
		GoalTitle:         goal.Title,
		GoalDescription:   goal.Description,
		DaysUntilDeadline: goal.DaysUntilDeadline,
		Progress:          goal.Progress,
		Strategy:          string(plan.Strategy),
		History:           historyEntries(history),
		Missed:            missedEntries(missed),
		Count:             plan.TaskCount,
		AdaptedCount:      adaptedCount,
		Difficulty:        plan.Difficulty,
	}

	items := c.generate(ctx, req)
	items = sanitize(items, plan)

	if len(items) < plan.TaskCount {
		fallback := FallbackTasks(plan.TaskCount, plan.Difficulty)
		items = append(items, fallback[len(items):]...)
	}
	return items
}

func (c *Composer) generate(ctx context.Context, req generator.Request) []generator.TaskItem {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	items, err := c.gen.Generate(ctx, req)
	if err != nil {
		log.Printf("[warn] content generator failed, using templates: %v", err)
		return nil
	}
	return items
}

// sanitize trims the generator output down to well-formed items: empty titles
// dropped, difficulties clamped (missing ones take the plan difficulty), at
// most plan.TaskCount entries kept.
func sanitize(items []generator.TaskItem, plan Plan) []generator.TaskItem {
	clean := make([]generator.TaskItem, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		difficulty := item.Difficulty
		if difficulty == 0 {
			difficulty = plan.Difficulty
		}
		clean = append(clean, generator.TaskItem{
			Title:       title,
			Description: strings.TrimSpace(item.Description),
			Difficulty:  clampInt(difficulty, minDifficulty, maxDifficulty),
		})
		if len(clean) == plan.TaskCount {
			break
		}
	}
	return clean
}

func historyEntries(history []model.Task) []generator.HistoryEntry {
	if len(history) > historyContextLimit {
		history = history[:historyContextLimit]
	}
	entries := make([]generator.HistoryEntry, 0, len(history))
	for _, t := range history {
		entries = append(entries, generator.HistoryEntry{
			Title:      t.Title,
			Status:     string(t.Status),
			Difficulty: t.Difficulty,
			Date:       timeutil.DayKey(t.Date),
		})
	}
	return entries
}

func missedEntries(missed []model.Task) []generator.MissedEntry {
	if len(missed) > missedContextLimit {
		missed = missed[:missedContextLimit]
	}
	entries := make([]generator.MissedEntry, 0, len(missed))
	for _, t := range missed {
		entries = append(entries, generator.MissedEntry{
			Title:       t.Title,
			Description: t.Description,
			Difficulty:  t.Difficulty,
		})
	}
	return entries
}
