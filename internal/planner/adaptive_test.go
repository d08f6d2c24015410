package planner

import (
	"math/rand"
	"testing"
	"time"

	"goal-planner/internal/model"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// taskOn builds a history task dated daysAgo days before testNow.
func taskOn(daysAgo int, status model.TaskStatus, difficulty int) model.Task {
	return model.Task{
		Title:      "history task",
		Date:       time.Date(2026, 3, 10-daysAgo, 0, 0, 0, 0, time.UTC),
		Difficulty: difficulty,
		Status:     status,
	}
}

func repeatTask(n, daysAgo int, status model.TaskStatus, difficulty int) []model.Task {
	tasks := make([]model.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, taskOn(daysAgo, status, difficulty))
	}
	return tasks
}

func TestComputeAdaptiveColdStart(t *testing.T) {
	plan := ComputeAdaptive(nil, testNow, 30)
	want := Plan{
		TaskCount:      3,
		Difficulty:     2,
		CarryOverRatio: 0,
		Strategy:       StrategyBalanced,
	}
	if plan != want {
		t.Errorf("cold start plan = %+v, want %+v", plan, want)
	}
}

func TestComputeAdaptiveProgressive(t *testing.T) {
	// Three completed difficulty-2 tasks yesterday, 10 days to deadline:
	// ratio 1.0, urgency x1.1, count = min(6, ceil(3*1.1)+1) = 5, difficulty 3.
	history := repeatTask(3, 1, model.StatusCompleted, 2)

	plan := ComputeAdaptive(history, testNow, 10)

	if plan.Strategy != StrategyProgressive {
		t.Fatalf("strategy = %s, want PROGRESSIVE", plan.Strategy)
	}
	if plan.TaskCount != 5 {
		t.Errorf("task count = %d, want 5", plan.TaskCount)
	}
	if plan.Difficulty != 3 {
		t.Errorf("difficulty = %d, want 3", plan.Difficulty)
	}
	if plan.CarryOverRatio != 0 {
		t.Errorf("carry-over = %v, want 0", plan.CarryOverRatio)
	}
	if plan.CompletionRatio != 1 {
		t.Errorf("completion ratio = %v, want 1", plan.CompletionRatio)
	}
}

func TestComputeAdaptiveProgressiveUrgencyTiers(t *testing.T) {
	history := repeatTask(3, 1, model.StatusCompleted, 2)

	tests := []struct {
		name      string
		deadline  int
		wantCount int
	}{
		// ceil(3*1.2)+1 = 5
		{"last week", 5, 5},
		// ceil(3*1.1)+1 = 5
		{"last month", 20, 5},
		// ceil(3*1.0)+1 = 4
		{"far out", 90, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ComputeAdaptive(history, testNow, tt.deadline)
			if plan.TaskCount != tt.wantCount {
				t.Errorf("task count = %d, want %d", plan.TaskCount, tt.wantCount)
			}
		})
	}
}

func TestComputeAdaptiveBalanced(t *testing.T) {
	// Yesterday: one of two completed. Ratio 0.5, avg difficulty 3.
	history := []model.Task{
		taskOn(1, model.StatusCompleted, 3),
		taskOn(1, model.StatusSkipped, 3),
	}

	plan := ComputeAdaptive(history, testNow, 30)

	if plan.Strategy != StrategyBalanced {
		t.Fatalf("strategy = %s, want BALANCED", plan.Strategy)
	}
	if plan.TaskCount != 2 {
		t.Errorf("task count = %d, want 2", plan.TaskCount)
	}
	if plan.Difficulty != 3 {
		t.Errorf("difficulty = %d, want 3", plan.Difficulty)
	}
	if plan.CarryOverRatio != 0.2 {
		t.Errorf("carry-over = %v, want 0.2", plan.CarryOverRatio)
	}
}

func TestComputeAdaptiveRecovery(t *testing.T) {
	// One of four completed yesterday: ratio 0.25.
	history := append(
		repeatTask(1, 1, model.StatusCompleted, 2),
		repeatTask(3, 1, model.StatusSkipped, 2)...,
	)

	plan := ComputeAdaptive(history, testNow, 30)

	if plan.Strategy != StrategyRecovery {
		t.Fatalf("strategy = %s, want RECOVERY", plan.Strategy)
	}
	if plan.TaskCount != 4 {
		t.Errorf("task count = %d, want 4", plan.TaskCount)
	}
	if plan.Difficulty != 1 {
		t.Errorf("difficulty = %d, want 1", plan.Difficulty)
	}
	if plan.CarryOverRatio != 0.5 {
		t.Errorf("carry-over = %v, want 0.5", plan.CarryOverRatio)
	}
}

func TestComputeAdaptiveReset(t *testing.T) {
	// Two days, two skipped tasks each: two fully-missed days, ratio 0.
	history := append(
		repeatTask(2, 1, model.StatusSkipped, 2),
		repeatTask(2, 2, model.StatusSkipped, 2)...,
	)

	plan := ComputeAdaptive(history, testNow, 30)

	if plan.Strategy != StrategyReset {
		t.Fatalf("strategy = %s, want RESET", plan.Strategy)
	}
	if plan.ConsecutiveMissedDays != 2 {
		t.Errorf("consecutive missed days = %d, want 2", plan.ConsecutiveMissedDays)
	}
	if plan.TaskCount != 1 {
		t.Errorf("task count = %d, want 1", plan.TaskCount)
	}
	if plan.Difficulty != 1 {
		t.Errorf("difficulty = %d, want 1", plan.Difficulty)
	}
	if plan.CarryOverRatio != 0.7 {
		t.Errorf("carry-over = %v, want 0.7", plan.CarryOverRatio)
	}
}

func TestComputeAdaptiveIntervention(t *testing.T) {
	// Three fully-missed days in a row.
	var history []model.Task
	for day := 1; day <= 3; day++ {
		history = append(history, repeatTask(2, day, model.StatusSkipped, 3)...)
	}

	plan := ComputeAdaptive(history, testNow, 30)

	if plan.Strategy != StrategyIntervention {
		t.Fatalf("strategy = %s, want INTERVENTION", plan.Strategy)
	}
	if plan.ConsecutiveMissedDays != 3 {
		t.Errorf("consecutive missed days = %d, want 3", plan.ConsecutiveMissedDays)
	}
	if plan.CarryOverRatio != 0.8 {
		t.Errorf("carry-over = %v, want 0.8", plan.CarryOverRatio)
	}
	if plan.Difficulty != 2 {
		t.Errorf("difficulty = %d, want 2", plan.Difficulty)
	}
	if plan.TaskCount != 1 {
		t.Errorf("task count = %d, want 1", plan.TaskCount)
	}
}

func TestInterventionBeatsHighCompletionRatio(t *testing.T) {
	// A heavy completed day at the edge of the window pushes the ratio to 0.8,
	// but the three most recent days are fully missed: intervention wins.
	history := repeatTask(12, 3, model.StatusCompleted, 2)
	for day := 0; day <= 2; day++ {
		history = append(history, taskOn(day, model.StatusSkipped, 2))
	}

	plan := ComputeAdaptive(history, testNow, 10)

	if plan.CompletionRatio < 0.8 {
		t.Fatalf("test setup broken: completion ratio = %v", plan.CompletionRatio)
	}
	if plan.Strategy != StrategyIntervention {
		t.Errorf("strategy = %s, want INTERVENTION", plan.Strategy)
	}
}

func TestMissedRunStopsAtFirstCompletion(t *testing.T) {
	history := []model.Task{
		taskOn(1, model.StatusSkipped, 2),
		taskOn(2, model.StatusCompleted, 2),
		taskOn(3, model.StatusSkipped, 2),
	}

	plan := ComputeAdaptive(history, testNow, 30)
	if plan.ConsecutiveMissedDays != 1 {
		t.Errorf("consecutive missed days = %d, want 1", plan.ConsecutiveMissedDays)
	}
}

func TestOldTasksExcludedFromWindow(t *testing.T) {
	// Completed tasks ten days ago must not rescue the ratio.
	history := repeatTask(5, 10, model.StatusCompleted, 4)
	history = append(history, taskOn(1, model.StatusSkipped, 2))

	plan := ComputeAdaptive(history, testNow, 30)

	if plan.CompletionRatio != 0 {
		t.Errorf("completion ratio = %v, want 0", plan.CompletionRatio)
	}
	if plan.Strategy != StrategyReset {
		t.Errorf("strategy = %s, want RESET", plan.Strategy)
	}
}

func TestComputeAdaptiveBoundsUnderRandomHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	statuses := []model.TaskStatus{model.StatusPending, model.StatusCompleted, model.StatusSkipped}

	for i := 0; i < 500; i++ {
		var history []model.Task
		for j := rng.Intn(20); j > 0; j-- {
			history = append(history, taskOn(
				rng.Intn(6),
				statuses[rng.Intn(len(statuses))],
				1+rng.Intn(5),
			))
		}
		deadline := rng.Intn(100) - 20

		plan := ComputeAdaptive(history, testNow, deadline)

		if plan.TaskCount < 1 || plan.TaskCount > 6 {
			t.Fatalf("task count %d out of [1,6] for history %+v", plan.TaskCount, history)
		}
		if plan.Difficulty < 1 || plan.Difficulty > 5 {
			t.Fatalf("difficulty %d out of [1,5]", plan.Difficulty)
		}
		if plan.CarryOverRatio < 0 || plan.CarryOverRatio > 1 {
			t.Fatalf("carry-over %v out of [0,1]", plan.CarryOverRatio)
		}
		if plan.ConsecutiveMissedDays < 0 {
			t.Fatalf("negative missed-day count")
		}
	}
}

func TestComputeAdaptiveToleratesPastDeadline(t *testing.T) {
	history := repeatTask(3, 1, model.StatusCompleted, 2)
	plan := ComputeAdaptive(history, testNow, -5)
	if plan.Strategy != StrategyProgressive {
		t.Errorf("strategy = %s, want PROGRESSIVE", plan.Strategy)
	}
	// Past deadline counts as maximum urgency: ceil(3*1.2)+1 = 5.
	if plan.TaskCount != 5 {
		t.Errorf("task count = %d, want 5", plan.TaskCount)
	}
}
