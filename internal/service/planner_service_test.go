package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"goal-planner/internal/generator"
	"goal-planner/internal/model"
	"goal-planner/internal/planner"
	"goal-planner/internal/repository"
	"goal-planner/internal/timeutil"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Goal{}, &model.Task{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	user     *model.User
	goal     *model.Goal
	svc      *PlannerService
	taskRepo *repository.TaskRepository
}

func newFixture(t *testing.T, mode planner.Mode) *fixture {
	t.Helper()
	db := newTestDB(t)

	user := &model.User{TelegramID: 1001, FirstName: "Test"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	goal := &model.Goal{
		UserID:   user.ID,
		Title:    "Learn Go",
		Deadline: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		Progress: 10,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("seed goal: %v", err)
	}

	goalRepo := repository.NewGoalRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	composer := planner.NewComposer(generator.Disabled{}, 0)

	return &fixture{
		db:       db,
		user:     user,
		goal:     goal,
		svc:      NewPlannerService(goalRepo, taskRepo, composer, mode),
		taskRepo: taskRepo,
	}
}

func TestGenerateDailyTasksColdStart(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	tasks, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3 (cold start)", len(tasks))
	}
	today := timeutil.StartOfDay(testNow)
	for _, task := range tasks {
		if task.Status != model.StatusPending {
			t.Errorf("status = %s, want PENDING", task.Status)
		}
		if task.Difficulty != 2 {
			t.Errorf("difficulty = %d, want 2", task.Difficulty)
		}
		if !task.Date.Equal(today) {
			t.Errorf("date = %v, want %v", task.Date, today)
		}
		if task.ID == 0 {
			t.Error("task not persisted")
		}
	}
}

func TestGenerateDailyTasksIdempotent(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	first, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	second, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second generation: %v", err)
	}

	if len(second) != len(first) {
		t.Fatalf("second call returned %d tasks, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("task %d: id %d != %d, batch not reused", i, first[i].ID, second[i].ID)
		}
	}

	var count int64
	if err := f.db.Model(&model.Task{}).Where("goal_id = ?", f.goal.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if count != int64(len(first)) {
		t.Errorf("stored tasks = %d, want %d (no duplicates)", count, len(first))
	}
}

func TestGenerateDailyTasksUnknownGoal(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)

	_, err := f.svc.GenerateDailyTasks(context.Background(), f.user, 9999, testNow)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestGenerateDailyTasksLegacyColdStart(t *testing.T) {
	f := newFixture(t, planner.ModeLegacy)

	tasks, err := f.svc.GenerateDailyTasks(context.Background(), f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	for _, task := range tasks {
		if task.Difficulty != 1 {
			t.Errorf("difficulty = %d, want 1 (legacy cold start)", task.Difficulty)
		}
	}
}

func TestGenerationReactsToCompletedHistory(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	yesterday := timeutil.DaysAgo(testNow, 1)
	for i := 0; i < 3; i++ {
		task := &model.Task{
			GoalID:     f.goal.ID,
			Title:      fmt.Sprintf("Old task %d", i+1),
			Date:       yesterday,
			Difficulty: 2,
			Status:     model.StatusCompleted,
		}
		if err := f.db.Create(task).Error; err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	// Deadline 2026-04-10 is 31 days out: progressive, no urgency multiplier,
	// count = ceil(3)+1 = 4, difficulty = ceil(2)+1 = 3.
	tasks, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}
	if len(tasks) != 4 {
		t.Errorf("got %d tasks, want 4 (progressive)", len(tasks))
	}
	for _, task := range tasks {
		if task.Difficulty != 3 {
			t.Errorf("difficulty = %d, want 3", task.Difficulty)
		}
	}
}

func TestSetStatusOverwrites(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	tasks, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}

	task, err := f.svc.SetStatus(ctx, f.user, tasks[0].ID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if task.Status != model.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", task.Status)
	}

	// Overwrite is unconstrained: terminal states can be re-set.
	task, err = f.svc.SetStatus(ctx, f.user, tasks[0].ID, model.StatusSkipped)
	if err != nil {
		t.Fatalf("SetStatus overwrite: %v", err)
	}
	if task.Status != model.StatusSkipped {
		t.Errorf("status = %s, want SKIPPED", task.Status)
	}

	// Idempotent re-set of the same value.
	if _, err := f.svc.SetStatus(ctx, f.user, tasks[0].ID, model.StatusSkipped); err != nil {
		t.Fatalf("SetStatus same value: %v", err)
	}
}

func TestSetStatusForeignTask(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	tasks, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow)
	if err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}

	stranger := &model.User{TelegramID: 2002}
	if err := f.db.Create(stranger).Error; err != nil {
		t.Fatalf("seed stranger: %v", err)
	}

	if _, err := f.svc.SetStatus(ctx, stranger, tasks[0].ID, model.StatusCompleted); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestDailySummaryMentionsGoalAndTasks(t *testing.T) {
	f := newFixture(t, planner.ModeAdaptive)
	ctx := context.Background()

	if _, err := f.svc.GenerateDailyTasks(ctx, f.user, f.goal.ID, testNow); err != nil {
		t.Fatalf("GenerateDailyTasks: %v", err)
	}

	reports := NewReportService(repository.NewGoalRepository(f.db), f.taskRepo)
	summary, err := reports.DailySummary(ctx, *f.user, testNow)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	if !strings.Contains(summary, "Learn Go") {
		t.Errorf("summary missing goal title:\n%s", summary)
	}
	if !strings.Contains(summary, "Выполнено: 0 из 3") {
		t.Errorf("summary missing task tally:\n%s", summary)
	}
}
