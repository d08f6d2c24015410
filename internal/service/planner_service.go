package service

import (
	"context"
	"log"
	"sync"
	"time"

	"goal-planner/internal/model"
	"goal-planner/internal/planner"
	"goal-planner/internal/repository"
	"goal-planner/internal/timeutil"
)

// historyFetchDays bounds how far back generation pulls history. It covers the
// calculator's 3-day window plus enough older entries for generator context.
const historyFetchDays = 14

// PlannerService owns the daily generation flow: history in, plan out,
// composed tasks persisted. Generation is idempotent per goal and calendar
// day; a second request on the same day returns the stored batch.
type PlannerService struct {
	goalRepo *repository.GoalRepository
	taskRepo *repository.TaskRepository
	composer *planner.Composer
	mode     planner.Mode

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewPlannerService(goalRepo *repository.GoalRepository, taskRepo *repository.TaskRepository, composer *planner.Composer, mode planner.Mode) *PlannerService {
	return &PlannerService{
		goalRepo: goalRepo,
		taskRepo: taskRepo,
		composer: composer,
		mode:     mode,
		locks:    make(map[uint]*sync.Mutex),
	}
}

// goalLock returns the per-goal mutex guarding the check-then-create sequence,
// so concurrent requests cannot produce two batches for the same day.
func (s *PlannerService) goalLock(goalID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[goalID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[goalID] = lock
	}
	return lock
}

// GenerateDailyTasks produces (or returns) today's batch for the goal.
// A missing goal surfaces as gorm.ErrRecordNotFound; generator trouble never
// surfaces at all.
func (s *PlannerService) GenerateDailyTasks(ctx context.Context, user *model.User, goalID uint, now time.Time) ([]model.Task, error) {
	goal, err := s.goalRepo.FindByID(ctx, user.ID, goalID)
	if err != nil {
		return nil, err
	}

	lock := s.goalLock(goal.ID)
	lock.Lock()
	defer lock.Unlock()

	today := timeutil.StartOfDay(now)

	existing, err := s.taskRepo.ListByGoalOnDate(ctx, goal.ID, today)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	history, err := s.taskRepo.ListByGoalSince(ctx, goal.ID, timeutil.DaysAgo(now, historyFetchDays))
	if err != nil {
		return nil, err
	}

	daysLeft := timeutil.DaysBetween(now, goal.Deadline)
	plan := planner.Compute(s.mode, history, now, daysLeft)
	log.Printf("[info] goal %d plan: strategy=%s count=%d difficulty=%d carryOver=%.2f ratio=%.2f missedDays=%d",
		goal.ID, plan.Strategy, plan.TaskCount, plan.Difficulty, plan.CarryOverRatio,
		plan.CompletionRatio, plan.ConsecutiveMissedDays)

	var missed []model.Task
	for _, t := range history {
		if t.Missed() && t.Date.Before(today) {
			missed = append(missed, t)
		}
	}

	items := s.composer.Compose(ctx, planner.GoalContext{
		Title:             goal.Title,
		Description:       goal.Description,
		DaysUntilDeadline: daysLeft,
		Progress:          goal.Progress,
	}, history, missed, plan)

	batch := make([]*model.Task, 0, len(items))
	for _, item := range items {
		batch = append(batch, &model.Task{
			GoalID:      goal.ID,
			Title:       item.Title,
			Description: item.Description,
			Date:        today,
			Difficulty:  item.Difficulty,
			Status:      model.StatusPending,
		})
	}
	if err := s.taskRepo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(batch))
	for _, t := range batch {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// TodayTasks returns the already-generated batch for the goal's current day,
// without triggering generation.
func (s *PlannerService) TodayTasks(ctx context.Context, user *model.User, goalID uint, now time.Time) ([]model.Task, error) {
	goal, err := s.goalRepo.FindByID(ctx, user.ID, goalID)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.ListByGoalOnDate(ctx, goal.ID, timeutil.StartOfDay(now))
}

// SetStatus overwrites a task's status. The update is an unconstrained
// overwrite; re-setting the same value is a no-op.
func (s *PlannerService) SetStatus(ctx context.Context, user *model.User, taskID uint, status model.TaskStatus) (*model.Task, error) {
	task, err := s.taskRepo.FindByIDForUser(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}
	if err := s.taskRepo.SetStatus(ctx, task, status); err != nil {
		return nil, err
	}
	return task, nil
}
