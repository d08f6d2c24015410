package service

import (
	"context"
	"fmt"
	"time"

	"goal-planner/internal/model"
	"goal-planner/internal/repository"
	"goal-planner/internal/timeutil"
)

// GoalInput represents data required to create a goal.
type GoalInput struct {
	Title       string
	Description string
	Deadline    time.Time
}

// GoalService wraps goal-related business logic.
type GoalService struct {
	goalRepo *repository.GoalRepository
}

func NewGoalService(goalRepo *repository.GoalRepository) *GoalService {
	return &GoalService{goalRepo: goalRepo}
}

func (s *GoalService) CreateGoal(ctx context.Context, user *model.User, input GoalInput) (*model.Goal, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Deadline.IsZero() {
		return nil, fmt.Errorf("deadline is required")
	}

	goal := model.Goal{
		UserID:      user.ID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    timeutil.StartOfDay(input.Deadline),
	}

	if err := s.goalRepo.Create(ctx, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context, user *model.User) ([]model.Goal, error) {
	return s.goalRepo.ListByUser(ctx, user.ID)
}

func (s *GoalService) GetGoal(ctx context.Context, user *model.User, goalID uint) (*model.Goal, error) {
	return s.goalRepo.FindByID(ctx, user.ID, goalID)
}

// SetProgress clamps and stores the goal's completion percentage.
func (s *GoalService) SetProgress(ctx context.Context, user *model.User, goalID uint, progress int) (*model.Goal, error) {
	goal, err := s.goalRepo.FindByID(ctx, user.ID, goalID)
	if err != nil {
		return nil, err
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	if err := s.goalRepo.UpdateProgress(ctx, goal, progress); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes a goal and its generated tasks.
func (s *GoalService) DeleteGoal(ctx context.Context, user *model.User, goalID uint) error {
	if _, err := s.goalRepo.FindByID(ctx, user.ID, goalID); err != nil {
		return err
	}
	return s.goalRepo.Delete(ctx, user.ID, goalID)
}
