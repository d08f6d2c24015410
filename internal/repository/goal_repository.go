package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goal-planner/internal/model"
)

// GoalRepository handles CRUD for goals.
type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) FindByID(ctx context.Context, userID, goalID uint) (*model.Goal, error) {
	var goal model.Goal
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, goalID).First(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID uint) ([]model.Goal, error) {
	var goals []model.Goal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("deadline ASC, created_at ASC").
		Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *GoalRepository) UpdateProgress(ctx context.Context, goal *model.Goal, progress int) error {
	goal.Progress = progress
	if err := r.db.WithContext(ctx).Model(goal).Update("progress", progress).Error; err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// Delete removes a goal together with its tasks.
func (r *GoalRepository) Delete(ctx context.Context, userID, goalID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goalID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id = ?", userID, goalID).Delete(&model.Goal{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
