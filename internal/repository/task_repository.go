package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"goal-planner/internal/model"
)

// TaskRepository handles reads and writes for daily tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateBatch stores one day's generated tasks in a single transaction, so a
// persistence failure never leaves a partial batch behind.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, task := range tasks {
			if err := tx.Create(task).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create task batch: %w", err)
	}
	return nil
}

// ListByGoalSince returns tasks dated on or after `since`, newest first.
func (r *TaskRepository) ListByGoalSince(ctx context.Context, goalID uint, since time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("goal_id = ? AND date >= ?", goalID, since).
		Order("date DESC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByGoalOnDate returns the batch generated for one calendar day.
func (r *TaskRepository) ListByGoalOnDate(ctx context.Context, goalID uint, day time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("goal_id = ? AND date = ?", goalID, day).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, goalID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("goal_id = ? AND id = ?", goalID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUser resolves a task through its goal's owner, for surfaces that
// only know the user and the task id.
func (r *TaskRepository) FindByIDForUser(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Joins("JOIN goals ON goals.id = tasks.goal_id").
		Where("goals.user_id = ? AND tasks.id = ?", userID, taskID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// SetStatus overwrites the task status. No transition rules are enforced here.
func (r *TaskRepository) SetStatus(ctx context.Context, task *model.Task, status model.TaskStatus) error {
	task.Status = status
	if err := r.db.WithContext(ctx).Model(task).Update("status", status).Error; err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return nil
}
