package model

import "time"

// TaskStatus is the lifecycle state of a daily task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusSkipped   TaskStatus = "SKIPPED"
)

// Task represents one daily task generated for a goal.
// Date is normalized to UTC midnight; time of day is never meaningful.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	GoalID      uint `gorm:"index:idx_goal_date"`
	Title       string
	Description string
	Date        time.Time  `gorm:"index:idx_goal_date"`
	Difficulty  int        `gorm:"default:2"` // 1..5
	Status      TaskStatus `gorm:"default:PENDING"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completed reports whether the task reached a COMPLETED status.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Missed reports whether the task is a carry-over candidate: still pending
// or explicitly skipped.
func (t Task) Missed() bool {
	return t.Status == StatusPending || t.Status == StatusSkipped
}
