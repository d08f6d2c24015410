package model

import "time"

// Goal is a long-term objective the planner breaks into daily tasks.
type Goal struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index"`
	Title       string
	Description string
	Deadline    time.Time
	Progress    int `gorm:"default:0"` // 0..100
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tasks       []Task `gorm:"foreignKey:GoalID"`
}
