package model

import "time"

// Task is one line of a user's plan for a single day.
type Task struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;index:idx_task_user_date,priority:1"`
	Date      string `gorm:"size:10;not null;index:idx_task_user_date,priority:2"`
	Label     string `gorm:"not null"`
	Done      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}
