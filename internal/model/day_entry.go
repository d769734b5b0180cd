package model

import "time"

// DayEntry tracks the size of the last saved batch for a day and whether the
// user sealed the day.
type DayEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_day_entry_user_date,priority:1"`
	Date      string `gorm:"size:10;not null;uniqueIndex:idx_day_entry_user_date,priority:2"`
	Total     int    `gorm:"not null"`
	Completed bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DaySummary aggregates the tasks of one day.
type DaySummary struct {
	Date      string
	Total     int
	Done      int
	Completed bool
}
