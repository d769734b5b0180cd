package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tracker/internal/model"
)

var (
	// ErrTaskNotFound is returned when a task ID does not exist for the user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrDayNotFound is returned when no tasks were ever saved for a day.
	ErrDayNotFound = errors.New("day entry not found")
	// ErrDayAlreadyCompleted is returned when the day was sealed before.
	ErrDayAlreadyCompleted = errors.New("day already completed")
)

// TaskRepository is the durable store of tasks and day entries.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ReplaceTasks swaps the whole task list of a day for labels. Labels are
// trimmed and blank ones dropped; the day entry is reopened with the new
// total. Readers see either the old list or the new one, never a mix.
func (r *TaskRepository) ReplaceTasks(ctx context.Context, userID int64, date string, labels []string) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		tasks = append(tasks, model.Task{UserID: userID, Date: date, Label: label})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upserting the entry first takes the row lock that serializes
		// writers of the same day.
		entry := model.DayEntry{UserID: userID, Date: date, Total: len(tasks)}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total":      len(tasks),
				"completed":  false,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&entry).Error; err != nil {
			return fmt.Errorf("upsert day entry: %w", err)
		}

		if err := tx.Where("user_id = ? AND date = ?", userID, date).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}

		if len(tasks) == 0 {
			return nil
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasks returns the tasks of a day in creation order.
func (r *TaskRepository) ListTasks(ctx context.Context, userID int64, date string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ToggleTask flips the done flag of one task owned by userID.
func (r *TaskRepository) ToggleTask(ctx context.Context, userID int64, taskID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND user_id = ?", taskID, userID).
			Update("done", gorm.Expr("NOT done"))
		if res.Error != nil {
			return fmt.Errorf("toggle task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTaskNotFound
		}
		if err := tx.First(&task, taskID).Error; err != nil {
			return fmt.Errorf("reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkAllDone sets every task of the day to done.
func (r *TaskRepository) MarkAllDone(ctx context.Context, userID int64, date string) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND date = ?", userID, date).
		Update("done", true).Error; err != nil {
		return fmt.Errorf("mark all done: %w", err)
	}
	return nil
}

// MarkDayCompleted seals the day. Only one caller can flip the flag; the
// others get ErrDayAlreadyCompleted. The flag is never cleared here; only
// ReplaceTasks reopens a day.
func (r *TaskRepository) MarkDayCompleted(ctx context.Context, userID int64, date string) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&model.DayEntry{}).
		Where("user_id = ? AND date = ? AND completed = ?", userID, date, false).
		Update("completed", true)
	if res.Error != nil {
		return fmt.Errorf("mark day completed: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var entries int64
	if err := db.Model(&model.DayEntry{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&entries).Error; err != nil {
		return fmt.Errorf("check day entry: %w", err)
	}
	if entries == 0 {
		return ErrDayNotFound
	}
	return ErrDayAlreadyCompleted
}

// CompleteDay seals the day and, when markAll is set, marks every task done
// in one transaction. Nothing changes when the day was already sealed.
func (r *TaskRepository) CompleteDay(ctx context.Context, userID int64, date string, markAll bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := &TaskRepository{db: tx}
		if err := scoped.MarkDayCompleted(ctx, userID, date); err != nil {
			return err
		}
		if markAll {
			return scoped.MarkAllDone(ctx, userID, date)
		}
		return nil
	})
}

type dayCounts struct {
	Date  string
	Total int
	Done  int
}

const countSelect = "date, COUNT(*) AS total, COALESCE(SUM(CASE WHEN done THEN 1 ELSE 0 END), 0) AS done"

// GetStatus counts the tasks of a day live and reads its completion flag.
func (r *TaskRepository) GetStatus(ctx context.Context, userID int64, date string) (model.DaySummary, error) {
	summary := model.DaySummary{Date: date}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entries []model.DayEntry
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("user_id = ? AND date = ?", userID, date).
			Limit(1).
			Find(&entries).Error; err != nil {
			return fmt.Errorf("read day entry: %w", err)
		}
		if len(entries) > 0 {
			summary.Completed = entries[0].Completed
		}

		var counts dayCounts
		if err := tx.Model(&model.Task{}).
			Select(countSelect).
			Where("user_id = ? AND date = ?", userID, date).
			Group("date").
			Scan(&counts).Error; err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		summary.Total = counts.Total
		summary.Done = counts.Done
		return nil
	})
	if err != nil {
		return model.DaySummary{}, err
	}
	return summary, nil
}

// HasTasks reports whether any task is stored for the day.
func (r *TaskRepository) HasTasks(ctx context.Context, userID int64, date string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count tasks: %w", err)
	}
	return count > 0, nil
}

// IsCompleted reports whether the day was sealed.
func (r *TaskRepository) IsCompleted(ctx context.Context, userID int64, date string) (bool, error) {
	var entries []model.DayEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Limit(1).
		Find(&entries).Error; err != nil {
		return false, fmt.Errorf("read day entry: %w", err)
	}
	return len(entries) > 0 && entries[0].Completed, nil
}

// RecentDays returns up to n days that have tasks, newest first. Canonical
// keys are fixed width, so ordering by the key is chronological.
func (r *TaskRepository) RecentDays(ctx context.Context, userID int64, n int) ([]model.DaySummary, error) {
	if n <= 0 {
		return []model.DaySummary{}, nil
	}

	var rows []dayCounts
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select(countSelect).
		Where("user_id = ?", userID).
		Group("date").
		Order("date DESC").
		Limit(n).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent days: %w", err)
	}

	days := make([]model.DaySummary, 0, len(rows))
	if len(rows) == 0 {
		return days, nil
	}

	dates := make([]string, 0, len(rows))
	for _, row := range rows {
		dates = append(dates, row.Date)
	}
	var entries []model.DayEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date IN ?", userID, dates).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("recent day entries: %w", err)
	}
	completed := make(map[string]bool, len(entries))
	for _, e := range entries {
		completed[e.Date] = e.Completed
	}

	for _, row := range rows {
		days = append(days, model.DaySummary{
			Date:      row.Date,
			Total:     row.Total,
			Done:      row.Done,
			Completed: completed[row.Date],
		})
	}
	return days, nil
}

// UserStats is the diagnostic snapshot shown by /debug.
type UserStats struct {
	TotalTasks  int64
	RecentTasks []model.Task
}

// Stats counts all tasks of a user and returns the latest ones.
func (r *TaskRepository) Stats(ctx context.Context, userID int64, recent int) (UserStats, error) {
	var stats UserStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Task{}).Where("user_id = ?", userID).Count(&stats.TotalTasks).Error; err != nil {
		return UserStats{}, fmt.Errorf("count user tasks: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Order("id DESC").Limit(recent).Find(&stats.RecentTasks).Error; err != nil {
		return UserStats{}, fmt.Errorf("recent user tasks: %w", err)
	}
	return stats, nil
}

// Ping checks that the database answers.
func (r *TaskRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
