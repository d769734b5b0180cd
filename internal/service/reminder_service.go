package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/model"
)

// TaskChecker answers whether a user logged tasks for a day.
type TaskChecker interface {
	HasTasks(ctx context.Context, userID int64, date string) (bool, error)
}

// ReminderService holds the two daily scheduled jobs.
type ReminderService struct {
	registry    *model.Registry
	tasks       TaskChecker
	notifier    *NotificationService
	wellnessURL string
	loc         *time.Location
	now         func() time.Time
	log         *zap.Logger
}

func NewReminderService(registry *model.Registry, tasks TaskChecker, notifier *NotificationService, wellnessURL string, loc *time.Location, log *zap.Logger) *ReminderService {
	return &ReminderService{
		registry:    registry,
		tasks:       tasks,
		notifier:    notifier,
		wellnessURL: wellnessURL,
		loc:         loc,
		now:         time.Now,
		log:         log,
	}
}

// WithClock overrides the time source.
func (s *ReminderService) WithClock(now func() time.Time) *ReminderService {
	s.now = now
	return s
}

// SendTaskNudges reminds every user who has not logged tasks for today.
// It returns the number of nudges delivered.
func (s *ReminderService) SendTaskNudges(ctx context.Context) (int, error) {
	today := jalali.FromTime(s.now().In(s.loc)).String()
	sent := 0
	for _, user := range s.registry.Users() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		has, err := s.tasks.HasTasks(ctx, user.ID, today)
		if err != nil {
			s.log.Error("check tasks for nudge", zap.Int64("user", user.ID), zap.String("date", today), zap.Error(err))
			continue
		}
		if has {
			continue
		}
		if err := s.notifier.SendTo(ctx, kindNudge, user, nudgeMessage(user)); err == nil {
			sent++
		}
	}
	s.log.Info("task nudges sent", zap.String("date", today), zap.Int("sent", sent))
	return sent, nil
}

// SendWellnessReminders sends the sleep logging reminder to every user.
func (s *ReminderService) SendWellnessReminders(ctx context.Context) (int, error) {
	sent := 0
	for _, user := range s.registry.Users() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := s.notifier.SendTo(ctx, kindWellness, user, wellnessMessage(user, s.wellnessURL)); err == nil {
			sent++
		}
	}
	s.log.Info("wellness reminders sent", zap.Int("sent", sent))
	return sent, nil
}
