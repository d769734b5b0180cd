package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/model"
	"daily-tracker/internal/observability"
	"daily-tracker/internal/repository"
)

var (
	// ErrEmptySubmission is returned when /tasks is sent without any text.
	ErrEmptySubmission = errors.New("no task text given")
	// ErrNoTasks is returned when the text holds a date but no task lines.
	ErrNoTasks = errors.New("no tasks given")
)

// TaskStore is the persistence the day workflow relies on.
type TaskStore interface {
	ReplaceTasks(ctx context.Context, userID int64, date string, labels []string) ([]model.Task, error)
	ListTasks(ctx context.Context, userID int64, date string) ([]model.Task, error)
	ToggleTask(ctx context.Context, userID int64, taskID uint) (*model.Task, error)
	CompleteDay(ctx context.Context, userID int64, date string, markAll bool) error
	GetStatus(ctx context.Context, userID int64, date string) (model.DaySummary, error)
	HasTasks(ctx context.Context, userID int64, date string) (bool, error)
	IsCompleted(ctx context.Context, userID int64, date string) (bool, error)
	RecentDays(ctx context.Context, userID int64, n int) ([]model.DaySummary, error)
}

// CompletionPolicy is the way a user chose to seal a day.
type CompletionPolicy int

const (
	PolicyCompleteWithAll CompletionPolicy = iota + 1
	PolicyCompleteDayOnly
)

// OutcomeKind tells the presentation layer what to show after an action.
type OutcomeKind int

const (
	// OutcomeRefresh re-renders the day.
	OutcomeRefresh OutcomeKind = iota
	// OutcomeChoosePolicy shows the completion choices.
	OutcomeChoosePolicy
	// OutcomeAlreadyCompleted acknowledges a sealed day without changes.
	OutcomeAlreadyCompleted
	// OutcomeCompleted re-renders the freshly sealed day and reports it.
	OutcomeCompleted
)

// Outcome is the result of a handled action.
type Outcome struct {
	Kind    OutcomeKind
	Date    jalali.Date
	Policy  CompletionPolicy
	Summary model.DaySummary
}

// DayView is everything needed to render one day.
type DayView struct {
	Date    jalali.Date
	Tasks   []model.Task
	Summary model.DaySummary
}

// Submission describes a successful /tasks call.
type Submission struct {
	Date     jalali.Date
	Explicit bool
	Tasks    []model.Task
	Notified int
}

// DayService runs the per-day workflow: task submission, toggles, and the
// completion policies.
type DayService struct {
	store    TaskStore
	notifier *NotificationService
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewDayService(store TaskStore, notifier *NotificationService, loc *time.Location, log *zap.Logger, metrics *observability.Metrics) *DayService {
	return &DayService{
		store:    store,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		log:      log,
		metrics:  metrics,
	}
}

// WithClock overrides the time source.
func (s *DayService) WithClock(now func() time.Time) *DayService {
	s.now = now
	return s
}

// Today is the current day in the configured zone.
func (s *DayService) Today() jalali.Date {
	return jalali.FromTime(s.now().In(s.loc))
}

// SubmitTasks replaces the task list of the day named in text (today when no
// date token is present) with one task per non-blank line.
func (s *DayService) SubmitTasks(ctx context.Context, user model.User, text string) (Submission, error) {
	if strings.TrimSpace(text) == "" {
		return Submission{}, ErrEmptySubmission
	}

	res := jalali.Resolve(text)
	date := res.DateOr(s.Today())

	var labels []string
	for _, line := range strings.Split(res.Remaining, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			labels = append(labels, line)
		}
	}
	if len(labels) == 0 {
		return Submission{}, ErrNoTasks
	}

	log := logging.With(ctx, s.log).With(zap.Int64("user", user.ID), zap.String("date", date.String()))
	tasks, err := s.store.ReplaceTasks(ctx, user.ID, date.String(), labels)
	if err != nil {
		s.metrics.ObserveStorageError("replace_tasks")
		return Submission{}, fmt.Errorf("replace tasks for %d on %s: %w", user.ID, date, err)
	}
	s.metrics.TasksSaved.Add(float64(len(tasks)))
	log.Info("tasks saved", zap.Int("count", len(tasks)), zap.Bool("explicit_date", res.Kind == jalali.DateFound))

	notified := s.notifier.Broadcast(ctx, kindTaskEntry, user, taskEntryMessage(date, len(tasks)))

	return Submission{
		Date:     date,
		Explicit: res.Kind == jalali.DateFound,
		Tasks:    tasks,
		Notified: notified,
	}, nil
}

// View loads the tasks and live status of one day.
func (s *DayService) View(ctx context.Context, userID int64, date jalali.Date) (DayView, error) {
	key := date.String()
	tasks, err := s.store.ListTasks(ctx, userID, key)
	if err != nil {
		s.metrics.ObserveStorageError("list_tasks")
		return DayView{}, fmt.Errorf("list tasks for %d on %s: %w", userID, key, err)
	}
	summary, err := s.store.GetStatus(ctx, userID, key)
	if err != nil {
		s.metrics.ObserveStorageError("get_status")
		return DayView{}, fmt.Errorf("status for %d on %s: %w", userID, key, err)
	}
	return DayView{Date: date, Tasks: tasks, Summary: summary}, nil
}

// History returns up to n of the most recent days with tasks, newest first.
func (s *DayService) History(ctx context.Context, userID int64, n int) ([]model.DaySummary, error) {
	days, err := s.store.RecentDays(ctx, userID, n)
	if err != nil {
		s.metrics.ObserveStorageError("recent_days")
		return nil, fmt.Errorf("recent days for %d: %w", userID, err)
	}
	return days, nil
}

// Handle applies a decoded button press for user.
func (s *DayService) Handle(ctx context.Context, user model.User, action Action) (Outcome, error) {
	out, err := s.handle(ctx, user, action)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.ObserveAction(action.Name(), result)
	return out, err
}

func (s *DayService) handle(ctx context.Context, user model.User, action Action) (Outcome, error) {
	date := action.Day()
	switch a := action.(type) {
	case ToggleAction:
		// Toggling stays possible after the day is sealed; the flag is
		// left alone.
		task, err := s.store.ToggleTask(ctx, user.ID, a.TaskID)
		if err != nil {
			s.metrics.ObserveStorageError("toggle_task")
			return Outcome{}, fmt.Errorf("toggle task %d for %d: %w", a.TaskID, user.ID, err)
		}
		logging.With(ctx, s.log).Debug("task toggled",
			zap.Int64("user", user.ID), zap.Uint("task", task.ID), zap.Bool("done", task.Done))
		return Outcome{Kind: OutcomeRefresh, Date: date}, nil
	case ConfirmCompleteAction:
		completed, err := s.isCompleted(ctx, user.ID, date)
		if err != nil {
			return Outcome{}, err
		}
		if completed {
			return Outcome{Kind: OutcomeAlreadyCompleted, Date: date}, nil
		}
		return Outcome{Kind: OutcomeChoosePolicy, Date: date}, nil
	case CancelCompleteAction:
		return Outcome{Kind: OutcomeRefresh, Date: date}, nil
	case CompleteWithAllAction:
		return s.complete(ctx, user, date, PolicyCompleteWithAll)
	case CompleteDayOnlyAction:
		return s.complete(ctx, user, date, PolicyCompleteDayOnly)
	case CompletedAction:
		return Outcome{Kind: OutcomeAlreadyCompleted, Date: date}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported action %T", ErrMalformedAction, action)
	}
}

func (s *DayService) complete(ctx context.Context, user model.User, date jalali.Date, policy CompletionPolicy) (Outcome, error) {
	completed, err := s.isCompleted(ctx, user.ID, date)
	if err != nil {
		return Outcome{}, err
	}
	if completed {
		return Outcome{Kind: OutcomeAlreadyCompleted, Date: date}, nil
	}

	key := date.String()
	err = s.store.CompleteDay(ctx, user.ID, key, policy == PolicyCompleteWithAll)
	if errors.Is(err, repository.ErrDayAlreadyCompleted) {
		// Lost a race with another press on the same day.
		return Outcome{Kind: OutcomeAlreadyCompleted, Date: date}, nil
	}
	if err != nil {
		s.metrics.ObserveStorageError("complete_day")
		return Outcome{}, fmt.Errorf("complete day %s for %d: %w", key, user.ID, err)
	}
	summary, err := s.store.GetStatus(ctx, user.ID, key)
	if err != nil {
		s.metrics.ObserveStorageError("get_status")
		return Outcome{}, fmt.Errorf("status for %d on %s: %w", user.ID, key, err)
	}

	logging.With(ctx, s.log).Info("day completed",
		zap.Int64("user", user.ID),
		zap.String("date", key),
		zap.Bool("mark_all", policy == PolicyCompleteWithAll),
		zap.Int("done", summary.Done),
		zap.Int("total", summary.Total),
	)

	kind := kindCompleteOnly
	if policy == PolicyCompleteWithAll {
		kind = kindCompleteAll
	}
	s.notifier.Broadcast(ctx, kind, user, completionMessage(policy, date, summary))

	return Outcome{Kind: OutcomeCompleted, Date: date, Policy: policy, Summary: summary}, nil
}

func (s *DayService) isCompleted(ctx context.Context, userID int64, date jalali.Date) (bool, error) {
	completed, err := s.store.IsCompleted(ctx, userID, date.String())
	if err != nil {
		s.metrics.ObserveStorageError("is_completed")
		return false, fmt.Errorf("completion flag for %d on %s: %w", userID, date, err)
	}
	return completed, nil
}
