package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"daily-tracker/internal/config"
	"daily-tracker/internal/logging"
)

// Job is a scheduled unit of work. It returns how many messages it sent.
type Job func(ctx context.Context) (int, error)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

func NewSchedulerService(loc *time.Location, timeout time.Duration, log *zap.Logger) *SchedulerService {
	return &SchedulerService{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		log:     log,
		timeout: timeout,
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
// Each run gets its own request id and a bounded context.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job Job) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, func() { s.run(name, job) })
}

func (s *SchedulerService) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	log := logging.With(ctx, s.log).With(zap.String("job", name))

	started := time.Now()
	sent, err := job(ctx)
	if err != nil {
		log.Error("scheduled job failed", zap.Int("sent", sent), zap.Error(err))
		return
	}
	log.Info("scheduled job finished", zap.Int("sent", sent), zap.Duration("took", time.Since(started)))
}

// Next reports when the entry runs next; zero if it is unknown.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := config.ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
