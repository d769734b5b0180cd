package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daily-tracker/internal/bot"
	"daily-tracker/internal/config"
	"daily-tracker/internal/httpapi"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/observability"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

const jobTimeout = 2 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("daily tracker: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	registry := cfg.Registry()
	metrics := observability.NewMetrics("daily_tracker")
	taskRepo := repository.NewTaskRepository(db)

	api, err := bot.Connect(cfg.TelegramToken, logger)
	if err != nil {
		return err
	}

	notifier := service.NewNotificationService(registry, bot.NewSender(api), logger.Named("notify"), metrics)
	days := service.NewDayService(taskRepo, notifier, cfg.Location, logger.Named("day"), metrics)
	reminders := service.NewReminderService(registry, taskRepo, notifier, cfg.WellnessURL, cfg.Location, logger.Named("reminder"))

	telegramBot := bot.New(api, registry, days, taskRepo, bot.Options{
		Workers:      cfg.Workers,
		NudgeTime:    cfg.NudgeTime,
		WellnessTime: cfg.WellnessTime,
	}, logger.Named("bot"), metrics)

	scheduler := service.NewSchedulerService(cfg.Location, jobTimeout, logger.Named("scheduler"))
	if _, err := scheduler.ScheduleDaily("task_nudge", cfg.NudgeTime, reminders.SendTaskNudges); err != nil {
		return fmt.Errorf("schedule task nudge: %w", err)
	}
	if _, err := scheduler.ScheduleDaily("wellness", cfg.WellnessTime, reminders.SendWellnessReminders); err != nil {
		return fmt.Errorf("schedule wellness reminder: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("daily tracker started",
		zap.Int("users", registry.Len()),
		zap.String("timezone", cfg.Location.String()),
		zap.String("nudge_time", cfg.NudgeTime),
		zap.String("wellness_time", cfg.WellnessTime),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegramBot.Start(gctx)
	})
	if cfg.MetricsAddr != "" {
		ops := httpapi.New(taskRepo, metrics, logger.Named("ops"))
		g.Go(func() error {
			return ops.ListenAndServe(gctx, cfg.MetricsAddr)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
