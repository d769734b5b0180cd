package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"daily-tracker/internal/config"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 9 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "10:60", "aa:10", "10:00:00"} {
		_, err := buildDailySpec(bad)
		require.Error(t, err, bad)
		_, _, cfgErr := config.ParseClock(bad)
		assert.EqualError(t, err, cfgErr.Error(), "scheduler and config must agree on %q", bad)
	}
}

func TestScheduleDailyNextRunUsesLocation(t *testing.T) {
	loc := time.FixedZone("IRST", 3*3600+1800)
	s := NewSchedulerService(loc, time.Second, zap.NewNop())

	id, err := s.ScheduleDaily("nudge", "09:00", func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	next := s.Next(id).In(loc)
	require.False(t, next.IsZero())
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestRunLogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSchedulerService(time.UTC, time.Second, zap.New(core))

	s.run("wellness", func(ctx context.Context) (int, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return 3, nil
	})
	s.run("nudge", func(context.Context) (int, error) { return 1, errors.New("boom") })

	done := logs.FilterMessage("scheduled job finished").All()
	require.Len(t, done, 1)
	assert.Equal(t, "wellness", done[0].ContextMap()["job"])
	assert.Equal(t, int64(3), done[0].ContextMap()["sent"])

	failed := logs.FilterMessage("scheduled job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "nudge", failed[0].ContextMap()["job"])
	assert.NotEmpty(t, failed[0].ContextMap()["request.id"])
}
