package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"daily-tracker/internal/model"
	"daily-tracker/internal/observability"
	"daily-tracker/internal/repository"
)

var (
	ali  = model.User{ID: 11, Name: "Ali"}
	sara = model.User{ID: 22, Name: "Sara"}
	reza = model.User{ID: 33, Name: "Reza"}
	mina = model.User{ID: 44, Name: "Mina"}
)

// 2024-07-31 is 1403-05-10.
var fixedNow = time.Date(2024, time.July, 31, 12, 0, 0, 0, time.UTC)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu     sync.Mutex
	fail   map[int64]bool
	sent   []sentMessage
	called int
}

func newFakeSender(failing ...int64) *fakeSender {
	f := &fakeSender{fail: map[int64]bool{}}
	for _, id := range failing {
		f.fail[id] = true
	}
	return f
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	if f.fail[chatID] {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeSender) recipients() []int64 {
	var ids []int64
	for _, m := range f.messages() {
		ids = append(ids, m.ChatID)
	}
	return ids
}

func newTestStore(t *testing.T) *repository.TaskRepository {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "service.db"), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewTaskRepository(db)
}

type dayFixture struct {
	store    *repository.TaskRepository
	sender   *fakeSender
	metrics  *observability.Metrics
	registry *model.Registry
	svc      *DayService
}

func newDayFixture(t *testing.T, users ...model.User) *dayFixture {
	t.Helper()
	if len(users) == 0 {
		users = []model.User{ali, sara}
	}
	f := &dayFixture{
		store:    newTestStore(t),
		sender:   newFakeSender(),
		metrics:  observability.NewMetrics("test"),
		registry: model.NewRegistry(users),
	}
	notifier := NewNotificationService(f.registry, f.sender, zap.NewNop(), f.metrics)
	f.svc = NewDayService(f.store, notifier, time.UTC, zap.NewNop(), f.metrics).
		WithClock(func() time.Time { return fixedNow })
	return f
}
