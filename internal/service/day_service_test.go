package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
)

var today = jalali.Date{Year: 1403, Month: 5, Day: 10}

func TestSubmitTasksDefaultsToToday(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitTasks(ctx, ali, "run\n\n  read  \n")
	require.NoError(t, err)
	assert.Equal(t, today, sub.Date)
	assert.False(t, sub.Explicit)
	assert.Len(t, sub.Tasks, 2)
	assert.Equal(t, 1, sub.Notified)

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.DaySummary{Date: "1403-05-10", Total: 2, Done: 0}, view.Summary)
	assert.Equal(t, "run", view.Tasks[0].Label)
	assert.Equal(t, "read", view.Tasks[1].Label)

	assert.Equal(t, []sentMessage{{
		ChatID: sara.ID,
		Text:   "📝 Ali برای تاریخ 1403/05/10 تعداد 2 تسک ثبت کرد.",
	}}, f.sender.messages())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.TasksSaved))
}

func TestSubmitTasksWithExplicitDate(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want jalali.Date
	}{
		{"jalali year first", "1403/01/05\nrun", jalali.Date{Year: 1403, Month: 1, Day: 5}},
		{"jalali day first", "5/1/1403\nrun", jalali.Date{Year: 1403, Month: 1, Day: 5}},
		{"four digit year taken as jalali", "2025-03-21 run", jalali.Date{Year: 2025, Month: 3, Day: 21}},
		{"gregorian year below 1300", "21-03-1299\nrun", jalali.Date{Year: 678, Month: 1, Day: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sub, err := f.svc.SubmitTasks(ctx, ali, c.text)
			require.NoError(t, err)
			assert.True(t, sub.Explicit)
			assert.Equal(t, c.want, sub.Date)
			require.Len(t, sub.Tasks, 1)
			assert.Equal(t, "run", sub.Tasks[0].Label)
		})
	}
}

func TestSubmitTasksInvalidDateIsKeptAsText(t *testing.T) {
	f := newDayFixture(t)

	sub, err := f.svc.SubmitTasks(context.Background(), ali, "1403/13/01 plan")
	require.NoError(t, err)
	assert.False(t, sub.Explicit)
	assert.Equal(t, today, sub.Date)
	require.Len(t, sub.Tasks, 1)
	assert.Equal(t, "1403/13/01 plan", sub.Tasks[0].Label)
}

func TestSubmitTasksRejectsEmptyInput(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "   \n ")
	assert.ErrorIs(t, err, ErrEmptySubmission)

	_, err = f.svc.SubmitTasks(ctx, ali, "1403/05/10")
	assert.ErrorIs(t, err, ErrNoTasks)

	has, err := f.store.HasTasks(ctx, ali.ID, "1403-05-10")
	require.NoError(t, err)
	assert.False(t, has)
	assert.Empty(t, f.sender.messages())
}

func TestResubmitReplacesAndReopens(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "a\nb")
	require.NoError(t, err)
	_, err = f.svc.Handle(ctx, ali, CompleteWithAllAction{Date: today})
	require.NoError(t, err)

	_, err = f.svc.SubmitTasks(ctx, ali, "c\nd\ne")
	require.NoError(t, err)

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Summary.Total)
	assert.Zero(t, view.Summary.Done)
	assert.False(t, view.Summary.Completed)
}

func TestToggleRefreshes(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitTasks(ctx, ali, "a\nb\nc")
	require.NoError(t, err)

	out, err := f.svc.Handle(ctx, ali, ToggleAction{TaskID: sub.Tasks[1].ID, Date: today})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefresh, out.Kind)
	assert.Equal(t, today, out.Date)

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Summary.Done)
	assert.True(t, view.Tasks[1].Done)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Actions.WithLabelValues("toggle", "ok")))
}

func TestToggleOfForeignTaskFails(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitTasks(ctx, sara, "hers")
	require.NoError(t, err)

	_, err = f.svc.Handle(ctx, ali, ToggleAction{TaskID: sub.Tasks[0].ID, Date: today})
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Actions.WithLabelValues("toggle", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StorageErrors.WithLabelValues("toggle_task")))
}

func TestConfirmThenCancelChangesNothing(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "a\nb")
	require.NoError(t, err)

	out, err := f.svc.Handle(ctx, ali, ConfirmCompleteAction{Date: today})
	require.NoError(t, err)
	assert.Equal(t, OutcomeChoosePolicy, out.Kind)

	out, err = f.svc.Handle(ctx, ali, CancelCompleteAction{Date: today})
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefresh, out.Kind)

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.DaySummary{Date: "1403-05-10", Total: 2}, view.Summary)
}

func TestCompleteWithAll(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "a\nb\nc")
	require.NoError(t, err)

	out, err := f.svc.Handle(ctx, ali, CompleteWithAllAction{Date: today})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, PolicyCompleteWithAll, out.Policy)
	assert.Equal(t, model.DaySummary{Date: "1403-05-10", Total: 3, Done: 3, Completed: true}, out.Summary)

	msgs := f.sender.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, sara.ID, msgs[1].ChatID)
	assert.Contains(t, msgs[1].Text, "با انتخاب همه تسک‌ها")
	assert.Contains(t, msgs[1].Text, "(100%)")
}

func TestCompleteDayOnlyKeepsFlags(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitTasks(ctx, ali, "a\nb\nc")
	require.NoError(t, err)
	for _, task := range sub.Tasks[:2] {
		_, err := f.svc.Handle(ctx, ali, ToggleAction{TaskID: task.ID, Date: today})
		require.NoError(t, err)
	}

	out, err := f.svc.Handle(ctx, ali, CompleteDayOnlyAction{Date: today})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, out.Kind)
	assert.Equal(t, PolicyCompleteDayOnly, out.Policy)
	assert.Equal(t, model.DaySummary{Date: "1403-05-10", Total: 3, Done: 2, Completed: true}, out.Summary)
	assert.Equal(t, TierMid, CompletionMood(out.Summary))

	msgs := f.sender.messages()
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[1].Text, "با انتخاب همه تسک‌ها")
	assert.Contains(t, msgs[1].Text, "تعداد 2 از 3 تسک انجام داد (66%)")
}

func TestCompletingTwiceIsIdempotent(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "a")
	require.NoError(t, err)
	_, err = f.svc.Handle(ctx, ali, CompleteDayOnlyAction{Date: today})
	require.NoError(t, err)
	before := len(f.sender.messages())

	for _, action := range []Action{
		CompleteWithAllAction{Date: today},
		CompleteDayOnlyAction{Date: today},
		ConfirmCompleteAction{Date: today},
		CompletedAction{Date: today},
	} {
		out, err := f.svc.Handle(ctx, ali, action)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyCompleted, out.Kind, action.Name())
	}

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Zero(t, view.Summary.Done, "a repeated complete must not mark tasks")
	assert.Len(t, f.sender.messages(), before, "no second broadcast")
}

func TestConcurrentCompletionBroadcastsOnce(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitTasks(ctx, ali, "a\nb")
	require.NoError(t, err)
	before := len(f.sender.messages())

	const presses = 4
	kinds := make([]OutcomeKind, presses)
	errs := make([]error, presses)
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.Handle(ctx, ali, CompleteWithAllAction{Date: today})
			kinds[i], errs[i] = out.Kind, err
		}()
	}
	wg.Wait()

	completed := 0
	for i := 0; i < presses; i++ {
		require.NoError(t, errs[i])
		if kinds[i] == OutcomeCompleted {
			completed++
		} else {
			assert.Equal(t, OutcomeAlreadyCompleted, kinds[i])
		}
	}
	assert.Equal(t, 1, completed)
	assert.Len(t, f.sender.messages(), before+1, "exactly one completion broadcast")
}

func TestToggleAfterCompletionKeepsFlag(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitTasks(ctx, ali, "a\nb")
	require.NoError(t, err)
	_, err = f.svc.Handle(ctx, ali, CompleteWithAllAction{Date: today})
	require.NoError(t, err)

	_, err = f.svc.Handle(ctx, ali, ToggleAction{TaskID: sub.Tasks[0].ID, Date: today})
	require.NoError(t, err)

	view, err := f.svc.View(ctx, ali.ID, today)
	require.NoError(t, err)
	assert.Equal(t, model.DaySummary{Date: "1403-05-10", Total: 2, Done: 1, Completed: true}, view.Summary)
	assert.Equal(t, TierCompleted, ClassifyDay(view.Summary))
}

func TestCompleteWithoutTasksFails(t *testing.T) {
	f := newDayFixture(t)

	_, err := f.svc.Handle(context.Background(), ali, CompleteDayOnlyAction{Date: today})
	assert.ErrorIs(t, err, repository.ErrDayNotFound)
	assert.Empty(t, f.sender.messages())
}

func TestHistory(t *testing.T) {
	f := newDayFixture(t)
	ctx := context.Background()

	for _, text := range []string{"1403/05/01 a", "1403/05/03 b\nc", "1403/05/02 d"} {
		_, err := f.svc.SubmitTasks(ctx, ali, text)
		require.NoError(t, err)
	}

	days, err := f.svc.History(ctx, ali.ID, 2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "1403-05-03", days[0].Date)
	assert.Equal(t, 2, days[0].Total)
	assert.Equal(t, "1403-05-02", days[1].Date)

	days, err = f.svc.History(ctx, sara.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, days)
}
