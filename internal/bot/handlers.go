package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/logging"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

const (
	outcomeOK      = "ok"
	outcomeDenied  = "denied"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) string {
	chatID := msg.Chat.ID
	log := logging.With(ctx, b.log).With(zap.Int64("chat", chatID), zap.String("command", msg.Command()))
	log.Info("command received")

	user, ok := b.registry.Lookup(chatID)
	if !ok {
		log.Warn("unauthorized user")
		if msg.Command() == "start" {
			b.sendText(ctx, chatID, deniedStart(chatID))
		} else {
			b.sendText(ctx, chatID, msgDenied)
		}
		return outcomeDenied
	}

	switch msg.Command() {
	case "start":
		b.sendText(ctx, chatID, welcome(user, b.opts.NudgeTime, b.opts.WellnessTime))
		return outcomeOK
	case "tasks":
		return b.handleTasks(ctx, user, msg.CommandArguments())
	case "today":
		return b.showDay(ctx, user, b.days.Today())
	case "date":
		return b.handleDate(ctx, user, msg.CommandArguments())
	case "last5":
		return b.handleHistory(ctx, user)
	case "debug":
		return b.handleDebug(ctx, user)
	default:
		b.sendText(ctx, chatID, msgUnknownCommand)
		return outcomeInvalid
	}
}

func (b *Bot) handleTasks(ctx context.Context, user model.User, args string) string {
	sub, err := b.days.SubmitTasks(ctx, user, args)
	switch {
	case errors.Is(err, service.ErrEmptySubmission):
		b.sendText(ctx, user.ID, msgTasksUsage)
		return outcomeInvalid
	case errors.Is(err, service.ErrNoTasks):
		b.sendText(ctx, user.ID, msgNoTasks)
		return outcomeInvalid
	case err != nil:
		return b.fail(ctx, user.ID, "submit tasks", err)
	}

	b.sendText(ctx, user.ID, tasksSaved(sub))
	return b.showDay(ctx, user, sub.Date)
}

func (b *Bot) handleDate(ctx context.Context, user model.User, args string) string {
	args = strings.TrimSpace(args)
	if args == "" {
		b.sendText(ctx, user.ID, msgDateUsage)
		return outcomeInvalid
	}
	date, ok := jalali.ParseDate(args)
	if !ok {
		b.sendText(ctx, user.ID, msgDateBad)
		return outcomeInvalid
	}
	return b.showDay(ctx, user, date)
}

func (b *Bot) handleHistory(ctx context.Context, user model.User) string {
	days, err := b.days.History(ctx, user.ID, historyDays)
	if err != nil {
		return b.fail(ctx, user.ID, "history", err)
	}
	if len(days) == 0 {
		b.sendText(ctx, user.ID, msgNoHistory)
		return outcomeOK
	}
	b.sendText(ctx, user.ID, renderHistory(days))
	return outcomeOK
}

func (b *Bot) handleDebug(ctx context.Context, user model.User) string {
	dbOK := b.diag.Ping(ctx) == nil
	stats, err := b.diag.Stats(ctx, user.ID, debugRecent)
	if err != nil {
		return b.fail(ctx, user.ID, "debug stats", err)
	}
	today := b.days.Today()
	view, err := b.days.View(ctx, user.ID, today)
	if err != nil {
		return b.fail(ctx, user.ID, "debug today", err)
	}
	b.sendText(ctx, user.ID, renderDebug(dbOK, stats, today, len(view.Tasks)))
	return outcomeOK
}

// showDay sends the day view as a new message.
func (b *Bot) showDay(ctx context.Context, user model.User, date jalali.Date) string {
	view, err := b.days.View(ctx, user.ID, date)
	if err != nil {
		return b.fail(ctx, user.ID, "show day", err)
	}
	text, markup := renderDay(view)
	if markup == nil {
		b.sendText(ctx, user.ID, text)
	} else {
		b.sendWithReplyMarkup(ctx, user.ID, text, *markup)
	}
	return outcomeOK
}

func (b *Bot) fail(ctx context.Context, chatID int64, op string, err error) string {
	logging.With(ctx, b.log).Error(op, zap.Int64("chat", chatID), zap.Error(err))
	b.sendText(ctx, chatID, msgFailed)
	return outcomeError
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) string {
	// Buttons only work in the private chat they were sent to.
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
		b.answer(ctx, cb.ID, "")
		return outcomeInvalid
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	log := logging.With(ctx, b.log).With(
		zap.Int64("chat", chatID),
		zap.Int64("from", cb.From.ID),
		zap.String("data", cb.Data),
	)

	user, ok := b.registry.Lookup(cb.From.ID)
	if !ok || user.ID != chatID {
		log.Warn("unauthorized callback")
		b.answer(ctx, cb.ID, "")
		b.editText(ctx, chatID, messageID, msgDenied)
		return outcomeDenied
	}

	action, err := service.ParseAction(cb.Data)
	if err != nil {
		log.Warn("bad callback data", zap.Error(err))
		b.answer(ctx, cb.ID, "")
		b.editText(ctx, chatID, messageID, msgParseFailed)
		return outcomeInvalid
	}

	out, err := b.days.Handle(ctx, user, action)
	if errors.Is(err, repository.ErrTaskNotFound) {
		// A stale button from a replaced list; show the current one.
		log.Info("toggle of missing task", zap.Error(err))
		b.answer(ctx, cb.ID, "")
		return b.editDay(ctx, user, messageID, action.Day())
	}
	if err != nil {
		log.Error("handle action", zap.String("action", action.Name()), zap.Error(err))
		b.answer(ctx, cb.ID, "")
		b.editText(ctx, chatID, messageID, msgFailed)
		return outcomeError
	}

	switch out.Kind {
	case service.OutcomeAlreadyCompleted:
		b.answer(ctx, cb.ID, msgAlreadyDone)
		return outcomeOK
	case service.OutcomeChoosePolicy:
		b.answer(ctx, cb.ID, "")
		text, markup := renderConfirm(out.Date)
		b.reply(ctx, chatID, tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup))
		return outcomeOK
	case service.OutcomeCompleted:
		b.answer(ctx, cb.ID, "")
		result := b.editDay(ctx, user, messageID, out.Date)
		b.sendText(ctx, chatID, completionReply(out))
		return result
	default:
		b.answer(ctx, cb.ID, "")
		return b.editDay(ctx, user, messageID, out.Date)
	}
}

// editDay re-renders the day in place.
func (b *Bot) editDay(ctx context.Context, user model.User, messageID int, date jalali.Date) string {
	view, err := b.days.View(ctx, user.ID, date)
	if err != nil {
		logging.With(ctx, b.log).Error("render day", zap.Int64("chat", user.ID), zap.Error(err))
		b.editText(ctx, user.ID, messageID, msgFailed)
		return outcomeError
	}
	text, markup := renderDay(view)
	if markup == nil {
		b.editText(ctx, user.ID, messageID, text)
		return outcomeOK
	}
	b.reply(ctx, user.ID, tgbotapi.NewEditMessageTextAndMarkup(user.ID, messageID, text, *markup))
	return outcomeOK
}

func (b *Bot) editText(ctx context.Context, chatID int64, messageID int, text string) {
	b.reply(ctx, chatID, tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logging.With(ctx, b.log).Warn("callback ack", zap.Error(err))
	}
}
