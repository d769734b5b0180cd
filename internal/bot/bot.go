package bot

import (
	"context"
	"fmt"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"daily-tracker/internal/logging"
	"daily-tracker/internal/model"
	"daily-tracker/internal/observability"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

// API is the part of the Telegram client the bot uses. *tgbotapi.BotAPI
// satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Diagnostics backs the /debug command.
type Diagnostics interface {
	Stats(ctx context.Context, userID int64, recent int) (repository.UserStats, error)
	Ping(ctx context.Context) error
}

// Options tune the bot; zero values fall back to defaults.
type Options struct {
	Workers      int
	NudgeTime    string
	WellnessTime string
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api      API
	registry *model.Registry
	days     *service.DayService
	diag     Diagnostics
	opts     Options
	log      *zap.Logger
	metrics  *observability.Metrics
}

// Connect authorizes against Telegram and routes the client's own logging
// through zap.
func Connect(token string, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(zap.NewStdLog(log.Named("telegram"))); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", zap.String("account", api.Self.UserName))
	return api, nil
}

func New(api API, registry *model.Registry, days *service.DayService, diag Diagnostics, opts Options, log *zap.Logger, metrics *observability.Metrics) *Bot {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.NudgeTime == "" {
		opts.NudgeTime = "09:00"
	}
	if opts.WellnessTime == "" {
		opts.WellnessTime = "10:00"
	}
	return &Bot{
		api:      api,
		registry: registry,
		days:     days,
		diag:     diag,
		opts:     opts,
		log:      log,
		metrics:  metrics,
	}
}

// Start begins polling updates until ctx is cancelled. Updates are handled
// concurrently on at most Options.Workers goroutines; Start returns once the
// in-flight ones have finished.
func (b *Bot) Start(ctx context.Context) error {
	b.registerCommands()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates", zap.Int("workers", b.opts.Workers))

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for update := range updates {
		update := update
		g.Go(func() error {
			b.handleUpdate(ctx, update)
			return nil
		})
	}
	return g.Wait()
}

func (b *Bot) registerCommands() {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "شروع و راهنما"},
		tgbotapi.BotCommand{Command: "tasks", Description: "ثبت تسک‌های امروز یا روز مشخص"},
		tgbotapi.BotCommand{Command: "today", Description: "نمایش تسک‌های امروز"},
		tgbotapi.BotCommand{Command: "date", Description: "نمایش تسک‌های روز مشخص"},
		tgbotapi.BotCommand{Command: "last5", Description: "گزارش 5 روز گذشته"},
		tgbotapi.BotCommand{Command: "debug", Description: "اطلاعات دیباگ"},
	)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Warn("register bot commands", zap.Error(err))
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	log := logging.With(ctx, b.log).With(zap.Int("update_id", update.UpdateID))

	kind := "other"
	defer func() {
		if r := recover(); r != nil {
			b.metrics.ObserveUpdate(kind, "panic")
			log.Error("handler panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	var outcome string
	switch {
	case update.CallbackQuery != nil:
		kind = "callback"
		outcome = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() || !update.Message.IsCommand() {
			return
		}
		kind = "command"
		outcome = b.handleCommand(ctx, update.Message)
	default:
		return
	}
	b.metrics.ObserveUpdate(kind, outcome)
}

func (b *Bot) reply(ctx context.Context, chatID int64, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		logging.With(ctx, b.log).Error("send reply", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	b.reply(ctx, chatID, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendWithReplyMarkup(ctx context.Context, chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.reply(ctx, chatID, msg)
}

// Sender delivers plain notifications through Telegram.
type Sender struct {
	api API
}

func NewSender(api API) *Sender {
	return &Sender{api: api}
}

func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}
