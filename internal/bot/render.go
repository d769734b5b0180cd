package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

const (
	msgDenied         = "❌ شما مجاز به استفاده از این ربات نیستید."
	msgParseFailed    = "❌ خطا در پردازش درخواست."
	msgFailed         = "❌ خطایی رخ داد. لطفاً دوباره تلاش کنید."
	msgNoTasks        = "❌ لطفاً حداقل یک تسک وارد کنید."
	msgAlreadyDone    = "این روز قبلاً تکمیل شده است! 🎉"
	msgUnknownCommand = "❓ این دستور پشتیبانی نمی‌شود. برای راهنما /start را بزنید."
	msgTasksUsage     = "❌ لطفاً بعد از /tasks لیست تسک‌ها رو بنویس (هر خط یک تسک).\n\n" +
		"مثال:\n" +
		"/tasks تمرین ورزشی\nخرید مواد غذایی\nمطالعه کتاب\n\n" +
		"یا برای روز مشخص:\n" +
		"/tasks 1403/05/10\nتمرین ورزشی\nخرید مواد غذایی"
	msgDateUsage = "❌ لطفاً تاریخ را به فرمت YYYY-MM-DD (جلالی) وارد کنید.\n\nمثال:\n/date 1404-07-01"
	msgDateBad   = "❌ فرمت تاریخ اشتباه است. لطفاً به فرمت YYYY-MM-DD (جلالی) وارد کنید.\n\nمثال: 1404-07-01"
	msgNoHistory = "❌ هیچ تسکی در 5 روز گذشته ثبت نشده."

	btnCompleteDay = "✅ اتمام روز"
	btnDayDone     = "🎉 روز تکمیل شده"
	btnCancel      = "❌ انصراف"
	btnAllTasks    = "✅ انتخاب همه تسک‌ها"
	btnDayOnly     = "🎯 فقط اتمام روز"

	maxButtonRunes = 60
	historyDays    = 5
	debugRecent    = 5
	debugLabelCut  = 30
)

func deniedStart(chatID int64) string {
	return fmt.Sprintf("%s\nChat ID شما: %d\nلطفاً این ID را به مدیر ربات اطلاع دهید.", msgDenied, chatID)
}

func welcome(user model.User, nudgeTime, wellnessTime string) string {
	return fmt.Sprintf(`🎯 سلام %s! به ربات مدیریت تسک‌ها خوش آمدید.

📋 دستورات موجود:
/tasks - افزودن تسک‌های امروز یا روز مشخص
/today - نمایش تسک‌های امروز
/date - نمایش تسک‌های روز مشخص
/last5 - نمایش 5 روز گذشته

⏰ یادآوری‌ها:
• ساعت %s: یادآوری ثبت تسک‌ها (فقط اگر ثبت نکرده باشید)
• ساعت %s: یادآوری خواب

💡 نکته: در انتهای لیست تسک‌های هر روز، گزینه "%s" برای تکمیل روز وجود دارد.

برای شروع، تسک‌های امروزتان را با دستور /tasks وارد کنید.`, user.Name, nudgeTime, wellnessTime, btnCompleteDay)
}

func tasksSaved(sub service.Submission) string {
	return fmt.Sprintf("✅ %d تسک برای تاریخ %s ثبت شد.", len(sub.Tasks), sub.Date.Display())
}

func emptyDay(date jalali.Date) string {
	return fmt.Sprintf("❌ هیچ تسکی برای تاریخ %s ثبت نشده.", date.Display())
}

func tierEmoji(t service.Tier) string {
	switch t {
	case service.TierCompleted:
		return "🎉"
	case service.TierHigh:
		return "🟢"
	case service.TierMid:
		return "🟡"
	default:
		return "🔴"
	}
}

func moodEmoji(t service.Tier) string {
	switch t {
	case service.TierHigh, service.TierCompleted:
		return "🎉"
	case service.TierMid:
		return "👍"
	default:
		return "💪"
	}
}

func statusLine(date jalali.Date, s model.DaySummary) string {
	return fmt.Sprintf("%s تسک‌های %s:\n(%d/%d تسک - %d%%)",
		tierEmoji(service.ClassifyDay(s)), date.Display(), s.Done, s.Total, service.Percentage(s.Done, s.Total))
}

// renderDay returns the text and keyboard of a day. The keyboard is nil for
// a day without tasks.
func renderDay(v service.DayView) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(v.Tasks) == 0 {
		return emptyDay(v.Date), nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(v.Tasks)+1)
	for _, task := range v.Tasks {
		action := service.ToggleAction{TaskID: task.ID, Date: v.Date}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(taskButton(task), action.Token()),
		))
	}

	var last tgbotapi.InlineKeyboardButton
	if v.Summary.Completed {
		last = tgbotapi.NewInlineKeyboardButtonData(btnDayDone, service.CompletedAction{Date: v.Date}.Token())
	} else {
		last = tgbotapi.NewInlineKeyboardButtonData(btnCompleteDay, service.ConfirmCompleteAction{Date: v.Date}.Token())
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(last))

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return statusLine(v.Date, v.Summary), &markup
}

func taskButton(task model.Task) string {
	mark := "⬜"
	if task.Done {
		mark = "✅"
	}
	return shortTitle(mark+" "+task.Label, maxButtonRunes)
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen-3]) + "..."
}

func renderConfirm(date jalali.Date) (string, tgbotapi.InlineKeyboardMarkup) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnCancel, service.CancelCompleteAction{Date: date}.Token())),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAllTasks, service.CompleteWithAllAction{Date: date}.Token())),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnDayOnly, service.CompleteDayOnlyAction{Date: date}.Token())),
	)
	return fmt.Sprintf("🤔 نحوه اتمام روز %s را انتخاب کنید:", date.Display()), markup
}

func completionReply(out service.Outcome) string {
	s := out.Summary
	pct := service.Percentage(s.Done, s.Total)
	if out.Policy == service.PolicyCompleteWithAll {
		return fmt.Sprintf("🎉 روز %s با انتخاب همه تسک‌ها تکمیل شد!\nتعداد %d از %d تسک انجام شد (%d%%).",
			out.Date.Display(), s.Done, s.Total, pct)
	}
	return fmt.Sprintf("%s روز %s تکمیل شد!\nتعداد %d از %d تسک انجام شد (%d%%).",
		moodEmoji(service.CompletionMood(s)), out.Date.Display(), s.Done, s.Total, pct)
}

func renderHistory(days []model.DaySummary) string {
	var b strings.Builder
	b.WriteString("📊 گزارش 5 روز گذشته:\n\n")
	for _, day := range days {
		display := day.Date
		if d, err := jalali.ParseKey(day.Date); err == nil {
			display = d.Display()
		}
		suffix := ""
		if day.Completed {
			suffix = " (تکمیل شده)"
		}
		fmt.Fprintf(&b, "%s %s: %d/%d تسک (%d%%)%s\n",
			tierEmoji(service.ClassifyDay(day)), display, day.Done, day.Total, service.Percentage(day.Done, day.Total), suffix)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDebug(dbOK bool, stats repository.UserStats, today jalali.Date, todayTasks int) string {
	var b strings.Builder
	b.WriteString("🔧 اطلاعات دیباگ:\n\n")
	mark := "❌"
	if dbOK {
		mark = "✅"
	}
	fmt.Fprintf(&b, "📁 دیتابیس در دسترس: %s\n", mark)
	fmt.Fprintf(&b, "📊 کل تسک‌ها: %d\n", stats.TotalTasks)
	fmt.Fprintf(&b, "📅 تسک‌های امروز (%s): %d\n\n", today.Display(), todayTasks)

	if len(stats.RecentTasks) == 0 {
		b.WriteString("❌ هیچ تسکی یافت نشد")
		return b.String()
	}
	b.WriteString("📝 آخرین تسک‌ها:\n")
	for _, task := range stats.RecentTasks {
		fmt.Fprintf(&b, "• %s: %s\n", task.Date, shortTitle(task.Label, debugLabelCut))
	}
	return strings.TrimRight(b.String(), "\n")
}
