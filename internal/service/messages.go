package service

import (
	"fmt"

	"daily-tracker/internal/jalali"
	"daily-tracker/internal/model"
)

const (
	kindTaskEntry    = "task_entry"
	kindCompleteAll  = "complete_with_all"
	kindCompleteOnly = "complete_day_only"
	kindNudge        = "task_nudge"
	kindWellness     = "wellness"
)

func taskEntryMessage(date jalali.Date, count int) MessageBuilder {
	return func(source, _ model.User) string {
		return fmt.Sprintf("📝 %s برای تاریخ %s تعداد %d تسک ثبت کرد.", source.Name, date.Display(), count)
	}
}

func completionMessage(policy CompletionPolicy, date jalali.Date, s model.DaySummary) MessageBuilder {
	return func(source, _ model.User) string {
		how := "خودش رو تکمیل کرد!"
		if policy == PolicyCompleteWithAll {
			how = "خودش رو با انتخاب همه تسک‌ها تکمیل کرد!"
		}
		return fmt.Sprintf("📢 %s روز %s %s\nتعداد %d از %d تسک انجام داد (%d%%).",
			source.Name, date.Display(), how, s.Done, s.Total, Percentage(s.Done, s.Total))
	}
}

func nudgeMessage(user model.User) string {
	return fmt.Sprintf("⏰ صبح بخیر %s!\n\nهنوز تسک‌های امروزت رو وارد نکردی. لطفاً با دستور /tasks تسک‌هات رو ثبت کن.", user.Name)
}

func wellnessMessage(user model.User, link string) string {
	return fmt.Sprintf("😴 %s عزیز، وقت ثبت ساعات خوابت رسیده!\n\n%s", user.Name, link)
}
