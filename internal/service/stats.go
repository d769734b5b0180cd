package service

import "daily-tracker/internal/model"

// Tier grades a day for display.
type Tier int

const (
	TierLow Tier = iota
	TierMid
	TierHigh
	TierCompleted
)

const (
	highThreshold = 80
	midThreshold  = 50
)

// Percentage returns floor(done*100/total), or 0 for an empty day.
func Percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return done * 100 / total
}

// ClassifyDay maps a day to its tier. A sealed day is always top tier,
// whatever its percentage.
func ClassifyDay(s model.DaySummary) Tier {
	if s.Completed {
		return TierCompleted
	}
	return tierFor(Percentage(s.Done, s.Total))
}

func tierFor(pct int) Tier {
	switch {
	case pct >= highThreshold:
		return TierHigh
	case pct >= midThreshold:
		return TierMid
	default:
		return TierLow
	}
}

// CompletionMood grades a freshly sealed day by percentage alone; used for
// the reply after a complete-day-only choice.
func CompletionMood(s model.DaySummary) Tier {
	return tierFor(Percentage(s.Done, s.Total))
}
