package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"daily-tracker/internal/jalali"
)

// ErrMalformedAction is returned for callback data that does not decode to a
// known action.
var ErrMalformedAction = errors.New("malformed action token")

const (
	actionToggle          = "toggle"
	actionConfirmComplete = "complete_day_confirm"
	actionCancelComplete  = "cancel_complete"
	actionCompleteAll     = "complete_with_all"
	actionCompleteOnly    = "complete_day_only"
	actionCompleted       = "completed"
)

// Action is a decoded button press. The set of implementations is closed.
type Action interface {
	// Day is the day the action applies to.
	Day() jalali.Date
	// Token encodes the action as callback data.
	Token() string
	// Name is the action keyword, used in logs and metrics.
	Name() string

	action()
}

// ToggleAction flips one task.
type ToggleAction struct {
	TaskID uint
	Date   jalali.Date
}

// ConfirmCompleteAction asks how the day should be completed.
type ConfirmCompleteAction struct{ Date jalali.Date }

// CancelCompleteAction leaves the completion prompt without changes.
type CancelCompleteAction struct{ Date jalali.Date }

// CompleteWithAllAction marks every task done and seals the day.
type CompleteWithAllAction struct{ Date jalali.Date }

// CompleteDayOnlyAction seals the day and leaves task flags as they are.
type CompleteDayOnlyAction struct{ Date jalali.Date }

// CompletedAction is the press on the "day completed" badge.
type CompletedAction struct{ Date jalali.Date }

func (a ToggleAction) Day() jalali.Date          { return a.Date }
func (a ConfirmCompleteAction) Day() jalali.Date { return a.Date }
func (a CancelCompleteAction) Day() jalali.Date  { return a.Date }
func (a CompleteWithAllAction) Day() jalali.Date { return a.Date }
func (a CompleteDayOnlyAction) Day() jalali.Date { return a.Date }
func (a CompletedAction) Day() jalali.Date       { return a.Date }

func (a ToggleAction) Name() string          { return actionToggle }
func (a ConfirmCompleteAction) Name() string { return actionConfirmComplete }
func (a CancelCompleteAction) Name() string  { return actionCancelComplete }
func (a CompleteWithAllAction) Name() string { return actionCompleteAll }
func (a CompleteDayOnlyAction) Name() string { return actionCompleteOnly }
func (a CompletedAction) Name() string       { return actionCompleted }

func (a ToggleAction) Token() string {
	return fmt.Sprintf("%s:%d:%s", actionToggle, a.TaskID, a.Date)
}
func (a ConfirmCompleteAction) Token() string { return dayToken(a) }
func (a CancelCompleteAction) Token() string  { return dayToken(a) }
func (a CompleteWithAllAction) Token() string { return dayToken(a) }
func (a CompleteDayOnlyAction) Token() string { return dayToken(a) }
func (a CompletedAction) Token() string       { return dayToken(a) }

func (ToggleAction) action()          {}
func (ConfirmCompleteAction) action() {}
func (CancelCompleteAction) action()  {}
func (CompleteWithAllAction) action() {}
func (CompleteDayOnlyAction) action() {}
func (CompletedAction) action()       {}

func dayToken(a Action) string {
	return a.Name() + ":" + a.Day().String()
}

// ParseAction decodes callback data of the form action:param:param.
func ParseAction(token string) (Action, error) {
	name, rest, _ := strings.Cut(token, ":")
	params := strings.Split(rest, ":")

	switch name {
	case actionToggle:
		if len(params) != 2 {
			return nil, malformed(token, "want toggle:<id>:<date>")
		}
		id, err := strconv.ParseUint(params[0], 10, 0)
		if err != nil || id == 0 {
			return nil, malformed(token, "task id is not a positive number")
		}
		date, err := jalali.ParseKey(params[1])
		if err != nil {
			return nil, malformed(token, err.Error())
		}
		return ToggleAction{TaskID: uint(id), Date: date}, nil
	case actionConfirmComplete, actionCancelComplete, actionCompleteAll, actionCompleteOnly, actionCompleted:
		if len(params) != 1 {
			return nil, malformed(token, "want <action>:<date>")
		}
		date, err := jalali.ParseKey(params[0])
		if err != nil {
			return nil, malformed(token, err.Error())
		}
		switch name {
		case actionConfirmComplete:
			return ConfirmCompleteAction{Date: date}, nil
		case actionCancelComplete:
			return CancelCompleteAction{Date: date}, nil
		case actionCompleteAll:
			return CompleteWithAllAction{Date: date}, nil
		case actionCompleteOnly:
			return CompleteDayOnlyAction{Date: date}, nil
		default:
			return CompletedAction{Date: date}, nil
		}
	default:
		return nil, malformed(token, "unknown action")
	}
}

func malformed(token, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedAction, token, reason)
}
