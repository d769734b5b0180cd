package jalali

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// gregorianCutoff separates the two calendars: four-digit years at or above it
// are Jalali, years below it are Gregorian.
const gregorianCutoff = 1300

// ResolutionKind tells whether a date token was found in the text.
type ResolutionKind int

const (
	// NoDateFound means the text carried no valid date token; callers fall
	// back to today.
	NoDateFound ResolutionKind = iota
	// DateFound means Date holds the canonical day named by the token.
	DateFound
)

// Resolution is the result of scanning free text for a date token.
type Resolution struct {
	Kind      ResolutionKind
	Date      Date
	Token     string
	Remaining string
}

// DateOr returns the resolved date, or fallback when none was found.
func (r Resolution) DateOr(fallback Date) Date {
	if r.Kind == DateFound {
		return r.Date
	}
	return fallback
}

type datePattern struct {
	re        *regexp.Regexp
	yearFirst bool
}

// Patterns are tried in order; year-first wins over day-first.
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`(\d{4})([/-])(\d{1,2})([/-])(\d{1,2})`), yearFirst: true},
	{re: regexp.MustCompile(`(\d{1,2})([/-])(\d{1,2})([/-])(\d{4})`), yearFirst: false},
}

// Resolve looks for the first date token in text. The matched literal is
// removed from the text (every copy of it) and the rest is trimmed. Tokens
// that name impossible days are ignored.
func Resolve(text string) Resolution {
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if m[2] != m[4] {
			continue
		}
		date, ok := convert(m, p.yearFirst)
		if !ok {
			continue
		}
		return Resolution{
			Kind:      DateFound,
			Date:      date,
			Token:     m[0],
			Remaining: strings.TrimSpace(strings.ReplaceAll(text, m[0], "")),
		}
	}
	return Resolution{Kind: NoDateFound, Remaining: strings.TrimSpace(text)}
}

// ParseDate resolves a standalone date argument, such as the one given to
// the /date command. Surrounding text is not allowed.
func ParseDate(arg string) (Date, bool) {
	arg = strings.TrimSpace(arg)
	res := Resolve(arg)
	if res.Kind != DateFound || res.Token != arg {
		return Date{}, false
	}
	return res.Date, true
}

func convert(m []string, yearFirst bool) (Date, bool) {
	var year, month, day int
	var err error
	yIdx, mIdx, dIdx := 1, 3, 5
	if !yearFirst {
		yIdx, dIdx = 5, 1
	}
	if year, err = strconv.Atoi(m[yIdx]); err != nil {
		return Date{}, false
	}
	if month, err = strconv.Atoi(m[mIdx]); err != nil {
		return Date{}, false
	}
	if day, err = strconv.Atoi(m[dIdx]); err != nil {
		return Date{}, false
	}

	if year >= gregorianCutoff {
		d, err := New(year, month, day)
		return d, err == nil
	}
	d, err := FromGregorian(year, time.Month(month), day)
	return d, err == nil
}
