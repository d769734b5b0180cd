// Package jalali implements the Solar Hijri (Jalali) calendar used for every
// stored date key, and the resolver that extracts dates from free text.
package jalali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinYear and MaxYear bound the years the break table covers. Dates past
// MaxYear are rejected, not extrapolated.
const (
	MinYear = 1
	MaxYear = 3177
)

// ErrInvalidDate is returned for impossible year/month/day combinations.
var ErrInvalidDate = errors.New("invalid jalali date")

// breaks are the Jalali years at which the 33-year leap pattern shifts.
var breaks = [...]int{
	-61, 9, 38, 199, 426, 686, 756, 818, 1111, 1181, 1210,
	1635, 2060, 2097, 2192, 2262, 2324, 2394, 2456, 3178,
}

// Date is a day in the Jalali calendar.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the canonical storage key, e.g. 1403-05-10.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Display renders the date the way users read it, e.g. 1403/05/10.
func (d Date) Display() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Gregorian converts d to its Gregorian year, month and day.
func (d Date) Gregorian() (int, time.Month, int) {
	gy, gm, gd := jdnToGregorian(jalaliToJDN(d.Year, d.Month, d.Day))
	return gy, time.Month(gm), gd
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	gy, gm, gd := d.Gregorian()
	return time.Date(gy, gm, gd, 0, 0, 0, 0, loc)
}

// New validates the triple and returns it as a Date.
func New(year, month, day int) (Date, error) {
	if !Valid(year, month, day) {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// Valid reports whether year/month/day names an existing Jalali day.
func Valid(year, month, day int) bool {
	if year < MinYear || year > MaxYear || month < 1 || month > 12 || day < 1 {
		return false
	}
	return day <= MonthLength(year, month)
}

// IsLeap reports whether the Jalali year has 366 days.
func IsLeap(year int) bool {
	leap, _, _ := jalCal(year)
	return leap == 0
}

// MonthLength returns the number of days in the month.
func MonthLength(year, month int) int {
	switch {
	case month <= 6:
		return 31
	case month <= 11:
		return 30
	case IsLeap(year):
		return 30
	default:
		return 29
	}
}

// FromGregorian converts a Gregorian date. The input must be a real Gregorian
// day whose Jalali year falls inside [MinYear, MaxYear].
func FromGregorian(year int, month time.Month, day int) (Date, error) {
	if year < 1 || !validGregorian(year, month, day) {
		return Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	jy, jm, jd := jdnToJalali(gregorianToJDN(year, int(month), day))
	if jy < MinYear || jy > MaxYear {
		return Date{}, fmt.Errorf("%w: gregorian %04d-%02d-%02d out of range", ErrInvalidDate, year, int(month), day)
	}
	return Date{Year: jy, Month: jm, Day: jd}, nil
}

// FromTime converts the calendar day of t, in t's own location.
func FromTime(t time.Time) Date {
	jy, jm, jd := jdnToJalali(gregorianToJDN(t.Year(), int(t.Month()), t.Day()))
	return Date{Year: jy, Month: jm, Day: jd}
}

// Today returns the current Jalali day in loc.
func Today(loc *time.Location) Date {
	return FromTime(time.Now().In(loc))
}

// ParseKey parses a canonical YYYY-MM-DD key and rejects anything that is
// not already in canonical form.
func ParseKey(key string) (Date, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD key", ErrInvalidDate, key)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD key", ErrInvalidDate, key)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

func validGregorian(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && t.Month() == month && t.Day() == day
}

// jalCal returns the leap offset of jy (0 means leap), the Gregorian year in
// which jy starts and the March day of Farvardin 1st.
func jalCal(jy int) (leap, gy, march int) {
	gy = jy + 621
	leapJ := -14
	jp := breaks[0]
	jump := 0
	for i := 1; i < len(breaks); i++ {
		jm := breaks[i]
		jump = jm - jp
		if jy < jm {
			break
		}
		leapJ += jump/33*8 + jump%33/4
		jp = jm
	}
	n := jy - jp
	leapJ += n/33*8 + (n%33+3)/4
	if jump%33 == 4 && jump-n == 4 {
		leapJ++
	}
	leapG := gy/4 - (gy/100+1)*3/4 - 150
	march = 20 + leapJ - leapG

	if jump-n < 6 {
		n = n - jump + (jump+4)/33*33
	}
	leap = ((n+1)%33 - 1) % 4
	if leap == -1 {
		leap = 4
	}
	return leap, gy, march
}

func jalaliToJDN(jy, jm, jd int) int {
	_, gy, march := jalCal(jy)
	return gregorianToJDN(gy, 3, march) + (jm-1)*31 - jm/7*(jm-7) + jd - 1
}

func jdnToJalali(jdn int) (int, int, int) {
	gy, _, _ := jdnToGregorian(jdn)
	jy := gy - 621
	leap, _, march := jalCal(jy)
	k := jdn - gregorianToJDN(gy, 3, march)
	if k >= 0 {
		if k <= 185 {
			return jy, 1 + k/31, k%31 + 1
		}
		k -= 186
	} else {
		jy--
		k += 179
		if leap == 1 {
			k++
		}
	}
	return jy, 7 + k/30, k%30 + 1
}

func gregorianToJDN(gy, gm, gd int) int {
	d := (gy+(gm-8)/6+100100)*1461/4 + (153*((gm+9)%12)+2)/5 + gd - 34840408
	return d - (gy+100100+(gm-8)/6)/100*3/4 + 752
}

func jdnToGregorian(jdn int) (int, int, int) {
	j := 4*jdn + 139361631
	j += (4*jdn+183187720)/146097*3/4*4 - 3908
	i := j%1461/4*5 + 308
	gd := i%153/5 + 1
	gm := i/153%12 + 1
	gy := j/1461 - 100100 + (8-gm)/6
	return gy, gm, gd
}
