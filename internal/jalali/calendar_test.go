package jalali

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGregorian(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"mid winter", 2024, time.January, 15, "1402-10-25"},
		{"nowruz 1403", 2024, time.March, 20, "1403-01-01"},
		{"last day of 1402", 2024, time.March, 19, "1402-12-29"},
		{"leap day of 1403", 2025, time.March, 20, "1403-12-30"},
		{"nowruz 1404", 2025, time.March, 21, "1404-01-01"},
		{"revolution day", 1979, time.February, 11, "1357-11-22"},
		{"first day of 1300", 1921, time.March, 21, "1300-01-01"},
		{"nowruz 678", 1299, time.March, 21, "0678-01-01"},
		{"last day of 677", 1299, time.March, 20, "0677-12-30"},
		{"first jalali day", 622, time.March, 22, "0001-01-01"},
		{"last supported day", 3799, time.March, 19, "3177-12-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGregorian(tt.year, tt.month, tt.day)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromGregorianRejectsImpossibleDays(t *testing.T) {
	for _, in := range [][3]int{{2024, 2, 30}, {2023, 2, 29}, {2024, 13, 1}, {2024, 4, 31}, {0, 1, 1}} {
		_, err := FromGregorian(in[0], time.Month(in[1]), in[2])
		assert.ErrorIs(t, err, ErrInvalidDate, "%v", in)
	}
}

func TestFromGregorianRejectsOutOfRange(t *testing.T) {
	_, err := FromGregorian(622, time.March, 21)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = FromGregorian(3799, time.March, 20)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestGregorianRoundTrip(t *testing.T) {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		g := start.AddDate(0, 0, i)
		d, err := FromGregorian(g.Year(), g.Month(), g.Day())
		require.NoError(t, err)
		require.True(t, Valid(d.Year, d.Month, d.Day), "%s", d)

		gy, gm, gd := d.Gregorian()
		require.Equal(t, g.Year(), gy)
		require.Equal(t, g.Month(), gm)
		require.Equal(t, g.Day(), gd)
	}
}

func TestLeapYears(t *testing.T) {
	assert.True(t, IsLeap(1399))
	assert.True(t, IsLeap(1403))
	assert.False(t, IsLeap(1402))
	assert.False(t, IsLeap(1404))

	assert.Equal(t, 30, MonthLength(1403, 12))
	assert.Equal(t, 29, MonthLength(1402, 12))
	assert.Equal(t, 31, MonthLength(1402, 6))
	assert.Equal(t, 30, MonthLength(1402, 7))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(1403, 5, 10))
	assert.True(t, Valid(1403, 12, 30))
	assert.False(t, Valid(1402, 12, 30))
	assert.False(t, Valid(1403, 13, 1))
	assert.False(t, Valid(1403, 7, 31))
	assert.False(t, Valid(1403, 1, 0))
	assert.False(t, Valid(0, 1, 1))
}

func TestParseKey(t *testing.T) {
	d, err := ParseKey("1403-05-10")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 1403, Month: 5, Day: 10}, d)
	assert.Equal(t, "1403/05/10", d.Display())

	for _, bad := range []string{"1403-5-10", "1403/05/10", "1403-13-01", "abcd-01-01", ""} {
		_, err := ParseKey(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestFromTimeUsesLocation(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	// 22:00 UTC on March 19th is already March 20th in Tehran.
	instant := time.Date(2024, time.March, 19, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, "1402-12-29", FromTime(instant).String())
	assert.Equal(t, "1403-01-01", FromTime(instant.In(tehran)).String())
}
