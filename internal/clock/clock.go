package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrBadTimeOfDay = errors.New("invalid time of day")

// TimeOfDay is a wall-clock time within a day, second precision. Sub-second
// components are discarded everywhere in the engine.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// Parse accepts "HH:MM" or "HH:MM:SS".
func Parse(v string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeOfDay, v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeOfDay, v)
		}
		nums[i] = n
	}
	t := TimeOfDay{Hour: nums[0], Minute: nums[1], Second: nums[2]}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrBadTimeOfDay, v)
	}
	return t, nil
}

// At returns the time-of-day of t in the given location.
func At(t time.Time, loc *time.Location) TimeOfDay {
	t = t.In(loc)
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// SinceMidnight returns the offset of t from 00:00:00.
func (t TimeOfDay) SinceMidnight() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// Sub returns t − u. Negative when t is earlier in the day than u.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return t.SinceMidnight() - u.SinceMidnight()
}

func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.SinceMidnight() < u.SinceMidnight()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// DayBounds is the configured work-day boundary used for overtime.
type DayBounds struct {
	Start TimeOfDay
	End   TimeOfDay
}

// FormatHMS renders a duration as HH:MM:SS. Durations may exceed 24h; hours
// are not wrapped here. Negative durations are clamped to zero.
func FormatHMS(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatHM renders a duration as HH:MM, truncating seconds.
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Minutes returns whole minutes, truncating seconds.
func Minutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// WrapDayTotal renders the total daily overtime as HH:MM, wrapping the hour
// component at 24 so the value always reads as a wall-clock amount. Raw minute
// totals reported alongside the string are never wrapped.
func WrapDayTotal(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60)
}

// Truncate drops sub-second precision from t.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

// DateOf strips t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
