package booking

import "time"

const (
	// ChallengeFillThreshold is the fill percentage at which a slot stops accepting challenges.
	ChallengeFillThreshold = 60
	RefundWindow           = 24 * time.Hour

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func IsUpcoming(startsAt, now time.Time) bool {
	return startsAt.After(now)
}

func HasEnded(endsAt, now time.Time) bool {
	return !now.Before(endsAt)
}

// StartsWithin reports whether startsAt falls in (now, now+lead].
func StartsWithin(startsAt, now time.Time, lead time.Duration) bool {
	return IsUpcoming(startsAt, now) && !startsAt.After(now.Add(lead))
}

// FillPercent rounds down.
func FillPercent(players, capacity int) int {
	if capacity <= 0 {
		return 100
	}
	return players * 100 / capacity
}

// BelowFillThreshold is computed in integers so 59/100 passes and 60/100 does not.
func BelowFillThreshold(players, capacity int) bool {
	if capacity <= 0 {
		return false
	}
	return players*100 < capacity*ChallengeFillThreshold
}

func RefundDue(createdAt, now time.Time) bool {
	return now.Sub(createdAt) > RefundWindow
}

func ParseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ParseWindow resolves a date and two HH:MM clock times into instants in loc.
func ParseWindow(date, start, end string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startClock, err := time.Parse(TimeLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidTime
	}
	endClock, err := time.Parse(TimeLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidTime
	}
	y, m, d := day.Date()
	startsAt := time.Date(y, m, d, startClock.Hour(), startClock.Minute(), 0, 0, loc)
	endsAt := time.Date(y, m, d, endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !endsAt.After(startsAt) {
		return time.Time{}, time.Time{}, ErrInvalidTime
	}
	return startsAt, endsAt, nil
}
