package domain

import (
	"time"

	dErrors "moniftar/pkg/domain-errors"
)

const dayLayout = "2006-01-02"

// Day is a calendar day in the service time zone, rendered YYYY-MM-DD.
type Day string

// DayOf returns the calendar day of t as seen in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	return Day(t.In(loc).Format(dayLayout))
}

func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidDate, "day must be formatted YYYY-MM-DD")
	}
	return Day(s), nil
}

func (d Day) String() string { return string(d) }

// Start returns midnight of d in loc.
func (d Day) Start(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// End returns midnight of the following day in loc.
func (d Day) End(loc *time.Location) time.Time {
	return d.Start(loc).AddDate(0, 0, 1)
}
