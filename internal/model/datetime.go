package model

import (
	"fmt"
	"strings"
	"time"
)

// Date-times are local wall-clock values without a zone, as in
// "2030-01-01T09:00". Seconds and fractions are optional.
const (
	DateTimeMinuteLayout = "2006-01-02T15:04"
	DateTimeSecondLayout = "2006-01-02T15:04:05"
	DateTimeNanoLayout   = "2006-01-02T15:04:05.999999999"
)

// FormatDateTime omits the seconds when they and the fraction are zero.
func FormatDateTime(t time.Time) string {
	switch {
	case t.Nanosecond() != 0:
		return t.Format(DateTimeNanoLayout)
	case t.Second() != 0:
		return t.Format(DateTimeSecondLayout)
	default:
		return t.Format(DateTimeMinuteLayout)
	}
}

// ParseDateTime reads a wall-clock date-time in loc. A space is accepted in
// place of the "T" separator.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}
	// A seconds layout also accepts a trailing fraction when parsing.
	for _, layout := range []string{DateTimeSecondLayout, DateTimeMinuteLayout} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date-time %q, expected YYYY-MM-DDTHH:MM", s)
}
