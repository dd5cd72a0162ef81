package appointment

import (
	"time"

	"github.com/jwalitptl/clinic-console/internal/model"
)

// Business hours and booking horizon applied when none are configured.
const (
	DefaultOpensAt      = 7 * time.Hour
	DefaultClosesAt     = 22 * time.Hour
	DefaultHorizonYears = 1
)

// Role selects which party of an appointment a conflict check looks at.
type Role int

const (
	RoleDoctor Role = iota
	RolePatient
)

func (r Role) String() string {
	if r == RolePatient {
		return "patient"
	}
	return "doctor"
}

// Rules bound the times an appointment may be booked at. OpensAt and
// ClosesAt are offsets from midnight and both are bookable.
type Rules struct {
	OpensAt      time.Duration
	ClosesAt     time.Duration
	HorizonYears int
}

func DefaultRules() Rules {
	return Rules{
		OpensAt:      DefaultOpensAt,
		ClosesAt:     DefaultClosesAt,
		HorizonYears: DefaultHorizonYears,
	}
}

// ValidateTime reports whether candidate is not in the past, not beyond the
// booking horizon and falls within business hours.
func (r Rules) ValidateTime(candidate, now time.Time) bool {
	if candidate.Before(now) {
		return false
	}
	if candidate.After(r.limit(now)) {
		return false
	}
	tod := timeOfDay(candidate)
	return tod >= r.OpensAt && tod <= r.ClosesAt
}

// limit is now moved HorizonYears ahead. A day missing from the target
// month, Feb 29 in a common year, clamps to the month's last day instead of
// rolling into the next month.
func (r Rules) limit(now time.Time) time.Time {
	limit := now.AddDate(r.HorizonYears, 0, 0)
	if limit.Day() != now.Day() {
		limit = time.Date(limit.Year(), limit.Month(), 0,
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	}
	return limit
}

// ValidateTime checks candidate against the default rules.
func ValidateTime(candidate, now time.Time) bool {
	return DefaultRules().ValidateTime(candidate, now)
}

// HasConflict reports whether a pending appointment of the given party
// starts at exactly candidate. Overlapping but unequal times do not count.
func HasConflict(pending []*model.Appointment, partyID int, candidate time.Time, role Role) bool {
	for _, a := range pending {
		if a.Completed || !a.ScheduledAt.Equal(candidate) {
			continue
		}
		switch role {
		case RoleDoctor:
			if a.DoctorID == partyID {
				return true
			}
		case RolePatient:
			if a.PatientID == partyID {
				return true
			}
		}
	}
	return false
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
