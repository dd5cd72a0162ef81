package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-console/internal/model"
)

var testNow = time.Date(2029, 6, 1, 10, 0, 0, 0, time.Local)

func TestValidateTime(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		at   time.Time
		want bool
	}{
		{name: "before opening", at: time.Date(2030, 1, 1, 6, 59, 0, 0, time.Local), want: false},
		{name: "at opening", at: time.Date(2030, 1, 1, 7, 0, 0, 0, time.Local), want: true},
		{name: "midday", at: time.Date(2030, 1, 1, 12, 30, 0, 0, time.Local), want: true},
		{name: "at closing", at: time.Date(2030, 1, 1, 22, 0, 0, 0, time.Local), want: true},
		{name: "one second after closing", at: time.Date(2030, 1, 1, 22, 0, 1, 0, time.Local), want: false},
		{name: "after closing", at: time.Date(2030, 1, 1, 22, 1, 0, 0, time.Local), want: false},
		{name: "in the past", at: testNow.Add(-time.Minute), want: false},
		{name: "now", at: testNow, want: true},
		{name: "exactly one year ahead", at: testNow.AddDate(1, 0, 0), want: true},
		{name: "beyond one year", at: testNow.AddDate(1, 0, 0).Add(time.Minute), want: false},
		{name: "leap day horizon clamps to Feb 28",
			now:  time.Date(2028, 2, 29, 8, 0, 0, 0, time.Local),
			at:   time.Date(2029, 2, 28, 8, 0, 0, 0, time.Local),
			want: true},
		{name: "leap day horizon excludes later that day",
			now:  time.Date(2028, 2, 29, 8, 0, 0, 0, time.Local),
			at:   time.Date(2029, 2, 28, 20, 0, 0, 0, time.Local),
			want: false},
		{name: "leap day horizon excludes Mar 1",
			now:  time.Date(2028, 2, 29, 8, 0, 0, 0, time.Local),
			at:   time.Date(2029, 3, 1, 8, 0, 0, 0, time.Local),
			want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			if now.IsZero() {
				now = testNow
			}
			assert.Equal(t, tt.want, ValidateTime(tt.at, now))
		})
	}
}

func TestRules_CustomHours(t *testing.T) {
	rules := Rules{OpensAt: 9 * time.Hour, ClosesAt: 17*time.Hour + 30*time.Minute, HorizonYears: 2}

	assert.False(t, rules.ValidateTime(time.Date(2030, 1, 1, 8, 59, 0, 0, time.Local), testNow))
	assert.True(t, rules.ValidateTime(time.Date(2030, 1, 1, 17, 30, 0, 0, time.Local), testNow))
	assert.True(t, rules.ValidateTime(time.Date(2031, 3, 1, 12, 0, 0, 0, time.Local), testNow))
}

func TestHasConflict(t *testing.T) {
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.Local)
	pending := []*model.Appointment{
		{ID: 1, PatientID: 10, DoctorID: 5, ScheduledAt: at},
		{ID: 2, PatientID: 11, DoctorID: 6, ScheduledAt: at, Completed: true},
	}

	assert.True(t, HasConflict(pending, 5, at, RoleDoctor))
	assert.True(t, HasConflict(pending, 10, at, RolePatient))
	assert.False(t, HasConflict(pending, 10, at, RoleDoctor), "ids are matched per role")
	assert.False(t, HasConflict(pending, 5, at.Add(time.Minute), RoleDoctor), "only exact times collide")
	assert.False(t, HasConflict(pending, 6, at, RoleDoctor), "completed appointments are ignored")
	assert.False(t, HasConflict(nil, 5, at, RoleDoctor))
}
