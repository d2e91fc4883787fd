package attendance

import (
	"fmt"
	"time"

	"presensi-backend/internal/platform/config"
)

// Schedule holds the school's clock rules. All clocks are school-local.
type Schedule struct {
	LateAfter         TimeOfDay
	DepartureDefault  TimeOfDay
	DepartureThursday TimeOfDay
	DepartureFriday   TimeOfDay
}

var DefaultSchedule = Schedule{
	LateAfter:         TimeOfDay{Hour: 7, Minute: 30},
	DepartureDefault:  TimeOfDay{Hour: 14, Minute: 45},
	DepartureThursday: TimeOfDay{Hour: 14, Minute: 10},
	DepartureFriday:   TimeOfDay{Hour: 11, Minute: 0},
}

func NewSchedule(c config.ScheduleConfig) (Schedule, error) {
	s := DefaultSchedule
	fields := []struct {
		name string
		raw  string
		dst  *TimeOfDay
	}{
		{"schedule.late_after", c.LateAfter, &s.LateAfter},
		{"schedule.departure_default", c.DepartureDefault, &s.DepartureDefault},
		{"schedule.departure_thursday", c.DepartureThursday, &s.DepartureThursday},
		{"schedule.departure_friday", c.DepartureFriday, &s.DepartureFriday},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := ParseTimeOfDay(f.raw)
		if err != nil {
			return Schedule{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return s, nil
}

// Gate decides whether a device may check in or out. It only looks at the
// clock and the lock value it is handed.
type Gate struct {
	schedule Schedule
	loc      *time.Location
}

func NewGate(s Schedule, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.Local
	}
	return &Gate{schedule: s, loc: loc}
}

func (g *Gate) Location() *time.Location { return g.loc }

func (g *Gate) DepartureCutoff(d time.Weekday) TimeOfDay {
	switch d {
	case time.Friday:
		return g.schedule.DepartureFriday
	case time.Thursday:
		return g.schedule.DepartureThursday
	default:
		return g.schedule.DepartureDefault
	}
}

// CanCheckIn ignores the clock: check-in is open all day until the device
// has recorded one.
func (g *Gate) CanCheckIn(_ time.Time, lock DeviceLock) bool {
	return !lock.CheckedIn
}

func (g *Gate) CanCheckOut(now time.Time, lock DeviceLock, today DayStatus) bool {
	if today != StatusPresent || lock.CheckedOut {
		return false
	}
	return g.AfterDepartureCutoff(now)
}

// AfterDepartureCutoff compares at minute granularity, so 11:00:00 and
// 11:00:59 on a Friday both qualify.
func (g *Gate) AfterDepartureCutoff(now time.Time) bool {
	local := now.In(g.loc)
	cutoff := g.DepartureCutoff(local.Weekday())
	return TimeOfDayOf(local).Minutes() >= cutoff.Minutes()
}

// IsLate reports whether in falls strictly after the late cutoff, to the
// second: 07:30:00 is on time, 07:30:01 is late.
func (g *Gate) IsLate(in time.Time) bool {
	local := in.In(g.loc)
	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return secs > g.schedule.LateAfter.Minutes()*60
}

// IsLateString treats an unreadable timestamp as on time.
func (g *Gate) IsLateString(raw string) bool {
	t, ok := ParseTimestamp(raw, g.loc)
	if !ok {
		return false
	}
	return g.IsLate(t)
}
