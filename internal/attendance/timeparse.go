package attendance

import (
	"strings"
	"time"
)

// Layouts seen in the sheet: ISO strings written by the app, plus the
// sheet's own rendering of date cells.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// ParseTimestamp reads a log timestamp. Values without a zone are taken as
// school-local time; the result is always expressed in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// ParseDate reads a calendar date, either a bare "YYYY-MM-DD" or the date
// part of a full timestamp.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return time.Time{}, false
	}
	return startOfDay(t, loc), true
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayKey is the device-lock key for t's calendar day.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}
