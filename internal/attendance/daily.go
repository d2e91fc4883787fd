package attendance

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"presensi-backend/internal/roster"
)

const noClock = "--:--"

var clockPrefix = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)

// todayEvents picks the earliest IN and OUT of the day for one employee.
type todayEvents struct {
	in, out       time.Time
	inRaw, outRaw *AttendanceLog
}

// BuildDailyBoard derives today's status for every employee in emps. Callers
// pass staff only; administrators are not tracked.
func BuildDailyBoard(emps []roster.Employee, logs Logs, now time.Time, gate *Gate) []DailyAttendance {
	loc := gate.Location()
	today := startOfDay(now, loc)

	events := make(map[string]*todayEvents)
	for i := range logs.Attendance {
		a := &logs.Attendance[i]
		t, ok := ParseTimestamp(a.Timestamp, loc)
		if !ok || !sameDay(t, today, loc) {
			continue
		}
		nip := strings.TrimSpace(a.NIP)
		ev, ok := events[nip]
		if !ok {
			ev = &todayEvents{}
			events[nip] = ev
		}
		switch a.Kind {
		case EventIn:
			if ev.inRaw == nil || t.Before(ev.in) {
				ev.in, ev.inRaw = t, a
			}
		case EventOut:
			if ev.outRaw == nil || t.Before(ev.out) {
				ev.out, ev.outRaw = t, a
			}
		}
	}

	leaveToday := make(map[string]LeaveKind)
	for _, l := range logs.Leaves {
		kind, ok := ParseLeaveKind(l.Status)
		if !ok || !leaveCovers(l, today, loc) {
			continue
		}
		nip := strings.TrimSpace(l.NIP)
		if _, seen := leaveToday[nip]; !seen {
			leaveToday[nip] = kind
		}
	}

	out := make([]DailyAttendance, 0, len(emps))
	for _, e := range emps {
		nip := strings.TrimSpace(e.NIP)
		row := DailyAttendance{
			NIP:      e.NIP,
			Name:     e.DisplayName(),
			Category: e.Category(),
			Status:   StatusNotYetPresent,
		}
		if ev, ok := events[nip]; ok && nip != "" {
			if ev.inRaw != nil {
				row.Status = StatusPresent
				row.TimeIn = strPtr(ev.in.Format("15:04"))
				row.IsLate = gate.IsLate(ev.in)
				if p := strings.TrimSpace(ev.inRaw.Photo); p != "" {
					row.PhotoURL = strPtr(p)
				}
				if l := strings.TrimSpace(ev.inRaw.Location); l != "" {
					row.Location = strPtr(l)
				}
			}
			if ev.outRaw != nil {
				row.TimeOut = strPtr(ev.out.Format("15:04"))
			}
		}
		if row.Status != StatusPresent && nip != "" {
			if kind, ok := leaveToday[nip]; ok {
				row.Status = StatusPermission
				if kind == LeaveSick {
					row.Status = StatusSick
				}
			}
		}
		row.StatusLabel = row.Status.Label()
		out = append(out, row)
	}

	sortDaily(out)
	return out
}

// leaveCovers uses the leave's date range when both ends parse and falls
// back to the day the request was filed.
func leaveCovers(l LeaveLog, day time.Time, loc *time.Location) bool {
	start, okStart := ParseDate(l.StartDate, loc)
	end, okEnd := ParseDate(l.EndDate, loc)
	if okStart && okEnd {
		return !day.Before(start) && !day.After(end)
	}
	ts, ok := ParseTimestamp(l.Timestamp, loc)
	return ok && sameDay(ts, day, loc)
}

func statusPriority(s DayStatus) int {
	switch s {
	case StatusPresent:
		return 0
	case StatusSick, StatusPermission:
		return 1
	default:
		return 2
	}
}

func sortDaily(rows []DailyAttendance) {
	// Collators keep internal buffers; one per sort.
	col := collate.New(language.Indonesian, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if pa, pb := statusPriority(a.Status), statusPriority(b.Status); pa != pb {
			return pa < pb
		}
		if a.Status == StatusPresent && a.TimeIn != nil && b.TimeIn != nil && *a.TimeIn != *b.TimeIn {
			return *a.TimeIn < *b.TimeIn
		}
		return col.CompareString(a.Name, b.Name) < 0
	})
}

// FilterDaily keeps rows whose name contains q (any case) or whose NIP
// contains q.
func FilterDaily(rows []DailyAttendance, q string) []DailyAttendance {
	q = strings.TrimSpace(q)
	if q == "" {
		return rows
	}
	lq := strings.ToLower(q)
	out := make([]DailyAttendance, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), lq) || strings.Contains(r.NIP, q) {
			out = append(out, r)
		}
	}
	return out
}

func Summarize(rows []DailyAttendance, sessions []TeachingSession) DailyStats {
	s := DailyStats{Total: len(rows), Teaching: len(sessions)}
	for _, r := range rows {
		switch r.Status {
		case StatusPresent:
			s.Present++
		case StatusSick, StatusPermission:
			s.OnLeave++
		}
	}
	return s
}

// StatusOf returns one employee's status today, not_yet_present when absent
// from rows.
func StatusOf(rows []DailyAttendance, nip string) DayStatus {
	for _, r := range rows {
		if r.NIP == nip {
			return r.Status
		}
	}
	return StatusNotYetPresent
}

// BuildTeachingBoard lists today's teaching journal entries. Rows without a
// readable timestamp are kept since the sheet already scopes them to today.
func BuildTeachingBoard(rows []TeachingLog, now time.Time, loc *time.Location) []TeachingSession {
	out := make([]TeachingSession, 0, len(rows))
	for _, t := range rows {
		if ts, ok := ParseTimestamp(t.Timestamp, loc); ok && !sameDay(ts, now, loc) {
			continue
		}
		s := TeachingSession{
			ID:        "teach-" + t.ID,
			NIP:       t.NIP,
			Name:      t.Name,
			Subject:   t.Subject,
			ClassName: t.ClassName,
			TimeRange: formatClock(t.StartTime, loc) + " - " + formatClock(t.EndTime, loc),
			EndTime:   t.EndTime,
		}
		if end, ok := clockOfCell(t.EndTime, loc); ok {
			s.Live = end.On(now, loc).After(now)
		}
		out = append(out, s)
	}
	return out
}

func FilterTeaching(rows []TeachingSession, q string) []TeachingSession {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return rows
	}
	out := make([]TeachingSession, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Subject), q) {
			out = append(out, r)
		}
	}
	return out
}

// clockOfCell reads a sheet time cell, which is either "HH:MM" text or a
// full timestamp.
func clockOfCell(raw string, loc *time.Location) (TimeOfDay, bool) {
	raw = strings.TrimSpace(raw)
	if m := clockPrefix.FindString(raw); m != "" {
		c, err := ParseTimeOfDay(m)
		return c, err == nil
	}
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return TimeOfDay{}, false
	}
	return TimeOfDayOf(t), true
}

func formatClock(raw string, loc *time.Location) string {
	if strings.TrimSpace(raw) == "" {
		return noClock
	}
	if c, ok := clockOfCell(raw, loc); ok {
		return c.String()
	}
	return raw
}

func strPtr(s string) *string { return &s }
