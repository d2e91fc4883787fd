package attendance

import (
	"math"
	"sort"
	"strings"
	"time"

	"presensi-backend/internal/roster"
)

// LimitDay is the last day of the month that counts towards a recap: today's
// day for the running month, the month's length for a past month and 0 for a
// month that has not started.
func LimitDay(month time.Month, year int, today time.Time, loc *time.Location) int {
	ty, tm, td := today.In(loc).Date()
	switch {
	case year == ty && month == tm:
		return td
	case year < ty || (year == ty && month < tm):
		return daysIn(month, year, loc)
	default:
		return 0
	}
}

func daysIn(month time.Month, year int, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// EffectiveDays counts Monday to Friday in [1, limitDay], never less than 1.
func EffectiveDays(month time.Month, year, limitDay int, loc *time.Location) int {
	n := 0
	for d := 1; d <= limitDay; d++ {
		switch time.Date(year, month, d, 12, 0, 0, 0, loc).Weekday() {
		case time.Saturday, time.Sunday:
		default:
			n++
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

type recapCounts struct {
	days       map[string]struct{}
	sick       int
	permission int
}

// ComputeRecap builds one MonthlyRecap per employee, ordered by percentage
// descending with ties left in roster order. Rows whose timestamp cannot be
// read are ignored.
func ComputeRecap(emps []roster.Employee, att []AttendanceLog, leaves []LeaveLog, month time.Month, year int, today time.Time, loc *time.Location) []MonthlyRecap {
	limit := LimitDay(month, year, today, loc)
	effective := EffectiveDays(month, year, limit, loc)

	inMonth := func(raw string) (time.Time, bool) {
		t, ok := ParseTimestamp(raw, loc)
		if !ok || t.Year() != year || t.Month() != month {
			return time.Time{}, false
		}
		return t, true
	}

	counts := make(map[string]*recapCounts, len(emps))
	get := func(nip string) *recapCounts {
		c, ok := counts[nip]
		if !ok {
			c = &recapCounts{days: make(map[string]struct{})}
			counts[nip] = c
		}
		return c
	}

	if limit > 0 {
		for _, a := range att {
			if a.Kind != EventIn {
				continue
			}
			t, ok := inMonth(a.Timestamp)
			if !ok {
				continue
			}
			get(strings.TrimSpace(a.NIP)).days[t.Format(DateLayout)] = struct{}{}
		}
		for _, l := range leaves {
			if _, ok := inMonth(l.Timestamp); !ok {
				continue
			}
			kind, ok := ParseLeaveKind(l.Status)
			if !ok {
				continue
			}
			c := get(strings.TrimSpace(l.NIP))
			if kind == LeaveSick {
				c.sick++
			} else if kind.CountsAsPermission() {
				c.permission++
			}
		}
	}

	out := make([]MonthlyRecap, 0, len(emps))
	for _, e := range emps {
		r := MonthlyRecap{
			NIP:      e.NIP,
			Name:     e.DisplayName(),
			Category: e.Category(),
		}
		if limit > 0 {
			r.EffectiveDays = effective
			nip := strings.TrimSpace(e.NIP)
			if c, ok := counts[nip]; ok && nip != "" {
				r.Present = len(c.days)
				r.Sick = c.sick
				r.Permission = c.permission
			}
			r.Absent = max(0, effective-(r.Present+r.Sick+r.Permission))
			r.Percentage = int(math.Round(float64(r.Present) / float64(effective) * 100))
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return out
}

// FilterRecap keeps rows whose name contains q (any case) or whose NIP
// contains q.
func FilterRecap(rows []MonthlyRecap, q string) []MonthlyRecap {
	q = strings.TrimSpace(q)
	if q == "" {
		return rows
	}
	lq := strings.ToLower(q)
	out := make([]MonthlyRecap, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), lq) || strings.Contains(r.NIP, q) {
			out = append(out, r)
		}
	}
	return out
}
