package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type EventKind string

const (
	EventIn  EventKind = "IN"
	EventOut EventKind = "OUT"
)

func ParseEventKind(s string) (EventKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN":
		return EventIn, true
	case "OUT":
		return EventOut, true
	}
	return "", false
}

// LeaveKind values are the spreadsheet's own labels.
type LeaveKind string

const (
	LeaveSick       LeaveKind = "Sakit"
	LeavePermission LeaveKind = "Izin"
	LeaveDuty       LeaveKind = "Dinas"
)

func ParseLeaveKind(s string) (LeaveKind, bool) {
	s = strings.TrimSpace(s)
	for _, k := range []LeaveKind{LeaveSick, LeavePermission, LeaveDuty} {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// Official duty is reported together with permission.
func (k LeaveKind) CountsAsPermission() bool {
	return k == LeavePermission || k == LeaveDuty
}

type DayStatus string

const (
	StatusPresent       DayStatus = "present"
	StatusSick          DayStatus = "sick"
	StatusPermission    DayStatus = "permission"
	StatusNotYetPresent DayStatus = "not_yet_present"
)

// Label is the wording used on the admin board.
func (s DayStatus) Label() string {
	switch s {
	case StatusPresent:
		return "HADIR"
	case StatusSick:
		return "SAKIT"
	case StatusPermission:
		return "IZIN"
	default:
		return "BELUM HADIR"
	}
}

// DeviceLock guards one device against a second check-in or check-out on
// the same calendar day.
type DeviceLock struct {
	CheckedIn  bool `json:"checked_in"`
	CheckedOut bool `json:"checked_out"`
}

// TimeOfDay is a wall-clock time of day with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "H:MM", "HH:MM" and "HH:MM:SS"; seconds are dropped.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return TimeOfDay{}, fmt.Errorf("invalid clock %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid clock %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return TimeOfDay{}, fmt.Errorf("invalid clock %q", s)
		}
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func TimeOfDayOf(t time.Time) TimeOfDay { return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()} }

func (c TimeOfDay) Minutes() int { return c.Hour*60 + c.Minute }

func (c TimeOfDay) Before(o TimeOfDay) bool { return c.Minutes() < o.Minutes() }

func (c TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// On places the clock on t's calendar day in loc.
func (c TimeOfDay) On(t time.Time, loc *time.Location) time.Time {
	y, mo, d := t.In(loc).Date()
	return time.Date(y, mo, d, c.Hour, c.Minute, 0, 0, loc)
}

// Raw log rows as read from the spreadsheet. Timestamps stay unparsed until
// aggregation so a malformed cell only drops its own row.

type AttendanceLog struct {
	NIP       string
	Kind      EventKind
	Timestamp string
	Location  string
	Photo     string
}

type LeaveLog struct {
	NIP        string
	Status     string
	StartDate  string
	EndDate    string
	Reason     string
	Timestamp  string
	Attachment string
}

type TeachingLog struct {
	ID        string
	NIP       string
	Name      string
	Subject   string
	ClassName string
	StartTime string
	EndTime   string
	Timestamp string
}

type Logs struct {
	Attendance []AttendanceLog
	Leaves     []LeaveLog
	Teaching   []TeachingLog
}

// MonthlyRecap is one employee's attendance for a month. Percentage is
// present days over EffectiveDays.
type MonthlyRecap struct {
	NIP           string `json:"nip"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Present       int    `json:"present"`
	Sick          int    `json:"sick"`
	Permission    int    `json:"permission"`
	Absent        int    `json:"absent"`
	Percentage    int    `json:"percentage"`
	EffectiveDays int    `json:"effective_days"`
}

type DailyAttendance struct {
	NIP         string    `json:"nip"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	TimeIn      *string   `json:"time_in"`
	TimeOut     *string   `json:"time_out"`
	Status      DayStatus `json:"status"`
	StatusLabel string    `json:"status_label"`
	PhotoURL    *string   `json:"photo_url"`
	IsLate      bool      `json:"is_late"`
	Location    *string   `json:"location,omitempty"`
	DistanceM   *float64  `json:"distance_m,omitempty"`
}

type TeachingSession struct {
	ID        string `json:"id"`
	NIP       string `json:"nip,omitempty"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	ClassName string `json:"class_name"`
	TimeRange string `json:"time_range"`
	EndTime   string `json:"end_time"`
	Live      bool   `json:"live"`
}

type DailyStats struct {
	Total    int `json:"total"`
	Present  int `json:"present"`
	OnLeave  int `json:"on_leave"`
	Teaching int `json:"teaching"`
}
