package attendance

import "time"

// Identity is the authenticated caller, taken from the access token.
type Identity struct {
	NIP  string
	Name string
	Role string
}

// ---------- requests ----------

type CheckRequest struct {
	Photo    string      `json:"photo"`
	Location *Coordinate `json:"location"`
}

type TeachingRequest struct {
	Subject   string `json:"subject"`
	ClassName string `json:"class_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Photo     string `json:"photo"`
}

type LeaveRequest struct {
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
	Attachment string `json:"attachment,omitempty"`
}

// ---------- responses ----------

type EligibilityResponse struct {
	Date            string     `json:"date"`
	CanCheckIn      bool       `json:"can_check_in"`
	CanCheckOut     bool       `json:"can_check_out"`
	DepartureCutoff string     `json:"departure_cutoff"`
	AfterCutoff     bool       `json:"after_cutoff"`
	Lock            DeviceLock `json:"lock"`
	TodayStatus     DayStatus  `json:"today_status"`
}

type SubmissionResponse struct {
	Ref            string      `json:"ref"`
	Action         string      `json:"action"`
	Kind           string      `json:"kind,omitempty"`
	Accepted       bool        `json:"accepted"`
	DistanceMeters *float64    `json:"distance_m,omitempty"`
	Late           *bool       `json:"late,omitempty"`
	Lock           *DeviceLock `json:"lock,omitempty"`

	journaled bool
}

type DailyBoardResponse struct {
	Date       string            `json:"date"`
	Stats      DailyStats        `json:"stats"`
	Attendance []DailyAttendance `json:"attendance"`
	Teaching   []TeachingSession `json:"teaching"`
	FetchedAt  *time.Time        `json:"fetched_at"`
}

type RecapResponse struct {
	Month         int            `json:"month"`
	Year          int            `json:"year"`
	EffectiveDays int            `json:"effective_days"`
	Items         []MonthlyRecap `json:"items"`
	FetchedAt     *time.Time     `json:"fetched_at"`
}

type RefreshResponse struct {
	FetchedAt  time.Time `json:"fetched_at"`
	Attendance int       `json:"attendance"`
	Leaves     int       `json:"leaves"`
	Teaching   int       `json:"teaching"`
}

type ProfileResponse struct {
	Username         string `json:"username"`
	Name             string `json:"name"`
	NIP              string `json:"nip"`
	JobTitle         string `json:"job_title"`
	School           string `json:"school"`
	EmploymentStatus string `json:"employment_status"`
	Avatar           string `json:"avatar,omitempty"`
	Category         string `json:"category"`
	Role             string `json:"role"`
}

// ---------- payloads forwarded to the sheet ----------

type attendancePayload struct {
	Ref         string  `json:"ref"`
	Type        string  `json:"type"`
	Timestamp   string  `json:"timestamp"`
	Location    string  `json:"location"`
	Distance    float64 `json:"distance"`
	PhotoBase64 string  `json:"photoBase64"`
}

type teachingPayload struct {
	Ref         string `json:"ref"`
	Subject     string `json:"subject"`
	ClassName   string `json:"className"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Timestamp   string `json:"timestamp"`
	PhotoBase64 string `json:"photoBase64"`
}

type leavePayload struct {
	Ref              string `json:"ref"`
	LeaveType        string `json:"leaveType"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	Reason           string `json:"reason"`
	Timestamp        string `json:"timestamp"`
	AttachmentBase64 string `json:"attachmentBase64,omitempty"`
}
