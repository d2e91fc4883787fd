package sheets

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text accepts JSON strings, numbers and null. Sheet cells that look numeric
// (NIP, ids) come back from the web app as numbers.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Text(strconv.FormatBool(v))
	return nil
}

func (t Text) String() string { return string(t) }

type AttendanceLog struct {
	NIP       Text `json:"nip"`
	Name      Text `json:"name"`
	Type      Text `json:"type"`
	Timestamp Text `json:"timestamp"`
	Location  Text `json:"location"`
	Photo     Text `json:"photo"`
}

type TeachingLog struct {
	ID        Text `json:"id"`
	NIP       Text `json:"nip"`
	Name      Text `json:"name"`
	Subject   Text `json:"subject"`
	ClassName Text `json:"className"`
	StartTime Text `json:"startTime"`
	EndTime   Text `json:"endTime"`
	Timestamp Text `json:"timestamp"`
	Photo     Text `json:"photo"`
}

type LeaveLog struct {
	NIP        Text `json:"nip"`
	Name       Text `json:"name"`
	Status     Text `json:"status"`
	StartDate  Text `json:"startDate"`
	EndDate    Text `json:"endDate"`
	Reason     Text `json:"reason"`
	Timestamp  Text `json:"timestamp"`
	Attachment Text `json:"attachment"`
}

// Dashboard is the web app's GET_DASHBOARD_DATA payload.
type Dashboard struct {
	Attendance []AttendanceLog `json:"attendance"`
	Teaching   []TeachingLog   `json:"teaching"`
	Leaves     []LeaveLog      `json:"leaves"`
}

type Action string

const (
	ActionAttendance Action = "ATTENDANCE"
	ActionTeaching   Action = "TEACHING"
	ActionLeave      Action = "LEAVE"
)

type SubmissionUser struct {
	Name string `json:"name"`
	NIP  string `json:"nip"`
	Role string `json:"role"`
}

type Submission struct {
	Action Action         `json:"action"`
	User   SubmissionUser `json:"user"`
	Data   any            `json:"data"`
}
