package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"presensi-backend/internal/photo"
	"presensi-backend/internal/roster"
	"presensi-backend/internal/sheets"
)

const (
	DefaultFreshness = 60 * time.Second
	MinReasonLength  = 10
	isoMillis        = "2006-01-02T15:04:05.000Z07:00"
)

// ClassOptions are the rooms a teaching journal may name.
var ClassOptions = func() []string {
	var out []string
	for _, grade := range []string{"VII", "VIII", "IX"} {
		for _, room := range "ABCDEFG" {
			out = append(out, grade+" - "+string(room))
		}
	}
	return out
}()

// ===== dependencies =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) { return ulid.Make().String(), nil }

type RosterSource interface {
	Employees(ctx context.Context) []roster.Employee
	FindByNIP(ctx context.Context, nip string) (roster.Employee, bool)
	Invalidate()
}

type LogView interface {
	Current(ctx context.Context, maxAge time.Duration) Snapshot
	Refresh(ctx context.Context) (Snapshot, error)
}

type Submitter interface {
	Submit(ctx context.Context, s sheets.Submission) error
}

type Deps struct {
	Roster    RosterSource
	Logs      LogView
	Submitter Submitter
	Store     Store
	Gate      *Gate
	Fence     Geofence
	// Freshness is how old the cached logs may be before a read refetches.
	Freshness time.Duration
}

// ===== Service =====

type Service struct {
	roster    RosterSource
	logs      LogView
	submitter Submitter
	store     Store
	gate      *Gate
	fence     Geofence
	freshness time.Duration
	clock     Clock
	id        IDGen
}

func NewService(d Deps) *Service {
	if d.Freshness <= 0 {
		d.Freshness = DefaultFreshness
	}
	return &Service{
		roster:    d.Roster,
		logs:      d.Logs,
		submitter: d.Submitter,
		store:     d.Store,
		gate:      d.Gate,
		fence:     d.Fence,
		freshness: d.Freshness,
		clock:     realClock{},
		id:        ulidGen{},
	}
}

func (s *Service) loc() *time.Location { return s.gate.Location() }

// Gate exposes the schedule rules for callers that render them.
func (s *Service) Gate() *Gate { return s.gate }

// GET /attendance/eligibility
func (s *Service) Eligibility(ctx context.Context, id Identity, deviceID string) (EligibilityResponse, error) {
	if deviceID == "" {
		return EligibilityResponse{}, ErrInvalid("X-Device-ID header is required")
	}
	now := s.clock.Now()
	day := DayKey(now, s.loc())
	lock, err := s.store.GetLock(ctx, deviceID, day)
	if err != nil {
		log.Printf("[ERROR] get device lock device=%s day=%s: %v", deviceID, day, err)
		return EligibilityResponse{}, ErrInternal("could not read device lock")
	}
	status := s.todayStatus(ctx, id.NIP, lock, now)
	local := now.In(s.loc())
	return EligibilityResponse{
		Date:            day,
		CanCheckIn:      s.gate.CanCheckIn(now, lock),
		CanCheckOut:     s.gate.CanCheckOut(now, lock, status),
		DepartureCutoff: s.gate.DepartureCutoff(local.Weekday()).String(),
		AfterCutoff:     s.gate.AfterDepartureCutoff(now),
		Lock:            lock,
		TodayStatus:     status,
	}, nil
}

// todayStatus reads the caller's status from the logs. A device that has
// already checked in counts as present even if the sheet has not caught up.
func (s *Service) todayStatus(ctx context.Context, nip string, lock DeviceLock, now time.Time) DayStatus {
	snap := s.logs.Current(ctx, s.freshness)
	rows := BuildDailyBoard([]roster.Employee{{NIP: nip}}, snap.Logs, now, s.gate)
	st := StatusOf(rows, nip)
	if st != StatusPresent && lock.CheckedIn {
		return StatusPresent
	}
	return st
}

// POST /attendance/check-in
func (s *Service) CheckIn(ctx context.Context, id Identity, deviceID string, req CheckRequest) (SubmissionResponse, error) {
	return s.submitAttendance(ctx, id, deviceID, EventIn, req)
}

// POST /attendance/check-out
func (s *Service) CheckOut(ctx context.Context, id Identity, deviceID string, req CheckRequest) (SubmissionResponse, error) {
	return s.submitAttendance(ctx, id, deviceID, EventOut, req)
}

func (s *Service) submitAttendance(ctx context.Context, id Identity, deviceID string, kind EventKind, req CheckRequest) (SubmissionResponse, error) {
	if deviceID == "" {
		return SubmissionResponse{}, ErrInvalid("X-Device-ID header is required")
	}

	fields := map[string]string{}
	selfie, err := requiredPhoto(req.Photo)
	if err != nil {
		fields["photo"] = err.Error()
	}
	var dist float64
	switch {
	case req.Location == nil:
		fields["location"] = "GPS location is required"
	case !req.Location.Valid():
		fields["location"] = "GPS location is out of range"
	default:
		var inside bool
		dist, inside = s.fence.Within(*req.Location)
		if !inside {
			fields["location"] = fmt.Sprintf("outside the school radius (%dm > %dm)",
				int(math.Round(dist)), int(math.Round(s.fence.RadiusMeters)))
		}
	}
	if len(fields) > 0 {
		return SubmissionResponse{}, ErrFields(fields)
	}

	now := s.clock.Now()
	day := DayKey(now, s.loc())
	lock, err := s.store.GetLock(ctx, deviceID, day)
	if err != nil {
		log.Printf("[ERROR] get device lock device=%s day=%s: %v", deviceID, day, err)
		return SubmissionResponse{}, ErrInternal("could not read device lock")
	}

	switch kind {
	case EventIn:
		if !s.gate.CanCheckIn(now, lock) {
			return SubmissionResponse{}, ErrConflict("this device has already checked in today")
		}
	case EventOut:
		status := s.todayStatus(ctx, id.NIP, lock, now)
		if !s.gate.CanCheckOut(now, lock, status) {
			switch {
			case lock.CheckedOut:
				return SubmissionResponse{}, ErrConflict("this device has already checked out today")
			case status != StatusPresent:
				return SubmissionResponse{}, ErrConflict("check in before checking out")
			default:
				cutoff := s.gate.DepartureCutoff(now.In(s.loc()).Weekday())
				return SubmissionResponse{}, ErrForbidden("check-out opens at " + cutoff.String())
			}
		}
	}

	emp, _ := s.roster.FindByNIP(ctx, id.NIP)
	res, err := s.send(ctx, id, emp, sheets.ActionAttendance, string(kind), deviceID, now, func(ref string) any {
		return attendancePayload{
			Ref:         ref,
			Type:        string(kind),
			Timestamp:   now.UTC().Format(isoMillis),
			Location:    req.Location.String(),
			Distance:    dist,
			PhotoBase64: selfie,
		}
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	res.DistanceMeters = &dist
	if kind == EventIn {
		late := s.gate.IsLate(now)
		res.Late = &late
	}
	// Only report the flag the store actually holds.
	if res.Accepted && res.journaled {
		if kind == EventIn {
			lock.CheckedIn = true
		} else {
			lock.CheckedOut = true
		}
	}
	res.Lock = &lock
	return res, nil
}

// POST /teaching
func (s *Service) SubmitTeaching(ctx context.Context, id Identity, req TeachingRequest) (SubmissionResponse, error) {
	emp, ok := s.roster.FindByNIP(ctx, id.NIP)
	if !ok {
		return SubmissionResponse{}, ErrNotFound("employee not found in roster")
	}
	if !emp.IsTeacher() {
		return SubmissionResponse{}, ErrForbidden("teaching journal is only for teaching staff")
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = "subject is required"
	}
	if !validClass(req.ClassName) {
		fields["class_name"] = "class must be one of " + strings.Join(ClassOptions, ", ")
	}
	start, errStart := ParseTimeOfDay(req.StartTime)
	end, errEnd := ParseTimeOfDay(req.EndTime)
	switch {
	case errStart != nil:
		fields["start_time"] = "start_time must be HH:MM"
	case errEnd != nil:
		fields["end_time"] = "end_time must be HH:MM"
	case !start.Before(end):
		fields["end_time"] = "end_time must be after start_time"
	}
	proof, err := requiredPhoto(req.Photo)
	if err != nil {
		fields["photo"] = err.Error()
	}
	if len(fields) > 0 {
		return SubmissionResponse{}, ErrFields(fields)
	}

	now := s.clock.Now()
	return s.send(ctx, id, emp, sheets.ActionTeaching, "", "", now, func(ref string) any {
		return teachingPayload{
			Ref:         ref,
			Subject:     strings.TrimSpace(req.Subject),
			ClassName:   req.ClassName,
			StartTime:   start.String(),
			EndTime:     end.String(),
			Timestamp:   now.UTC().Format(isoMillis),
			PhotoBase64: proof,
		}
	})
}

// POST /leaves
func (s *Service) SubmitLeave(ctx context.Context, id Identity, req LeaveRequest) (SubmissionResponse, error) {
	fields := map[string]string{}
	kind, ok := ParseLeaveKind(req.LeaveType)
	if !ok {
		fields["leave_type"] = "leave_type must be Izin, Sakit or Dinas"
	}
	start, errStart := time.ParseInLocation(DateLayout, strings.TrimSpace(req.StartDate), s.loc())
	end, errEnd := time.ParseInLocation(DateLayout, strings.TrimSpace(req.EndDate), s.loc())
	switch {
	case errStart != nil:
		fields["start_date"] = "start_date must be YYYY-MM-DD"
	case errEnd != nil:
		fields["end_date"] = "end_date must be YYYY-MM-DD"
	case end.Before(start):
		fields["end_date"] = "end_date must not be before start_date"
	}
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) < MinReasonLength {
		fields["reason"] = fmt.Sprintf("reason must be at least %d characters", MinReasonLength)
	}
	attachment, err := optionalAttachment(req.Attachment)
	if err != nil {
		fields["attachment"] = err.Error()
	}
	if len(fields) > 0 {
		return SubmissionResponse{}, ErrFields(fields)
	}

	emp, _ := s.roster.FindByNIP(ctx, id.NIP)
	now := s.clock.Now()
	return s.send(ctx, id, emp, sheets.ActionLeave, string(kind), "", now, func(ref string) any {
		return leavePayload{
			Ref:              ref,
			LeaveType:        string(kind),
			StartDate:        start.Format(DateLayout),
			EndDate:          end.Format(DateLayout),
			Reason:           reason,
			Timestamp:        now.UTC().Format(isoMillis),
			AttachmentBase64: attachment,
		}
	})
}

// send forwards one submission and journals the outcome. A rejected
// submission is not an error: the response carries Accepted=false.
func (s *Service) send(ctx context.Context, id Identity, emp roster.Employee, action sheets.Action, kind, deviceID string, now time.Time, data func(ref string) any) (SubmissionResponse, error) {
	ref, err := s.id.New()
	if err != nil {
		return SubmissionResponse{}, ErrInternal("could not allocate reference")
	}

	user := sheets.SubmissionUser{Name: id.Name, NIP: id.NIP, Role: id.Role}
	if emp.NIP != "" {
		user.Name = emp.DisplayName()
		user.Role = emp.Role
	}

	accepted := true
	if err := s.submitter.Submit(ctx, sheets.Submission{Action: action, User: user, Data: data(ref)}); err != nil {
		log.Printf("[WARN] submission %s %s nip=%s not accepted: %v", ref, action, id.NIP, err)
		accepted = false
	}

	rec := SubmissionRecord{
		Ref:         ref,
		Action:      action,
		Kind:        kind,
		NIP:         id.NIP,
		DeviceID:    deviceID,
		Day:         DayKey(now, s.loc()),
		Accepted:    accepted,
		SubmittedAt: now,
	}
	journaled := true
	if err := s.store.Record(ctx, rec); err != nil {
		// The sheet already has the row; report the outcome and keep going.
		log.Printf("[ERROR] journal submission %s: %v", ref, err)
		journaled = false
	} else if accepted {
		log.Printf("[INFO] submission %s %s %s nip=%s accepted", ref, action, kind, id.NIP)
	}

	return SubmissionResponse{Ref: ref, Action: string(action), Kind: kind, Accepted: accepted, journaled: journaled}, nil
}

// GET /admin/daily
func (s *Service) DailyBoard(ctx context.Context, q string) DailyBoardResponse {
	now := s.clock.Now()
	staff := roster.Staff(s.roster.Employees(ctx))
	snap := s.logs.Current(ctx, s.freshness)
	if !snap.OK {
		// No log source: report nothing rather than everyone as absent.
		return DailyBoardResponse{
			Date:       DayKey(now, s.loc()),
			Attendance: []DailyAttendance{},
			Teaching:   []TeachingSession{},
		}
	}

	rows := BuildDailyBoard(staff, snap.Logs, now, s.gate)
	for i := range rows {
		if rows[i].Location == nil {
			continue
		}
		// Older rows may hold free text instead of coordinates.
		if c, err := ParseCoordinate(*rows[i].Location); err == nil {
			d, _ := s.fence.Within(c)
			rows[i].DistanceM = &d
		}
	}
	teaching := BuildTeachingBoard(snap.Logs.Teaching, now, s.loc())
	return DailyBoardResponse{
		Date:       DayKey(now, s.loc()),
		Stats:      Summarize(rows, teaching),
		Attendance: FilterDaily(rows, q),
		Teaching:   FilterTeaching(teaching, q),
		FetchedAt:  fetchedAt(snap),
	}
}

// GET /admin/recap
func (s *Service) MonthlyRecap(ctx context.Context, month, year int) (RecapResponse, error) {
	if month < 1 || month > 12 {
		return RecapResponse{}, ErrInvalid("month must be 1-12")
	}
	if year < 2000 || year > 2100 {
		return RecapResponse{}, ErrInvalid("year must be 2000-2100")
	}
	now := s.clock.Now()
	staff := roster.Staff(s.roster.Employees(ctx))
	snap := s.logs.Current(ctx, s.freshness)

	m := time.Month(month)
	items := []MonthlyRecap{}
	if snap.OK {
		items = ComputeRecap(staff, snap.Logs.Attendance, snap.Logs.Leaves, m, year, now, s.loc())
	}
	effective := 0
	if limit := LimitDay(m, year, now, s.loc()); limit > 0 {
		effective = EffectiveDays(m, year, limit, s.loc())
	}
	return RecapResponse{
		Month:         month,
		Year:          year,
		EffectiveDays: effective,
		Items:         items,
		FetchedAt:     fetchedAt(snap),
	}, nil
}

// POST /admin/refresh
func (s *Service) Refresh(ctx context.Context) (RefreshResponse, error) {
	s.roster.Invalidate()
	snap, err := s.logs.Refresh(ctx)
	if err != nil {
		return RefreshResponse{}, ErrUnavailable("spreadsheet unreachable: " + err.Error())
	}
	return RefreshResponse{
		FetchedAt:  snap.FetchedAt,
		Attendance: len(snap.Logs.Attendance),
		Leaves:     len(snap.Logs.Leaves),
		Teaching:   len(snap.Logs.Teaching),
	}, nil
}

// GET /me
func (s *Service) Profile(ctx context.Context, id Identity) (ProfileResponse, error) {
	emp, ok := s.roster.FindByNIP(ctx, id.NIP)
	if !ok {
		return ProfileResponse{}, ErrNotFound("employee not found in roster")
	}
	return ProfileResponse{
		Username:         emp.Username,
		Name:             emp.DisplayName(),
		NIP:              emp.NIP,
		JobTitle:         emp.Role,
		School:           emp.School,
		EmploymentStatus: emp.Status,
		Avatar:           emp.Avatar,
		Category:         emp.Category(),
		Role:             emp.AppRole(),
	}, nil
}

// ===== helpers =====

func validClass(c string) bool {
	for _, o := range ClassOptions {
		if c == o {
			return true
		}
	}
	return false
}

// requiredPhoto decodes a selfie or proof photo and recompresses it.
func requiredPhoto(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("photo is required")
	}
	d, err := photo.ParseDataURL(raw)
	if err != nil {
		return "", dataURLError(err)
	}
	if !d.IsImage() {
		return "", errors.New("photo must be an image")
	}
	out, err := photo.Compress(d)
	if err != nil {
		return "", errors.New("photo could not be decoded")
	}
	return out.String(), nil
}

// optionalAttachment accepts any file type; images are recompressed.
func optionalAttachment(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	out, err := photo.CompressString(raw)
	if err != nil {
		return "", dataURLError(err)
	}
	return out, nil
}

func dataURLError(err error) error {
	if errors.Is(err, photo.ErrTooLarge) {
		return errors.New("file must not exceed 10MB")
	}
	if errors.Is(err, photo.ErrNotDataURL) {
		return errors.New("not a valid base64 data URL")
	}
	return errors.New("file could not be decoded")
}

func fetchedAt(s Snapshot) *time.Time {
	if !s.OK {
		return nil
	}
	t := s.FetchedAt
	return &t
}
