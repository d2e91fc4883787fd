package attendance

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi-backend/internal/roster"
	"presensi-backend/internal/sheets"
)

// ---------- fakes ----------

type stubRoster struct {
	emps        []roster.Employee
	invalidated int
}

func (r *stubRoster) Employees(context.Context) []roster.Employee { return r.emps }
func (r *stubRoster) Invalidate()                                 { r.invalidated++ }

func (r *stubRoster) FindByNIP(_ context.Context, nip string) (roster.Employee, bool) {
	nip = strings.TrimSpace(nip)
	for _, e := range r.emps {
		if nip != "" && strings.TrimSpace(e.NIP) == nip {
			return e, true
		}
	}
	return roster.Employee{}, false
}

type stubLogs struct {
	snap Snapshot
	err  error
}

func (l *stubLogs) Current(context.Context, time.Duration) Snapshot { return l.snap }
func (l *stubLogs) Refresh(context.Context) (Snapshot, error)       { return l.snap, l.err }

type recordingSubmitter struct {
	mu   sync.Mutex
	got  []sheets.Submission
	fail error
}

func (s *recordingSubmitter) Submit(_ context.Context, sub sheets.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, sub)
	return s.fail
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqID struct{ n int }

func (g *seqID) New() (string, error) {
	g.n++
	return fmt.Sprintf("REF%03d", g.n), nil
}

type harness struct {
	svc    *Service
	roster *stubRoster
	logs   *stubLogs
	sub    *recordingSubmitter
	store  *MemoryStore
	clock  *fixedClock
}

var (
	teacher = roster.Employee{Username: "guru1", Name: "Ahmad", NIP: "1985", Role: "Guru Matematika"}
	clerk   = roster.Employee{Username: "tu1", Name: "Budi", NIP: "1990", Role: "Staf TU"}
	admin   = roster.Employee{Username: "admin1", Name: "Siti", NIP: "1970", Role: "Admin"}
)

func newHarness(now time.Time) *harness {
	h := &harness{
		roster: &stubRoster{emps: []roster.Employee{teacher, clerk, admin}},
		logs:   &stubLogs{},
		sub:    &recordingSubmitter{},
		store:  NewMemoryStore(),
		clock:  &fixedClock{t: now},
	}
	h.svc = NewService(Deps{
		Roster:    h.roster,
		Logs:      h.logs,
		Submitter: h.sub,
		Store:     h.store,
		Gate:      NewGate(DefaultSchedule, wib),
		Fence:     Geofence{Center: school, RadiusMeters: 50},
	})
	h.svc.clock = h.clock
	h.svc.id = &seqID{}
	return h
}

func testJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func apiCode(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return ""
}

var (
	ahmad  = Identity{NIP: "1985", Name: "Ahmad", Role: "staff"}
	inside = &Coordinate{Lat: school.Lat + 0.0001, Lng: school.Lng}
)

// ---------- attendance ----------

func TestCheckInSetsLockAndForwards(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 7, 35, 0))
	ctx := context.Background()

	res, err := h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: testJPEG(t, 960, 1280), Location: inside})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "REF001", res.Ref)
	require.NotNil(t, res.Late)
	assert.True(t, *res.Late)
	assert.Equal(t, DeviceLock{CheckedIn: true}, *res.Lock)

	require.Len(t, h.sub.got, 1)
	sub := h.sub.got[0]
	assert.Equal(t, sheets.ActionAttendance, sub.Action)
	assert.Equal(t, sheets.SubmissionUser{Name: "Ahmad", NIP: "1985", Role: "Guru Matematika"}, sub.User)
	p := sub.Data.(attendancePayload)
	assert.Equal(t, "IN", p.Type)
	assert.Equal(t, "REF001", p.Ref)
	assert.Equal(t, "2024-06-04T00:35:00.000Z", p.Timestamp)
	assert.True(t, strings.HasPrefix(p.PhotoBase64, "data:image/jpeg;base64,"))
	assert.Less(t, p.Distance, 50.0)

	lock, err := h.store.GetLock(ctx, "dev-1", "2024-06-04")
	require.NoError(t, err)
	assert.True(t, lock.CheckedIn)

	_, err = h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside})
	assert.Equal(t, CodeConflict, apiCode(err))

	// another device is not locked
	_, err = h.svc.CheckIn(ctx, ahmad, "dev-2", CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside})
	assert.NoError(t, err)
}

func TestCheckInValidation(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 7, 0, 0))
	ctx := context.Background()

	_, err := h.svc.CheckIn(ctx, ahmad, "", CheckRequest{})
	assert.Equal(t, CodeInvalidArgument, apiCode(err))

	_, err = h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{})
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Contains(t, api.Fields, "photo")
	assert.Contains(t, api.Fields, "location")

	far := &Coordinate{Lat: school.Lat + 0.01, Lng: school.Lng}
	_, err = h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: testJPEG(t, 10, 10), Location: far})
	require.ErrorAs(t, err, &api)
	assert.Contains(t, api.Fields["location"], "outside the school radius")
	assert.NotContains(t, api.Fields, "photo")

	pdf := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	_, err = h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: pdf, Location: inside})
	require.ErrorAs(t, err, &api)
	assert.Equal(t, "photo must be an image", api.Fields["photo"])

	assert.Empty(t, h.sub.got)
}

func TestRejectedSubmissionLeavesLockOpen(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 7, 0, 0))
	h.sub.fail = errors.New("502 from web app")
	ctx := context.Background()

	res, err := h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, DeviceLock{}, *res.Lock)

	lock, _ := h.store.GetLock(ctx, "dev-1", "2024-06-04")
	assert.False(t, lock.CheckedIn)
	require.Len(t, h.store.Journal(), 1)
	assert.False(t, h.store.Journal()[0].Accepted)
}

type brokenJournal struct{ *MemoryStore }

func (brokenJournal) Record(context.Context, SubmissionRecord) error {
	return errors.New("connection reset")
}

func TestJournalFailureKeepsLockOpen(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 7, 0, 0))
	h.svc.store = brokenJournal{h.store}
	ctx := context.Background()

	res, err := h.svc.CheckIn(ctx, ahmad, "dev-1", CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	require.NotNil(t, res.Lock)
	assert.False(t, res.Lock.CheckedIn)

	e, err := h.svc.Eligibility(ctx, ahmad, "dev-1")
	require.NoError(t, err)
	assert.True(t, e.CanCheckIn)
}

func TestCheckOutRules(t *testing.T) {
	// Friday
	h := newHarness(at(2024, 6, 7, 10, 30, 0))
	ctx := context.Background()
	req := CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside}

	_, err := h.svc.CheckOut(ctx, ahmad, "dev-1", req)
	assert.Equal(t, CodeConflict, apiCode(err), "not checked in yet")

	_, err = h.svc.CheckIn(ctx, ahmad, "dev-1", req)
	require.NoError(t, err)

	_, err = h.svc.CheckOut(ctx, ahmad, "dev-1", req)
	assert.Equal(t, CodeForbidden, apiCode(err))
	assert.Contains(t, err.Error(), "11:00")

	h.clock.t = at(2024, 6, 7, 11, 0, 0)
	res, err := h.svc.CheckOut(ctx, ahmad, "dev-1", req)
	require.NoError(t, err)
	assert.Equal(t, DeviceLock{CheckedIn: true, CheckedOut: true}, *res.Lock)
	assert.Nil(t, res.Late)

	_, err = h.svc.CheckOut(ctx, ahmad, "dev-1", req)
	assert.Equal(t, CodeConflict, apiCode(err))
}

func TestCheckOutUsesLogsForStatus(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 15, 0, 0))
	h.logs.snap = Snapshot{OK: true, Logs: Logs{Attendance: []AttendanceLog{
		{NIP: "1985", Kind: EventIn, Timestamp: "2024-06-04T07:00:00"},
	}}}

	// checked in from another device earlier
	res, err := h.svc.CheckOut(context.Background(), ahmad, "dev-9", CheckRequest{Photo: testJPEG(t, 10, 10), Location: inside})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestEligibility(t *testing.T) {
	h := newHarness(at(2024, 6, 6, 14, 15, 0))
	ctx := context.Background()

	e, err := h.svc.Eligibility(ctx, ahmad, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, EligibilityResponse{
		Date:            "2024-06-06",
		CanCheckIn:      true,
		CanCheckOut:     false,
		DepartureCutoff: "14:10",
		AfterCutoff:     true,
		TodayStatus:     StatusNotYetPresent,
	}, e)

	require.NoError(t, h.store.Record(ctx, SubmissionRecord{
		Ref: "x", Action: sheets.ActionAttendance, Kind: "IN", NIP: "1985",
		DeviceID: "dev-1", Day: "2024-06-06", Accepted: true, SubmittedAt: h.clock.t,
	}))
	e, err = h.svc.Eligibility(ctx, ahmad, "dev-1")
	require.NoError(t, err)
	assert.False(t, e.CanCheckIn)
	assert.True(t, e.CanCheckOut)
	assert.Equal(t, StatusPresent, e.TodayStatus)

	_, err = h.svc.Eligibility(ctx, ahmad, "")
	assert.Equal(t, CodeInvalidArgument, apiCode(err))
}

// ---------- teaching / leave ----------

func TestSubmitTeaching(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	ctx := context.Background()
	req := TeachingRequest{Subject: "Matematika", ClassName: "VIII - C", StartTime: "09:00", EndTime: "10:20", Photo: testJPEG(t, 10, 10)}

	res, err := h.svc.SubmitTeaching(ctx, ahmad, req)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	p := h.sub.got[0].Data.(teachingPayload)
	assert.Equal(t, "VIII - C", p.ClassName)
	assert.Equal(t, "10:20", p.EndTime)

	_, err = h.svc.SubmitTeaching(ctx, Identity{NIP: "1990"}, req)
	assert.Equal(t, CodeForbidden, apiCode(err))
	_, err = h.svc.SubmitTeaching(ctx, Identity{NIP: "404"}, req)
	assert.Equal(t, CodeNotFound, apiCode(err))

	bad := req
	bad.ClassName = "X - A"
	bad.EndTime = "09:00"
	bad.Subject = " "
	_, err = h.svc.SubmitTeaching(ctx, ahmad, bad)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Contains(t, api.Fields, "class_name")
	assert.Contains(t, api.Fields, "subject")
	assert.Equal(t, "end_time must be after start_time", api.Fields["end_time"])
}

func TestSubmitLeave(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	ctx := context.Background()
	req := LeaveRequest{LeaveType: "sakit", StartDate: "2024-06-04", EndDate: "2024-06-05", Reason: "Demam tinggi sejak malam"}

	res, err := h.svc.SubmitLeave(ctx, ahmad, req)
	require.NoError(t, err)
	assert.Equal(t, "Sakit", res.Kind)
	p := h.sub.got[0].Data.(leavePayload)
	assert.Equal(t, "Sakit", p.LeaveType)
	assert.Empty(t, p.AttachmentBase64)

	withPDF := req
	withPDF.Attachment = "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	_, err = h.svc.SubmitLeave(ctx, ahmad, withPDF)
	require.NoError(t, err)
	assert.Equal(t, withPDF.Attachment, h.sub.got[1].Data.(leavePayload).AttachmentBase64)

	bad := LeaveRequest{LeaveType: "Cuti", StartDate: "2024-06-05", EndDate: "2024-06-04", Reason: "pusing", Attachment: "%%%"}
	_, err = h.svc.SubmitLeave(ctx, ahmad, bad)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Len(t, api.Fields, 4)
	assert.Contains(t, api.Fields, "leave_type")
	assert.Contains(t, api.Fields, "end_date")
	assert.Contains(t, api.Fields, "reason")
	assert.Contains(t, api.Fields, "attachment")
}

// ---------- admin ----------

func TestDailyBoardExcludesAdmins(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	h.logs.snap = Snapshot{OK: true, FetchedAt: h.clock.t, Logs: Logs{
		Attendance: []AttendanceLog{{NIP: "1990", Kind: EventIn, Timestamp: "2024-06-04T06:55:00", Location: school.String()}},
		Teaching:   []TeachingLog{{ID: "1", Name: "Ahmad", Subject: "Matematika", StartTime: "08:00", EndTime: "09:30"}},
	}}

	b := h.svc.DailyBoard(context.Background(), "")
	assert.Equal(t, "2024-06-04", b.Date)
	require.Len(t, b.Attendance, 2)
	assert.Equal(t, "Budi", b.Attendance[0].Name)
	require.NotNil(t, b.Attendance[0].DistanceM)
	assert.InDelta(t, 0, *b.Attendance[0].DistanceM, 0.5)
	assert.Nil(t, b.Attendance[1].DistanceM)
	assert.Equal(t, DailyStats{Total: 2, Present: 1, Teaching: 1}, b.Stats)
	require.NotNil(t, b.FetchedAt)
	assert.True(t, b.Teaching[0].Live)

	filtered := h.svc.DailyBoard(context.Background(), "ahm")
	require.Len(t, filtered.Attendance, 1)
	assert.Equal(t, 2, filtered.Stats.Total)
}

func TestDailyBoardWithoutLogs(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	b := h.svc.DailyBoard(context.Background(), "")
	assert.Equal(t, "2024-06-04", b.Date)
	assert.Nil(t, b.FetchedAt)
	assert.NotNil(t, b.Attendance)
	assert.Empty(t, b.Attendance)
	assert.Empty(t, b.Teaching)
	assert.Equal(t, DailyStats{}, b.Stats)

	// A reachable sheet with no rows yet lists everyone as not yet present.
	h.logs.snap = Snapshot{OK: true, FetchedAt: h.clock.t}
	b = h.svc.DailyBoard(context.Background(), "")
	require.Len(t, b.Attendance, 2)
	assert.Equal(t, StatusNotYetPresent, b.Attendance[0].Status)
}

func TestMonthlyRecap(t *testing.T) {
	h := newHarness(at(2024, 6, 10, 12, 0, 0))
	h.logs.snap = Snapshot{OK: true, Logs: Logs{Attendance: []AttendanceLog{
		{NIP: "1985", Kind: EventIn, Timestamp: "2024-06-03T06:50:00"},
		{NIP: "1970", Kind: EventIn, Timestamp: "2024-06-03T06:50:00"},
	}}}

	r, err := h.svc.MonthlyRecap(context.Background(), 6, 2024)
	require.NoError(t, err)
	assert.Equal(t, 6, r.EffectiveDays)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "1985", r.Items[0].NIP)
	assert.Equal(t, 17, r.Items[0].Percentage)

	r, err = h.svc.MonthlyRecap(context.Background(), 7, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, r.EffectiveDays)

	_, err = h.svc.MonthlyRecap(context.Background(), 13, 2024)
	assert.Equal(t, CodeInvalidArgument, apiCode(err))
	_, err = h.svc.MonthlyRecap(context.Background(), 1, 1999)
	assert.Equal(t, CodeInvalidArgument, apiCode(err))
}

func TestMonthlyRecapWithoutLogSource(t *testing.T) {
	h := newHarness(at(2024, 6, 10, 12, 0, 0))
	h.logs.snap = Snapshot{OK: false}

	r, err := h.svc.MonthlyRecap(context.Background(), 6, 2024)
	require.NoError(t, err)
	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
	assert.Nil(t, r.FetchedAt)
	assert.Equal(t, 6, r.EffectiveDays)
}

func TestMonthlyRecapWithoutRoster(t *testing.T) {
	h := newHarness(at(2024, 6, 10, 12, 0, 0))
	h.roster.emps = nil
	h.logs.snap = Snapshot{OK: true, FetchedAt: h.clock.t, Logs: Logs{Attendance: []AttendanceLog{
		{NIP: "1985", Kind: EventIn, Timestamp: "2024-06-03T06:50:00"},
	}}}

	r, err := h.svc.MonthlyRecap(context.Background(), 6, 2024)
	require.NoError(t, err)
	assert.Empty(t, r.Items)

	b := h.svc.DailyBoard(context.Background(), "")
	assert.Empty(t, b.Attendance)
	assert.Equal(t, 0, b.Stats.Total)
}

func TestRefresh(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	h.logs.snap = Snapshot{OK: true, FetchedAt: h.clock.t, Logs: logsWith("a")}

	r, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Attendance)
	assert.Equal(t, 1, h.roster.invalidated)

	h.logs.err = errors.New("timeout")
	_, err = h.svc.Refresh(context.Background())
	assert.Equal(t, CodeUnavailable, apiCode(err))
}

func TestProfile(t *testing.T) {
	h := newHarness(at(2024, 6, 4, 9, 0, 0))
	p, err := h.svc.Profile(context.Background(), ahmad)
	require.NoError(t, err)
	assert.Equal(t, "Guru Matematika", p.JobTitle)
	assert.Equal(t, roster.CategoryTeaching, p.Category)
	assert.Equal(t, "staff", p.Role)

	_, err = h.svc.Profile(context.Background(), Identity{NIP: "none"})
	assert.Equal(t, CodeNotFound, apiCode(err))
}

func TestClassOptions(t *testing.T) {
	require.Len(t, ClassOptions, 21)
	assert.Equal(t, "VII - A", ClassOptions[0])
	assert.Equal(t, "IX - G", ClassOptions[20])
}
