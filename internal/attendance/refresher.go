package attendance

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"presensi-backend/internal/sheets"
)

type LogFetcher interface {
	FetchLogs(ctx context.Context) (Logs, error)
}

// DashboardFetcher is the sheets client's log read.
type DashboardFetcher interface {
	FetchDashboard(ctx context.Context) (*sheets.Dashboard, error)
}

// SheetLogs adapts the spreadsheet dashboard to LogFetcher.
type SheetLogs struct{ Client DashboardFetcher }

func (s SheetLogs) FetchLogs(ctx context.Context) (Logs, error) {
	d, err := s.Client.FetchDashboard(ctx)
	if err != nil {
		return Logs{}, err
	}
	return LogsFromDashboard(d), nil
}

// LogsFromDashboard drops attendance rows whose event kind is neither IN
// nor OUT.
func LogsFromDashboard(d *sheets.Dashboard) Logs {
	if d == nil {
		return Logs{}
	}
	var out Logs
	for _, a := range d.Attendance {
		kind, ok := ParseEventKind(a.Type.String())
		if !ok {
			continue
		}
		out.Attendance = append(out.Attendance, AttendanceLog{
			NIP:       strings.TrimSpace(a.NIP.String()),
			Kind:      kind,
			Timestamp: a.Timestamp.String(),
			Location:  a.Location.String(),
			Photo:     a.Photo.String(),
		})
	}
	for _, l := range d.Leaves {
		out.Leaves = append(out.Leaves, LeaveLog{
			NIP:        strings.TrimSpace(l.NIP.String()),
			Status:     l.Status.String(),
			StartDate:  l.StartDate.String(),
			EndDate:    l.EndDate.String(),
			Reason:     l.Reason.String(),
			Timestamp:  l.Timestamp.String(),
			Attachment: l.Attachment.String(),
		})
	}
	for _, t := range d.Teaching {
		out.Teaching = append(out.Teaching, TeachingLog{
			ID:        t.ID.String(),
			NIP:       strings.TrimSpace(t.NIP.String()),
			Name:      t.Name.String(),
			Subject:   t.Subject.String(),
			ClassName: t.ClassName.String(),
			StartTime: t.StartTime.String(),
			EndTime:   t.EndTime.String(),
			Timestamp: t.Timestamp.String(),
		})
	}
	return out
}

// Snapshot is the last successfully fetched log set. OK is false until the
// first fetch succeeds, in which case Logs is empty.
type Snapshot struct {
	Logs      Logs
	FetchedAt time.Time
	OK        bool
}

// Refresher holds the latest log snapshot. Fetches may overlap (ticker and
// manual refresh); each takes a sequence number and a result older than the
// one already applied is dropped.
type Refresher struct {
	fetch LogFetcher
	now   func() time.Time

	// stale reads share one fetch
	group singleflight.Group

	mu      sync.Mutex
	seq     uint64
	applied uint64
	snap    Snapshot
}

func NewRefresher(f LogFetcher) *Refresher {
	return &Refresher{fetch: f, now: time.Now}
}

// Refresh fetches now. On failure the previous snapshot is returned with the
// error.
func (r *Refresher) Refresh(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	r.seq++
	mine := r.seq
	r.mu.Unlock()

	logs, err := r.fetch.FetchLogs(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		log.Printf("[WARN] log refresh #%d failed: %v", mine, err)
		return r.snap, err
	}
	if mine < r.applied {
		log.Printf("[INFO] log refresh #%d superseded by #%d", mine, r.applied)
		return r.snap, nil
	}
	r.applied = mine
	r.snap = Snapshot{Logs: logs, FetchedAt: r.now(), OK: true}
	return r.snap, nil
}

func (r *Refresher) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Current returns the snapshot, refetching when it is older than maxAge.
// Fetch errors are swallowed; callers see the last good (or empty) logs.
func (r *Refresher) Current(ctx context.Context, maxAge time.Duration) Snapshot {
	if s, ok := r.fresh(maxAge); ok {
		return s
	}
	v, _, _ := r.group.Do("logs", func() (any, error) {
		// A flight that just finished may already have refreshed.
		if s, ok := r.fresh(maxAge); ok {
			return s, nil
		}
		s, _ := r.Refresh(ctx)
		return s, nil
	})
	return v.(Snapshot)
}

func (r *Refresher) fresh(maxAge time.Duration) (Snapshot, bool) {
	s := r.Latest()
	return s, s.OK && r.now().Sub(s.FetchedAt) < maxAge
}

// Run refreshes immediately and then every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	_, _ = r.Refresh(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = r.Refresh(ctx)
		}
	}
}
