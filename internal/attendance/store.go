package attendance

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"presensi-backend/internal/platform/db"
	"presensi-backend/internal/sheets"
)

// SubmissionRecord is one journal entry. Day is the school-local date the
// device lock is keyed by.
type SubmissionRecord struct {
	Ref         string
	Action      sheets.Action
	Kind        string
	NIP         string
	DeviceID    string
	Day         string
	Accepted    bool
	SubmittedAt time.Time
}

// setsLock reports which lock flag an accepted attendance submission sets.
func (r SubmissionRecord) setsLock() (in, out bool) {
	if !r.Accepted || r.Action != sheets.ActionAttendance || r.DeviceID == "" {
		return false, false
	}
	switch EventKind(r.Kind) {
	case EventIn:
		return true, false
	case EventOut:
		return false, true
	}
	return false, false
}

type Store interface {
	// GetLock returns the zero lock for a device with nothing recorded that day.
	GetLock(ctx context.Context, deviceID, day string) (DeviceLock, error)
	// Record journals the submission and sets the matching lock flag in one step.
	Record(ctx context.Context, rec SubmissionRecord) error
}

// ===== MySQL =====

type SQLStore struct{ db *sql.DB }

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) GetLock(ctx context.Context, deviceID, day string) (DeviceLock, error) {
	var l DeviceLock
	err := s.db.QueryRowContext(ctx, `
	SELECT checked_in, checked_out FROM device_locks
	WHERE device_id = ? AND lock_date = ?`, deviceID, day,
	).Scan(&l.CheckedIn, &l.CheckedOut)
	if errors.Is(err, sql.ErrNoRows) {
		return DeviceLock{}, nil
	}
	if err != nil {
		return DeviceLock{}, err
	}
	return l, nil
}

func (s *SQLStore) Record(ctx context.Context, rec SubmissionRecord) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO submissions (submission_ulid, action, kind, nip, device_id, accepted, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.Ref, string(rec.Action), nullIfEmpty(rec.Kind), rec.NIP, nullIfEmpty(rec.DeviceID), rec.Accepted, rec.SubmittedAt.UTC(),
		); err != nil {
			return err
		}

		in, out := rec.setsLock()
		if !in && !out {
			return nil
		}
		// Flags only ever go from 0 to 1 within a day.
		_, err := tx.ExecContext(ctx, `
		INSERT INTO device_locks (device_id, lock_date, checked_in, checked_out, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		checked_in  = GREATEST(checked_in, VALUES(checked_in)),
		checked_out = GREATEST(checked_out, VALUES(checked_out)),
		updated_at  = VALUES(updated_at)`,
			rec.DeviceID, rec.Day, in, out, rec.SubmittedAt.UTC(),
		)
		return err
	})
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ===== in-memory =====

type lockKey struct{ device, day string }

// MemoryStore is used when no database is configured. Locks are lost on
// restart.
type MemoryStore struct {
	mu      sync.Mutex
	locks   map[lockKey]DeviceLock
	journal []SubmissionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[lockKey]DeviceLock)}
}

func (m *MemoryStore) GetLock(_ context.Context, deviceID, day string) (DeviceLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[lockKey{deviceID, day}], nil
}

func (m *MemoryStore) Record(_ context.Context, rec SubmissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = append(m.journal, rec)
	in, out := rec.setsLock()
	if !in && !out {
		return nil
	}
	k := lockKey{rec.DeviceID, rec.Day}
	l := m.locks[k]
	l.CheckedIn = l.CheckedIn || in
	l.CheckedOut = l.CheckedOut || out
	m.locks[k] = l
	return nil
}

// Journal returns a copy of everything recorded so far.
func (m *MemoryStore) Journal() []SubmissionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SubmissionRecord(nil), m.journal...)
}
