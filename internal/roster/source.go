package roster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxRosterBytes = 4 << 20

var (
	errInvalidCSV = errors.New("roster: response is empty or not CSV")
	errNoSheet    = errors.New("no sheet url configured")
)

// Source loads the published roster sheet. It tries the sheet URL, then the
// CORS proxy. When both fail it serves the last roster it fetched, or an
// empty one. The built-in demo roster is only used when enabled with
// WithDemoRoster.
type Source struct {
	client   *http.Client
	csvURL   string
	proxyURL string
	ttl      time.Duration
	now      func() time.Time
	demo     bool

	mu        sync.Mutex
	cached    []Employee
	hasCached bool
	fetchedAt time.Time
	stale     bool
}

type SourceOption func(*Source)

func WithClock(now func() time.Time) SourceOption { return func(s *Source) { s.now = now } }

// WithDemoRoster falls back to two built-in accounts when no sheet has ever
// been fetched. Their passwords are public; dev mode only.
func WithDemoRoster() SourceOption { return func(s *Source) { s.demo = true } }

func NewSource(client *http.Client, csvURL, proxyURL string, ttl time.Duration, opts ...SourceOption) *Source {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	s := &Source{
		client:   client,
		csvURL:   csvURL,
		proxyURL: proxyURL,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Employees returns the whole roster, admins included.
func (s *Source) Employees(ctx context.Context) []Employee {
	s.mu.Lock()
	if s.hasCached && !s.stale && s.now().Sub(s.fetchedAt) < s.ttl {
		out := s.cached
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()

	emps, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.cached, s.hasCached, s.stale = emps, true, false
		s.fetchedAt = s.now()
		return emps
	}
	if s.hasCached {
		log.Printf("[WARN] roster: %v; serving roster fetched at %s", err, s.fetchedAt.Format(time.RFC3339))
		return s.cached
	}
	if s.demo {
		log.Printf("[WARN] roster: %v; using built-in demo roster", err)
		return dummyRoster()
	}
	log.Printf("[ERROR] roster: %v; no roster available", err)
	return []Employee{}
}

// Invalidate forces the next call to refetch. The last good roster is kept
// as a fallback.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// FindByUsername matches case-insensitively on the username column.
func (s *Source) FindByUsername(ctx context.Context, username string) (Employee, bool) {
	username = strings.TrimSpace(username)
	for _, e := range s.Employees(ctx) {
		if strings.EqualFold(e.Username, username) {
			return e, true
		}
	}
	return Employee{}, false
}

// FindByNIP ignores surrounding spaces on both sides. An empty NIP never
// matches.
func (s *Source) FindByNIP(ctx context.Context, nip string) (Employee, bool) {
	nip = strings.TrimSpace(nip)
	if nip == "" {
		return Employee{}, false
	}
	for _, e := range s.Employees(ctx) {
		if strings.TrimSpace(e.NIP) == nip {
			return e, true
		}
	}
	return Employee{}, false
}

func (s *Source) load(ctx context.Context) ([]Employee, error) {
	if s.csvURL == "" {
		return nil, errNoSheet
	}

	emps, err := s.fetch(ctx, s.csvURL)
	if err == nil {
		return emps, nil
	}
	if s.proxyURL == "" {
		return nil, err
	}
	log.Printf("[WARN] roster: direct fetch failed, trying proxy: %v", err)

	emps, err = s.fetch(ctx, s.proxyURL+"?url="+url.QueryEscape(s.csvURL))
	if err != nil {
		return nil, fmt.Errorf("all fetch attempts failed: %w", err)
	}
	return emps, nil
}

func (s *Source) fetch(ctx context.Context, u string) ([]Employee, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("roster: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRosterBytes))
	if err != nil {
		return nil, err
	}
	if !looksLikeCSV(body) {
		return nil, errInvalidCSV
	}
	return Parse(bytes.NewReader(body))
}

func looksLikeCSV(body []byte) bool {
	t := strings.TrimSpace(string(body))
	if t == "" {
		return false
	}
	head := strings.ToLower(t[:min(len(t), 15)])
	return !strings.HasPrefix(head, "<!doctype html") && !strings.HasPrefix(head, "<html")
}
