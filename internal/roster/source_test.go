package roster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetCSV = "Username,Password,Nama,NIP,Role\nguru1,123,Ani,001,Guru\nadmin1,999,Budi,002,Admin\n"

func TestSourceDirectFetchIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	src := NewSource(srv.Client(), srv.URL, "", time.Minute, WithClock(func() time.Time { return now }))

	emps := src.Employees(context.Background())
	require.Len(t, emps, 2)
	_ = src.Employees(context.Background())
	assert.Equal(t, int32(1), hits.Load())

	now = now.Add(2 * time.Minute)
	_ = src.Employees(context.Background())
	assert.Equal(t, int32(2), hits.Load())

	src.Invalidate()
	_ = src.Employees(context.Background())
	assert.Equal(t, int32(3), hits.Load())
}

func TestSourceFallsBackToProxy(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<!DOCTYPE html><html>login</html>"))
	}))
	defer direct.Close()

	var gotURL string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer proxy.Close()

	src := NewSource(http.DefaultClient, direct.URL+"/pub?output=csv", proxy.URL, time.Minute)
	emps := src.Employees(context.Background())
	require.Len(t, emps, 2)
	assert.Equal(t, direct.URL+"/pub?output=csv", gotURL)

	e, ok := src.FindByUsername(context.Background(), "GURU1")
	require.True(t, ok)
	assert.Equal(t, "001", e.NIP)

	_, ok = src.FindByNIP(context.Background(), "404")
	assert.False(t, ok)
}

func TestSourceWithoutSheetIsEmpty(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	src := NewSource(http.DefaultClient, down.URL, down.URL, time.Minute)
	emps := src.Employees(context.Background())
	assert.NotNil(t, emps)
	assert.Empty(t, emps)
	_, ok := src.FindByUsername(context.Background(), "admin1")
	assert.False(t, ok)

	unset := NewSource(nil, "", "", time.Minute)
	assert.Empty(t, unset.Employees(context.Background()))
}

func TestSourceDemoRosterIsOptIn(t *testing.T) {
	src := NewSource(nil, "", "", time.Minute, WithDemoRoster())
	emps := src.Employees(context.Background())
	require.Len(t, emps, 2)
	assert.Equal(t, "guru1", emps[0].Username)
}

func TestSourceKeepsLastGoodRoster(t *testing.T) {
	var up atomic.Bool
	up.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sheetCSV))
	}))
	defer srv.Close()

	src := NewSource(srv.Client(), srv.URL, "", time.Minute, WithDemoRoster())
	require.Len(t, src.Employees(context.Background()), 2)

	up.Store(false)
	src.Invalidate()
	emps := src.Employees(context.Background())
	require.Len(t, emps, 2)
	assert.Equal(t, "Ani", emps[0].Name, "sheet roster, not the demo one")

	e, ok := src.FindByNIP(context.Background(), " 001 ")
	require.True(t, ok)
	assert.Equal(t, "guru1", e.Username)
	_, ok = src.FindByNIP(context.Background(), "")
	assert.False(t, ok)
}
