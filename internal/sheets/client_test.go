package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "GET_DASHBOARD_DATA", r.URL.Query().Get("action"))
		assert.Equal(t, "1717376400000", r.URL.Query().Get("t"))
		assert.Equal(t, "v1", r.URL.Query().Get("key"))
		_, _ = io.WriteString(w, `{
			"attendance": [{"nip": 198506122010011005, "type": "IN", "timestamp": "2024-06-03T06:50:00", "location": "-6.1, 106.2", "photo": "http://p/1.jpg"}],
			"teaching": [{"id": 7, "name": "Ani", "subject": "PAI", "className": "VII - A", "startTime": "07:00", "endTime": "08:00"}],
			"leaves": [{"nip": "002", "status": "Sakit", "startDate": "2024-06-03", "endDate": null, "timestamp": "2024-06-03T07:00:00Z"}]
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/exec?key=v1")
	c.now = func() time.Time { return time.UnixMilli(1717376400000) }

	d, err := c.FetchDashboard(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Attendance, 1)
	assert.Equal(t, Text("198506122010011005"), d.Attendance[0].NIP)
	assert.Equal(t, Text("IN"), d.Attendance[0].Type)
	require.Len(t, d.Teaching, 1)
	assert.Equal(t, Text("7"), d.Teaching[0].ID)
	assert.Equal(t, Text("VII - A"), d.Teaching[0].ClassName)
	require.Len(t, d.Leaves, 1)
	assert.Equal(t, Text(""), d.Leaves[0].EndDate)
}

func TestFetchDashboardErrors(t *testing.T) {
	_, err := NewClient(nil, "").FetchDashboard(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	_, err = NewClient(bad.Client(), bad.URL).FetchDashboard(context.Background())
	assert.Error(t, err)

	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer html.Close()
	_, err = NewClient(html.Client(), html.URL).FetchDashboard(context.Background())
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	var got Submission
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	err := c.Submit(context.Background(), Submission{
		Action: ActionLeave,
		User:   SubmissionUser{Name: "Ani", NIP: "001", Role: "Guru"},
		Data:   map[string]string{"leaveType": "Izin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain;charset=utf-8", contentType)
	assert.Equal(t, ActionLeave, got.Action)
	assert.Equal(t, "001", got.User.NIP)
	assert.Equal(t, map[string]any{"leaveType": "Izin"}, got.Data)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewClient(srv.Client(), srv.URL).Submit(context.Background(), Submission{Action: ActionAttendance})
	assert.Error(t, err)

	err = NewClient(nil, "").Submit(context.Background(), Submission{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTextUnmarshal(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":12.5,"c":null,"d":true}`), &v))
	assert.Equal(t, Text("x"), v.A)
	assert.Equal(t, Text("12.5"), v.B)
	assert.Equal(t, Text(""), v.C)
	assert.Equal(t, Text("true"), v.D)
}
