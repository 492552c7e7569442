package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/database/dbtest"
	"github.com/pathakanu/myAgenda/internal/reminder"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

var testNow = time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := dbtest.New(t)
	clock := func() time.Time { return testNow }
	v := temporal.New(clock, 0)
	router := NewRouter(Services{
		Reminders:    reminder.NewService(st, v, zerolog.Nop()),
		Appointments: appointment.NewService(st, v, zerolog.Nop()),
		Calendar:     calendar.NewAggregator(st, time.UTC, clock, zerolog.Nop()),
		TodayLimit:   4,
		Webhook: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, owner string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthNeedsNoOwner(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, _ = do(t, srv, "POST", "/twilio/webhook", "", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestMissingOwnerIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, "GET", "/api/reminders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["message"], OwnerHeader)
}

func TestReminderLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, "POST", "/api/reminders", "x", map[string]interface{}{
		"title": "pay rent", "remind_at": testNow.Add(time.Hour).Format(time.RFC3339), "priority": "HIGH",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	assert.Equal(t, "high", body["priority"])
	assert.Equal(t, "pending", body["status"])

	resp, _ = do(t, srv, "POST", "/api/reminders", "x", map[string]interface{}{
		"title": "late", "remind_at": testNow.Add(-10 * time.Minute).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, "POST", "/api/reminders", "x", map[string]interface{}{"title": "no time"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, "PATCH", "/api/reminders/"+id, "x", map[string]interface{}{"title": "pay the rent"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pay the rent", body["title"])

	resp, _ = do(t, srv, "GET", "/api/reminders/"+id, "y", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, srv, "POST", "/api/reminders/"+id+"/complete", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])

	resp, body = do(t, srv, "POST", "/api/reminders/"+id+"/cancel", "x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "already finalized")

	resp, body = do(t, srv, "GET", "/api/reminders?status=completed", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = do(t, srv, "GET", "/api/reminders?limit=abc", "x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, "DELETE", "/api/reminders/"+id, "x", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, "DELETE", "/api/reminders/"+id, "x", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAppointmentConflictOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	slot := func(h, m int) string {
		return time.Date(2025, 3, 5, h, m, 0, 0, time.UTC).Format(time.RFC3339)
	}

	resp, body := do(t, srv, "POST", "/api/appointments", "x", map[string]interface{}{
		"title": "A", "start_at": slot(10, 0), "end_at": slot(11, 0), "priority": "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "red", body["color"])
	assert.EqualValues(t, 30, body["notify_before_minutes"])
	aID := body["id"].(string)

	resp, body = do(t, srv, "POST", "/api/appointments", "x", map[string]interface{}{
		"title": "B", "start_at": slot(10, 30), "end_at": slot(11, 30),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "A", body["conflicting_title"])
	assert.Equal(t, aID, body["conflicting_id"])

	resp, body = do(t, srv, "POST", "/api/appointments", "x", map[string]interface{}{
		"title": "backwards", "start_at": slot(9, 0), "end_at": slot(8, 0),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "end_at<=start_at")

	resp, body = do(t, srv, "GET", "/api/calendar/2025/3", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byDay := body["events_by_day"].(map[string]interface{})
	require.Len(t, byDay["5"], 1)
	assert.Equal(t, "A", byDay["5"].([]interface{})[0].(map[string]interface{})["title"])

	resp, body = do(t, srv, "GET", "/api/calendar/2025/3?view=indicators", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["indicators"], "5")

	resp, _ = do(t, srv, "GET", "/api/calendar/2025/13", "x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, "GET", "/api/today", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = do(t, srv, "POST", "/api/appointments/"+aID+"/cancel", "x", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, srv, "POST", "/api/appointments", "x", map[string]interface{}{
		"title": "B", "start_at": slot(10, 30), "end_at": slot(11, 30),
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCalendarICSExport(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, "POST", "/api/reminders", "x", map[string]interface{}{
		"title": "pills", "remind_at": testNow.Add(time.Hour).Format(time.RFC3339), "recurrence": "daily",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/api/calendar/2025/03.ics", srv.URL), nil)
	require.NoError(t, err)
	req.Header.Set(OwnerHeader, "x")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/calendar"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SUMMARY:pills")
	assert.Contains(t, buf.String(), "RRULE:FREQ=DAILY")
}
