package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReminderStatus(t *testing.T) {
	cases := map[string]ReminderStatus{
		"pending":   ReminderPending,
		"Completed": ReminderCompleted,
		"sent":      ReminderCompleted,
		"avisado":   ReminderCompleted,
		" done ":    ReminderCompleted,
		"canceled":  ReminderCancelled,
		"cancelled": ReminderCancelled,
	}
	for label, want := range cases {
		got, err := NormalizeReminderStatus(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}

	_, err := NormalizeReminderStatus("archived")
	assert.True(t, IsValidationError(err))
}

func TestReminderStatusScan(t *testing.T) {
	var s ReminderStatus
	require.NoError(t, s.Scan([]byte("avisado")))
	assert.Equal(t, ReminderCompleted, s)

	require.NoError(t, s.Scan("pending"))
	assert.Equal(t, ReminderPending, s)

	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("bogus"))
}

func TestStoredLabelsIncludeLegacy(t *testing.T) {
	labels := ReminderCompleted.StoredLabels()
	assert.Equal(t, "completed", labels[0])
	assert.Contains(t, labels, "sent")
	assert.Contains(t, labels, "avisado")
	assert.NotContains(t, labels, "canceled")

	assert.Equal(t, "cancelled", AppointmentCancelled.StoredLabels()[0])
}

func TestParsePriorityAndRecurrence(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.True(t, IsValidationError(err))

	r, err := ParseRecurrence("")
	require.NoError(t, err)
	assert.Equal(t, RecurrenceOnce, r)

	_, err = ParseRecurrence("yearly")
	assert.True(t, IsValidationError(err))
}

func TestAppointmentColorAndJSON(t *testing.T) {
	start := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	a := Appointment{ID: "a1", Title: "A", StartAt: start, EndAt: start.Add(time.Hour), Priority: PriorityHigh, NotifyBeforeMinutes: 30}
	assert.Equal(t, ColorRed, a.Color())
	assert.Equal(t, start.Add(-30*time.Minute), a.NotifyAt())

	a.Priority = PriorityLow
	assert.Equal(t, ColorBlue, a.Color())

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "blue", decoded["color"])
	assert.Equal(t, "A", decoded["title"])
}

func TestProjections(t *testing.T) {
	at := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	ev := ReminderEvent(Reminder{ID: "r1", Title: "pay rent", RemindAt: at, Priority: PriorityHigh, Status: ReminderPending})
	assert.Equal(t, SourceReminder, ev.SourceType)
	assert.Equal(t, ColorAmber, ev.Color)
	assert.True(t, ev.Start.Equal(ev.End))
	assert.True(t, ev.Active())

	ev = AppointmentEvent(Appointment{ID: "a1", StartAt: at, EndAt: at.Add(time.Hour), Priority: PriorityHigh, Status: AppointmentCancelled})
	assert.Equal(t, ColorRed, ev.Color)
	assert.False(t, ev.Active())
}

func TestErrorHelpers(t *testing.T) {
	ce := NewConflictError("start_at", "overlapping appointment", &Appointment{ID: "x", Title: "Dentist"})
	assert.True(t, IsConflictError(ce))
	assert.Contains(t, ce.Error(), "Dentist")

	threshold := time.Date(2025, 1, 1, 11, 55, 0, 0, time.UTC)
	te := NewTemporalError("remind_at", threshold.Add(-time.Minute), threshold)
	assert.True(t, IsTemporalError(te))
	assert.Contains(t, te.Error(), "2025-01-01T11:55:00Z")

	assert.False(t, IsNotFoundError(te))
	assert.True(t, IsAuthorizationError(NewAuthorizationError("missing owner")))
}
