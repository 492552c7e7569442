// Package lifecycle governs status transitions for reminders and appointments.
//
// Both families share the same shape: one open state and two terminal states
// (completed, cancelled). There is no reopen transition.
package lifecycle

import (
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
)

// Transition names a lifecycle move.
type Transition string

const (
	Complete Transition = "complete"
	Cancel   Transition = "cancel"
)

// ErrAlreadyFinalized is returned for any transition out of a terminal state.
var ErrAlreadyFinalized = model.NewValidationError("status", "already finalized")

// stamp is the transition instant, never earlier than creation.
func stamp(createdAt, now time.Time) *time.Time {
	at := now
	if at.Before(createdAt) {
		at = createdAt
	}
	return &at
}

// ApplyReminder moves r along t, setting the matching timestamp.
func ApplyReminder(r *model.Reminder, t Transition, now time.Time) error {
	if r.Status.Terminal() {
		return ErrAlreadyFinalized
	}
	switch t {
	case Complete:
		r.Status = model.ReminderCompleted
		r.CompletedAt = stamp(r.CreatedAt, now)
	case Cancel:
		r.Status = model.ReminderCancelled
		r.CancelledAt = stamp(r.CreatedAt, now)
	default:
		return model.NewValidationError("transition", "unknown transition "+string(t))
	}
	return nil
}

// ApplyAppointment moves a along t, setting the matching timestamp.
func ApplyAppointment(a *model.Appointment, t Transition, now time.Time) error {
	if a.Status.Terminal() {
		return ErrAlreadyFinalized
	}
	switch t {
	case Complete:
		a.Status = model.AppointmentCompleted
		a.CompletedAt = stamp(a.CreatedAt, now)
	case Cancel:
		a.Status = model.AppointmentCancelled
		a.CancelledAt = stamp(a.CreatedAt, now)
	default:
		return model.NewValidationError("transition", "unknown transition "+string(t))
	}
	return nil
}
