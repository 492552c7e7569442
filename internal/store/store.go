// Package store defines the narrow persistence contract the scheduling core depends on.
package store

import (
	"context"
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
)

// Store is the persistence backend, partitioned by owner.
type Store interface {
	Reminders() Reminders
	Appointments() Appointments

	// WithinOwnerTx runs fn in a transaction that is serialized against every
	// other WithinOwnerTx call for the same owner. The Store passed to fn is
	// bound to the transaction.
	WithinOwnerTx(ctx context.Context, ownerID string, fn func(tx Store) error) error

	// Owners lists every owner with at least one reminder or appointment.
	Owners(ctx context.Context) ([]string, error)
}

// ReminderFilter selects reminders for one owner.
type ReminderFilter struct {
	OwnerID string
	// Statuses matches any of the stored labels; empty means all.
	Statuses []string
	// From/To bound remind_at as [From, To); zero values are open.
	From  time.Time
	To    time.Time
	Limit int
}

// Reminders is the reminder table.
type Reminders interface {
	Create(ctx context.Context, r *model.Reminder) error
	// Get returns a NotFoundError when id is missing or owned by someone else.
	Get(ctx context.Context, ownerID, id string) (*model.Reminder, error)
	Save(ctx context.Context, r *model.Reminder) error
	Delete(ctx context.Context, ownerID, id string) error
	// List orders by remind_at ascending.
	List(ctx context.Context, f ReminderFilter) ([]model.Reminder, error)
	// Due returns pending reminders of every owner with remind_at in (from, to].
	Due(ctx context.Context, from, to time.Time) ([]model.Reminder, error)
}

// AppointmentFilter selects appointments for one owner.
type AppointmentFilter struct {
	OwnerID  string
	Statuses []string
	// From/To bound start_at as [From, To); zero values are open.
	From  time.Time
	To    time.Time
	Limit int
}

// Appointments is the appointment table.
type Appointments interface {
	Create(ctx context.Context, a *model.Appointment) error
	Get(ctx context.Context, ownerID, id string) (*model.Appointment, error)
	Save(ctx context.Context, a *model.Appointment) error
	Delete(ctx context.Context, ownerID, id string) error
	// List orders by start_at ascending.
	List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	// Overlapping returns scheduled appointments of ownerID with
	// start_at < end AND end_at > start, skipping excludeID when set.
	Overlapping(ctx context.Context, ownerID string, start, end time.Time, excludeID string) ([]model.Appointment, error)
	// StartingBetween returns scheduled appointments of every owner with start_at in (from, to].
	StartingBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}
