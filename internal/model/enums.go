package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Priority ranks reminders and appointments.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority parses a priority label. An empty label yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return PriorityMedium, nil
	}
	p := Priority(label)
	if !p.Valid() {
		return "", NewValidationError("priority", fmt.Sprintf("unknown priority %q", s))
	}
	return p, nil
}

// Recurrence is a repetition tag. It is stored but never expanded into instances.
type Recurrence string

const (
	RecurrenceOnce    Recurrence = "once"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// ParseRecurrence parses a recurrence label. An empty label yields RecurrenceOnce.
func ParseRecurrence(s string) (Recurrence, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return RecurrenceOnce, nil
	}
	r := Recurrence(label)
	if !r.Valid() {
		return "", NewValidationError("recurrence", fmt.Sprintf("unknown recurrence %q", s))
	}
	return r, nil
}

// ReminderStatus is the lifecycle state of a reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// legacyReminderLabels maps historical labels found in older rows to the canonical status.
var legacyReminderLabels = map[string]ReminderStatus{
	"sent":      ReminderCompleted,
	"avisado":   ReminderCompleted,
	"done":      ReminderCompleted,
	"concluido": ReminderCompleted,
	"canceled":  ReminderCancelled,
	"cancelado": ReminderCancelled,
	"pendente":  ReminderPending,
	"active":    ReminderPending,
}

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderPending, ReminderCompleted, ReminderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s ReminderStatus) Terminal() bool {
	return s == ReminderCompleted || s == ReminderCancelled
}

// NormalizeReminderStatus translates any accepted external label into the canonical status.
func NormalizeReminderStatus(label string) (ReminderStatus, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if s := ReminderStatus(l); s.Valid() {
		return s, nil
	}
	if s, ok := legacyReminderLabels[l]; ok {
		return s, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown reminder status %q", label))
}

// StoredLabels returns every label the store may hold for s, canonical first.
func (s ReminderStatus) StoredLabels() []string {
	labels := []string{string(s)}
	for legacy, canonical := range legacyReminderLabels {
		if canonical == s {
			labels = append(labels, legacy)
		}
	}
	return labels
}

// Scan implements sql.Scanner and normalizes legacy labels on read.
func (s *ReminderStatus) Scan(src any) error {
	raw, err := scanLabel(src)
	if err != nil {
		return err
	}
	st, err := NormalizeReminderStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s ReminderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

var legacyAppointmentLabels = map[string]AppointmentStatus{
	"agendado":  AppointmentScheduled,
	"pending":   AppointmentScheduled,
	"done":      AppointmentCompleted,
	"concluido": AppointmentCompleted,
	"canceled":  AppointmentCancelled,
	"cancelado": AppointmentCancelled,
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// NormalizeAppointmentStatus translates any accepted external label into the canonical status.
func NormalizeAppointmentStatus(label string) (AppointmentStatus, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if s := AppointmentStatus(l); s.Valid() {
		return s, nil
	}
	if s, ok := legacyAppointmentLabels[l]; ok {
		return s, nil
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown appointment status %q", label))
}

func (s AppointmentStatus) StoredLabels() []string {
	labels := []string{string(s)}
	for legacy, canonical := range legacyAppointmentLabels {
		if canonical == s {
			labels = append(labels, legacy)
		}
	}
	return labels
}

func (s *AppointmentStatus) Scan(src any) error {
	raw, err := scanLabel(src)
	if err != nil {
		return err
	}
	st, err := NormalizeAppointmentStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s AppointmentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func scanLabel(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("status: unsupported column type %T", src)
	}
}
