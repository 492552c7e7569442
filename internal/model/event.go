package model

import "time"

// SourceType names the entity family a CalendarEvent was projected from.
type SourceType string

const (
	SourceReminder    SourceType = "reminder"
	SourceAppointment SourceType = "appointment"
)

// CalendarEvent is a read-only projection merging reminders and appointments.
// It is never persisted.
type CalendarEvent struct {
	ID          string     `json:"id" yaml:"id"`
	SourceType  SourceType `json:"source_type" yaml:"source_type"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	Start       time.Time  `json:"start" yaml:"start"`
	End         time.Time  `json:"end" yaml:"end"`
	AllDay      bool       `json:"all_day" yaml:"all_day"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Status      string     `json:"status" yaml:"status"`
	Color       Color      `json:"color" yaml:"color"`
	Recurrence  Recurrence `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
}

// Active reports whether the event is still open (pending or scheduled).
func (e CalendarEvent) Active() bool {
	return e.Status == string(ReminderPending) || e.Status == string(AppointmentScheduled)
}

// ReminderEvent projects a reminder. Reminders are zero-length and always amber.
func ReminderEvent(r Reminder) CalendarEvent {
	return CalendarEvent{
		ID:          r.ID,
		SourceType:  SourceReminder,
		Title:       r.Title,
		Description: r.Description,
		Start:       r.RemindAt,
		End:         r.RemindAt,
		Priority:    r.Priority,
		Status:      string(r.Status),
		Color:       ColorAmber,
		Recurrence:  r.Recurrence,
	}
}

// AppointmentEvent projects an appointment, carrying its derived color.
func AppointmentEvent(a Appointment) CalendarEvent {
	return CalendarEvent{
		ID:          a.ID,
		SourceType:  SourceAppointment,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Start:       a.StartAt,
		End:         a.EndAt,
		AllDay:      a.AllDay,
		Priority:    a.Priority,
		Status:      string(a.Status),
		Color:       a.Color(),
	}
}
