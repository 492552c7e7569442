package model

import (
	"encoding/json"
	"time"
)

const (
	// DefaultNotifyBeforeMinutes is used when a caller does not pick a lead time.
	DefaultNotifyBeforeMinutes = 30
	// MaxNotifyBeforeMinutes caps the lead time at one week.
	MaxNotifyBeforeMinutes = 7 * 24 * 60
)

// Color is the display hint attached to calendar items.
type Color string

const (
	ColorRed   Color = "red"
	ColorBlue  Color = "blue"
	ColorAmber Color = "amber"
)

// Appointment is a time-ranged item occupying [StartAt, EndAt).
type Appointment struct {
	ID                  string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID             string            `gorm:"type:varchar(64);not null;index:idx_appointments_owner_status,priority:1;index:idx_appointments_owner_interval,priority:1" json:"owner_id"`
	Title               string            `gorm:"type:text;not null" json:"title"`
	Description         string            `gorm:"type:text" json:"description,omitempty"`
	Location            string            `gorm:"type:text" json:"location,omitempty"`
	StartAt             time.Time         `gorm:"not null;index:idx_appointments_owner_interval,priority:2" json:"start_at"`
	EndAt               time.Time         `gorm:"not null;index:idx_appointments_owner_interval,priority:3" json:"end_at"`
	AllDay              bool              `gorm:"not null;default:false" json:"all_day"`
	NotifyBeforeMinutes int               `gorm:"not null" json:"notify_before_minutes"`
	Priority            Priority          `gorm:"type:varchar(10);not null" json:"priority"`
	Status              AppointmentStatus `gorm:"type:varchar(20);not null;index:idx_appointments_owner_status,priority:2" json:"status"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
	CancelledAt         *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time         `gorm:"not null" json:"created_at"`
}

// Color is derived from priority and never persisted.
func (a Appointment) Color() Color {
	if a.Priority == PriorityHigh {
		return ColorRed
	}
	return ColorBlue
}

// NotifyAt is the instant the owner should be alerted.
func (a Appointment) NotifyAt() time.Time {
	return a.StartAt.Add(-time.Duration(a.NotifyBeforeMinutes) * time.Minute)
}

// MarshalJSON adds the derived color to the wire shape.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type plain Appointment
	return json.Marshal(struct {
		plain
		Color Color `json:"color"`
	}{plain: plain(a), Color: a.Color()})
}
