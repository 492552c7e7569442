package model

import "time"

// Reminder is a single-moment item owned by one tenant.
type Reminder struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     string         `gorm:"type:varchar(64);not null;index:idx_reminders_owner_status,priority:1;index:idx_reminders_owner_remind_at,priority:1" json:"owner_id"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	RemindAt    time.Time      `gorm:"not null;index:idx_reminders_owner_remind_at,priority:2" json:"remind_at"`
	Priority    Priority       `gorm:"type:varchar(10);not null" json:"priority"`
	Recurrence  Recurrence     `gorm:"type:varchar(10);not null" json:"recurrence"`
	Status      ReminderStatus `gorm:"type:varchar(20);not null;index:idx_reminders_owner_status,priority:2" json:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
}
