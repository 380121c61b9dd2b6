package models

import "time"

// NotificationStatus tracks delivery of a queued notification.
type NotificationStatus string

const (
	NotificationStatusQueued NotificationStatus = "QUEUED"
	NotificationStatusSent   NotificationStatus = "SENT"
	NotificationStatusFailed NotificationStatus = "FAILED"
)

// Notification is a persisted message destined for a user's inbox and,
// optionally, their email address.
type Notification struct {
	ID        string             `db:"id" json:"id"`
	UserID    string             `db:"user_id" json:"user_id"`
	Title     string             `db:"title" json:"title"`
	Body      string             `db:"body" json:"body"`
	Email     bool               `db:"email" json:"email"`
	Status    NotificationStatus `db:"status" json:"status"`
	SentAt    *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}
