package models

import (
	"encoding/json"
	"time"
)

// NotificationKind identifies the domain event a notification delivers.
type NotificationKind string

// Notification kinds emitted by the waitlist workflows.
const (
	NotificationWaitlistAccepted NotificationKind = "waitlist.accepted"
	NotificationWaitlistRejected NotificationKind = "waitlist.rejected"
	NotificationWaitlistExpired  NotificationKind = "waitlist.expired"
)

// NotificationStatus tracks outbox delivery state.
type NotificationStatus string

// Possible notification statuses.
const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationEvent is an outbox row. Events are written inside the same
// transaction as the state change they announce and drained asynchronously.
type NotificationEvent struct {
	ID             string             `db:"id" json:"id"`
	Kind           NotificationKind   `db:"kind" json:"kind"`
	WaitlistID     string             `db:"waitlist_id" json:"waitlist_id"`
	ClassID        string             `db:"class_id" json:"class_id"`
	ClassDate      time.Time          `db:"class_date" json:"class_date"`
	RecipientEmail string             `db:"recipient_email" json:"recipient_email"`
	RecipientName  string             `db:"recipient_name" json:"recipient_name"`
	RecipientPhone *string            `db:"recipient_phone" json:"recipient_phone,omitempty"`
	Payload        json.RawMessage    `db:"payload" json:"payload"`
	Status         NotificationStatus `db:"status" json:"status"`
	Attempts       int                `db:"attempts" json:"attempts"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	DispatchedAt   *time.Time         `db:"dispatched_at" json:"dispatched_at,omitempty"`
}

// ClassContext is the notification payload describing the occurrence.
type ClassContext struct {
	ClassName string `json:"className"`
	ClassDate string `json:"classDate"`
	ClassTime string `json:"classTime"`
	ClubName  string `json:"clubName"`
}

// ClassContext decodes the event payload. Returns a zero value when the
// payload is absent or malformed.
func (e *NotificationEvent) ClassContext() ClassContext {
	var ctx ClassContext
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &ctx)
	}
	return ctx
}
