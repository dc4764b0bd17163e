package models

import "time"

// Notification kind constants. One kind per cadence stage plus MANUAL for
// operator-triggered sends.
const (
	NotificationKindReminder = "REMINDER"
	NotificationKindDueToday = "DUE_TODAY"
	NotificationKindOverdue  = "OVERDUE"
	NotificationKindManual   = "MANUAL"
)

// NotificationLog is one row of the append-only audit trail of outbound
// messages, written for every send attempt whether it succeeded or not.
type NotificationLog struct {
	ID          int64     `json:"id"`
	InvoiceID   int64     `json:"invoice_id"`
	Kind        string    `json:"kind"`
	MessageText string    `json:"message_text"`
	Recipient   string    `json:"recipient"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
