package models

import "time"

// CollectionConfig holds the collection identity and cadence offsets used
// when validating receipt destinations and scheduling notifications.
// Exactly one logical row exists; it is read-mostly and cached by its
// repository.
type CollectionConfig struct {
	ID               int64     `json:"id"`
	PixKey           string    `json:"pix_key"`
	HolderName       string    `json:"holder_name"`
	ReminderLeadDays int       `json:"reminder_lead_days"`
	OverdueGraceDays int       `json:"overdue_grace_days"`
	AuditGroupID     string    `json:"audit_group_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}
