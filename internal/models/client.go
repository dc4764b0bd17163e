package models

import "time"

// Client is a person or company the system collects payments from.
// PhoneNumber is the WhatsApp destination in international format;
// MessagingID is the stable gateway identity (JID) used to resolve
// inbound messages back to a client.
type Client struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number"`
	MessagingID string    `json:"messaging_id,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
