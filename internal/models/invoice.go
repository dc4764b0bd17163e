package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice status constants
const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusSent      = "SENT"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice represents a single charge issued to a client, either created
// manually or generated from a recurring contract.
type Invoice struct {
	ID                int64           `json:"id"`
	ClientID          int64           `json:"client_id"`
	ContractID        *int64          `json:"contract_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	Status            string          `json:"status"`
	ReminderSent      bool            `json:"reminder_sent"`
	DueNoticeSent     bool            `json:"due_notice_sent"`
	OverdueNoticeSent bool            `json:"overdue_notice_sent"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsOpen reports whether the invoice still awaits payment.
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusSent
}

// MarkPaid transitions the invoice to PAID. A cancelled invoice can never
// become paid and a paid invoice stays paid.
func (i *Invoice) MarkPaid(now time.Time) error {
	switch i.Status {
	case InvoiceStatusCancelled:
		return fmt.Errorf("invoice %d is cancelled and cannot be marked paid", i.ID)
	case InvoiceStatusPaid:
		return fmt.Errorf("invoice %d is already paid", i.ID)
	}
	i.Status = InvoiceStatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	return nil
}

// Cancel transitions the invoice to CANCELLED. Paid invoices cannot be
// cancelled.
func (i *Invoice) Cancel(now time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return fmt.Errorf("invoice %d is paid and cannot be cancelled", i.ID)
	}
	i.Status = InvoiceStatusCancelled
	i.UpdatedAt = now
	return nil
}

// MarkSent flips the invoice to SENT after a successful outbound message.
// Paid and cancelled invoices are left untouched.
func (i *Invoice) MarkSent(now time.Time) {
	if i.IsOpen() {
		i.Status = InvoiceStatusSent
		i.UpdatedAt = now
	}
}
