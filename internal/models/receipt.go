package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptAnalysis is the structured guess produced by the vision oracle for
// a submitted receipt image. Every field except IsReceipt and Confidence is
// optional: the oracle is non-deterministic and frequently fails to read
// individual fields. Nothing here is trusted until validated.
type ReceiptAnalysis struct {
	IsReceipt     bool             `json:"is_receipt"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	PaymentType   string           `json:"payment_type,omitempty"`
	Confidence    int              `json:"confidence"` // 0-100
	Payer         *PartyIdentity   `json:"payer,omitempty"`
	Payee         *PartyIdentity   `json:"payee,omitempty"`
	ReceiptNumber string           `json:"receipt_number,omitempty"`
}

// PartyIdentity identifies one side of a payment as read from the receipt.
type PartyIdentity struct {
	Name     string `json:"name,omitempty"`
	Document string `json:"document,omitempty"`
	Bank     string `json:"bank,omitempty"`
	PixKey   string `json:"pix_key,omitempty"`
}

// ReceiptSubmission is one inbound receipt handed from the webhook to the
// reconciliation worker. SubmissionID is the correlation identifier carried
// through logs and the audit notification.
type ReceiptSubmission struct {
	SubmissionID string
	ClientID     int64
	Media        []byte
	MimeType     string
	ReceivedAt   time.Time
}
