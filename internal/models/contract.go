package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a recurring billing agreement that produces at most one
// invoice per calendar month while in effect.
type Contract struct {
	ID            int64           `json:"id"`
	ClientID      int64           `json:"client_id"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	DueDay        int             `json:"due_day"` // 1-28
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EffectiveDueDate returns the invoice due date for the given month,
// clamping the contract's due day to the month's length so a due day of
// 28+ never rolls into the next month.
func (c *Contract) EffectiveDueDate(year int, month time.Month) time.Time {
	day := c.DueDay
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// InEffect reports whether the contract covers the given month.
func (c *Contract) InEffect(year int, month time.Month) bool {
	if !c.Active {
		return false
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond)
	if c.StartDate.After(monthEnd) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(monthStart) {
		return false
	}
	return true
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
