package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount as Brazilian currency text, e.g. "R$ 150,00".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FormatDateBR renders a date as dd/mm/yyyy.
func FormatDateBR(t time.Time) string {
	return t.Format("02/01/2006")
}
