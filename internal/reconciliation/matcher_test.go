package reconciliation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruanvls/zapcobranca/internal/models"
)

func invoiceWith(id int64, amount string, dueDate time.Time) *models.Invoice {
	return &models.Invoice{
		ID:      id,
		Amount:  decimal.RequireFromString(amount),
		DueDate: dueDate,
		Status:  models.InvoiceStatusPending,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFindMatchAmountTolerance(t *testing.T) {
	due := day(2025, time.March, 10)

	tests := []struct {
		name    string
		amount  string
		claimed string
		matched bool
	}{
		{"exact", "150.00", "150.00", true},
		{"one cent above", "150.00", "150.01", true},
		{"one cent below", "150.00", "149.99", true},
		{"two cents above", "150.00", "150.02", false},
		{"two cents below", "150.00", "149.98", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open := []*models.Invoice{invoiceWith(1, tt.amount, due)}
			match := FindMatch(open, decimal.RequireFromString(tt.claimed), nil)
			if tt.matched {
				require.NotNil(t, match)
				assert.Equal(t, int64(1), match.ID)
			} else {
				assert.Nil(t, match)
			}
		})
	}
}

func TestFindMatchNoCandidates(t *testing.T) {
	open := []*models.Invoice{
		invoiceWith(1, "100.00", day(2025, time.March, 10)),
		invoiceWith(2, "200.00", day(2025, time.March, 20)),
	}
	assert.Nil(t, FindMatch(open, decimal.RequireFromString("150.00"), nil))
}

func TestFindMatchLatestDueDateWithoutReference(t *testing.T) {
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.February, 10)),
		invoiceWith(2, "150.00", day(2025, time.March, 10)),
		invoiceWith(3, "150.00", day(2025, time.January, 10)),
	}
	match := FindMatch(open, decimal.RequireFromString("150.00"), nil)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFindMatchDueDateTieIsAmbiguous(t *testing.T) {
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.March, 10)),
		invoiceWith(2, "150.00", day(2025, time.March, 10)),
	}
	assert.Nil(t, FindMatch(open, decimal.RequireFromString("150.00"), nil))
}

func TestFindMatchReferenceDateNarrowsToOne(t *testing.T) {
	reference := day(2025, time.March, 9)
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.January, 10)),
		invoiceWith(2, "150.00", day(2025, time.March, 10)),
	}
	match := FindMatch(open, decimal.RequireFromString("150.00"), &reference)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFindMatchEmptyWindowFallsBackToMostRecent(t *testing.T) {
	// Neither candidate is within 3 days of the reference: fall back to
	// the most recent due date among the amount matches.
	reference := day(2025, time.June, 1)
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.January, 10)),
		invoiceWith(2, "150.00", day(2025, time.March, 10)),
	}
	match := FindMatch(open, decimal.RequireFromString("150.00"), &reference)
	require.NotNil(t, match)
	assert.Equal(t, int64(2), match.ID)
}

func TestFindMatchAmbiguousWindowGivesUp(t *testing.T) {
	// Two candidates inside the window: never guess.
	reference := day(2025, time.March, 10)
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.March, 9)),
		invoiceWith(2, "150.00", day(2025, time.March, 11)),
	}
	assert.Nil(t, FindMatch(open, decimal.RequireFromString("150.00"), &reference))
}

func TestFindMatchWindowBoundary(t *testing.T) {
	reference := day(2025, time.March, 10)
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.March, 13)), // exactly +3 days
		invoiceWith(2, "150.00", day(2025, time.March, 20)), // outside
	}
	match := FindMatch(open, decimal.RequireFromString("150.00"), &reference)
	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.ID)
}

func TestFindMatchIsDeterministic(t *testing.T) {
	open := []*models.Invoice{
		invoiceWith(1, "150.00", day(2025, time.February, 10)),
		invoiceWith(2, "150.00", day(2025, time.March, 10)),
	}
	claimed := decimal.RequireFromString("150.00")

	first := FindMatch(open, claimed, nil)
	second := FindMatch(open, claimed, nil)
	require.NotNil(t, first)
	assert.Equal(t, first.ID, second.ID)
}
