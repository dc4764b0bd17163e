package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// amountTolerance is the fixed two-decimal-currency tolerance when comparing
// a claimed payment amount against an invoice amount.
var amountTolerance = decimal.NewFromFloat(0.01)

// dueDateWindow is how far an invoice due date may sit from the reference
// date (the day the original charge message went out) and still count as
// temporally close.
const dueDateWindow = 3 * 24 * time.Hour

// FindMatch picks at most one invoice that the claimed amount satisfies.
//
// Invoices within the amount tolerance are candidates. With a reference
// date and more than one candidate, candidates are narrowed to due dates
// within ±3 days of it: a single survivor wins, an empty window falls back
// to the most recent candidate by due date, and a still-ambiguous window
// gives up. Without a reference date the most recent due date wins. When
// ambiguity remains after all rules the answer is nil and a human resolves
// it; the system never guesses.
func FindMatch(openInvoices []*models.Invoice, claimedAmount decimal.Decimal, referenceDate *time.Time) *models.Invoice {
	var candidates []*models.Invoice
	for _, invoice := range openInvoices {
		if invoice.Amount.Sub(claimedAmount).Abs().Cmp(amountTolerance) <= 0 {
			candidates = append(candidates, invoice)
		}
	}

	switch {
	case len(candidates) == 0:
		return nil
	case len(candidates) == 1:
		return candidates[0]
	}

	if referenceDate != nil {
		var near []*models.Invoice
		for _, invoice := range candidates {
			if withinWindow(invoice.DueDate, *referenceDate) {
				near = append(near, invoice)
			}
		}
		switch len(near) {
		case 1:
			return near[0]
		case 0:
			return mostRecentByDueDate(candidates)
		default:
			// Multiple candidates inside the window: ambiguous.
			return nil
		}
	}

	return mostRecentByDueDate(candidates)
}

func withinWindow(dueDate, reference time.Time) bool {
	diff := truncateToDay(dueDate).Sub(truncateToDay(reference))
	if diff < 0 {
		diff = -diff
	}
	return diff <= dueDateWindow
}

// mostRecentByDueDate returns the candidate with the latest due date, or
// nil when two candidates share that date and the choice would be
// arbitrary.
func mostRecentByDueDate(candidates []*models.Invoice) *models.Invoice {
	best := candidates[0]
	tied := false
	for _, invoice := range candidates[1:] {
		switch {
		case invoice.DueDate.After(best.DueDate):
			best = invoice
			tied = false
		case invoice.DueDate.Equal(best.DueDate):
			tied = true
		}
	}
	if tied {
		return nil
	}
	return best
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
