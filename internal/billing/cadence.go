package billing

import (
	"time"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// Action pairs an invoice with the notification kind due today.
type Action struct {
	Invoice *models.Invoice
	Kind    string
}

// Plan decides which notification, if any, each invoice is due for on the
// given day. Priority is reminder, then due-today, then overdue; an invoice
// yields at most one action per call and an already-flipped flag is never
// re-yielded. Pure function: dispatching and flag flipping are the
// caller's job.
func Plan(invoices []*models.Invoice, today time.Time, reminderLeadDays, overdueGraceDays int) []Action {
	day := dateOnly(today)
	reminderTarget := day.AddDate(0, 0, reminderLeadDays)
	overdueTarget := day.AddDate(0, 0, -overdueGraceDays)

	var actions []Action
	for _, invoice := range invoices {
		due := dateOnly(invoice.DueDate)

		switch {
		case due.Equal(reminderTarget) && !invoice.ReminderSent:
			actions = append(actions, Action{Invoice: invoice, Kind: models.NotificationKindReminder})
		case due.Equal(day) && !invoice.DueNoticeSent:
			actions = append(actions, Action{Invoice: invoice, Kind: models.NotificationKindDueToday})
		case due.Equal(overdueTarget) && !invoice.OverdueNoticeSent &&
			invoice.Status != models.InvoiceStatusPaid && invoice.Status != models.InvoiceStatusCancelled:
			actions = append(actions, Action{Invoice: invoice, Kind: models.NotificationKindOverdue})
		}
	}
	return actions
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
