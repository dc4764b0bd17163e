package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruanvls/zapcobranca/internal/models"
)

func invoiceDue(due time.Time) *models.Invoice {
	return &models.Invoice{
		ID:       1,
		ClientID: 1,
		Amount:   decimal.RequireFromString("150.00"),
		DueDate:  due,
		Status:   models.InvoiceStatusPending,
	}
}

func TestPlanReminderLeadDays(t *testing.T) {
	today := time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC)
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))

	actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
	require.Len(t, actions, 1)
	assert.Equal(t, models.NotificationKindReminder, actions[0].Kind)
	assert.Same(t, invoice, actions[0].Invoice)
}

func TestPlanDueToday(t *testing.T) {
	today := time.Date(2025, time.March, 8, 23, 59, 0, 0, time.UTC)
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))

	actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
	require.Len(t, actions, 1)
	assert.Equal(t, models.NotificationKindDueToday, actions[0].Kind)
}

func TestPlanOverdueAfterGrace(t *testing.T) {
	today := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))

	actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
	require.Len(t, actions, 1)
	assert.Equal(t, models.NotificationKindOverdue, actions[0].Kind)
}

func TestPlanFlagSuppressesReYield(t *testing.T) {
	today := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))
	invoice.ReminderSent = true

	actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
	assert.Empty(t, actions)
}

func TestPlanAtMostOneActionPerInvoice(t *testing.T) {
	// With zero lead and zero grace all three targets collapse onto the
	// due date; the reminder wins.
	today := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))

	actions := Plan([]*models.Invoice{invoice}, today, 0, 0)
	require.Len(t, actions, 1)
	assert.Equal(t, models.NotificationKindReminder, actions[0].Kind)

	invoice.ReminderSent = true
	actions = Plan([]*models.Invoice{invoice}, today, 0, 0)
	require.Len(t, actions, 1)
	assert.Equal(t, models.NotificationKindDueToday, actions[0].Kind)
}

func TestPlanPaidAndCancelledNeverOverdue(t *testing.T) {
	today := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)

	for _, status := range []string{models.InvoiceStatusPaid, models.InvoiceStatusCancelled} {
		invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))
		invoice.Status = status
		actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
		assert.Empty(t, actions, "status %s must not be chased", status)
	}
}

func TestPlanOffTargetDaysYieldNothing(t *testing.T) {
	invoice := invoiceDue(time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC))

	for _, day := range []int{4, 6, 7, 10, 11} {
		today := time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC)
		actions := Plan([]*models.Invoice{invoice}, today, 3, 1)
		assert.Empty(t, actions, "day %d is not a cadence target", day)
	}
}
