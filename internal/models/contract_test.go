package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveDueDateClampsToMonthLength(t *testing.T) {
	contract := &Contract{DueDay: 28}

	// February of a non-leap year has exactly 28 days.
	assert.Equal(t,
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		contract.EffectiveDueDate(2025, time.February))

	assert.Equal(t,
		time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC),
		contract.EffectiveDueDate(2024, time.February))

	contract.DueDay = 15
	assert.Equal(t,
		time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		contract.EffectiveDueDate(2025, time.March))
}

func TestContractInEffect(t *testing.T) {
	end := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	contract := &Contract{
		MonthlyAmount: decimal.RequireFromString("99.90"),
		StartDate:     time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		EndDate:       &end,
		Active:        true,
	}

	assert.False(t, contract.InEffect(2025, time.January))
	assert.True(t, contract.InEffect(2025, time.February), "start mid-month still covers the month")
	assert.True(t, contract.InEffect(2025, time.June))
	assert.False(t, contract.InEffect(2025, time.July))

	contract.Active = false
	assert.False(t, contract.InEffect(2025, time.March))
}

func TestContractInEffectOpenEnded(t *testing.T) {
	contract := &Contract{
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
	assert.True(t, contract.InEffect(2030, time.December))
}
