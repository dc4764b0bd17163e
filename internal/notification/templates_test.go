package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesAllPlaceholders(t *testing.T) {
	data := TemplateData{
		ClientName: "João Pereira",
		Amount:     decimal.RequireFromString("1234.50"),
		DueDate:    time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		HolderName: "Maria da Silva",
		PixKey:     "11987654321",
	}

	got := Render(TemplateFor("REMINDER"), data)
	assert.Contains(t, got, "João Pereira")
	assert.Contains(t, got, "R$ 1234,50")
	assert.Contains(t, got, "10/03/2025")
	assert.Contains(t, got, "Maria da Silva")
	assert.Contains(t, got, "11987654321")
	assert.NotContains(t, got, "{{")
}

func TestTemplateForUnknownKindFallsBack(t *testing.T) {
	got := TemplateFor("SOMETHING_ELSE")
	assert.NotEmpty(t, got)
	assert.Equal(t, TemplateFor("MANUAL"), got)
}

func TestTemplatesExistForEveryKind(t *testing.T) {
	for _, kind := range []string{"REMINDER", "DUE_TODAY", "OVERDUE", "MANUAL"} {
		assert.NotEmpty(t, TemplateFor(kind), "kind %s", kind)
	}
}
