package notification

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/pkg/utils"
)

// TemplateData carries the values substituted into a message template.
type TemplateData struct {
	ClientName string
	Amount     decimal.Decimal
	DueDate    time.Time
	HolderName string
	PixKey     string
}

// defaultTemplates maps notification kind to its default message text.
// Placeholders: {{nome}}, {{valor}}, {{vencimento}}, {{titular}}, {{chave_pix}}.
var defaultTemplates = map[string]string{
	models.NotificationKindReminder: "Olá {{nome}}! Sua fatura de {{valor}} vence em {{vencimento}}. " +
		"Pague via pix para {{titular}} (chave: {{chave_pix}}) e envie o comprovante por aqui.",
	models.NotificationKindDueToday: "Olá {{nome}}! Sua fatura de {{valor}} vence hoje ({{vencimento}}). " +
		"Pague via pix para {{titular}} (chave: {{chave_pix}}) e envie o comprovante por aqui.",
	models.NotificationKindOverdue: "Olá {{nome}}, sua fatura de {{valor}} venceu em {{vencimento}} e segue em aberto. " +
		"Regularize via pix para {{titular}} (chave: {{chave_pix}}) para evitar a suspensão do serviço.",
	models.NotificationKindManual: "Olá {{nome}}! Segue o lembrete da sua fatura de {{valor}} com vencimento em {{vencimento}}. " +
		"Pague via pix para {{titular}} (chave: {{chave_pix}}) e envie o comprovante por aqui.",
}

// kindOrder is the fallback scan order when a kind has no template.
var kindOrder = []string{
	models.NotificationKindManual,
	models.NotificationKindReminder,
	models.NotificationKindDueToday,
	models.NotificationKindOverdue,
}

// TemplateFor returns the template for a kind, falling back to the first
// available template when the kind has none.
func TemplateFor(kind string) string {
	if tmpl, ok := defaultTemplates[kind]; ok {
		return tmpl
	}
	for _, k := range kindOrder {
		if tmpl, ok := defaultTemplates[k]; ok {
			return tmpl
		}
	}
	return ""
}

// Render substitutes the template placeholders with formatted values.
func Render(template string, data TemplateData) string {
	replacer := strings.NewReplacer(
		"{{nome}}", data.ClientName,
		"{{valor}}", utils.FormatBRL(data.Amount),
		"{{vencimento}}", utils.FormatDateBR(data.DueDate),
		"{{titular}}", data.HolderName,
		"{{chave_pix}}", data.PixKey,
	)
	return replacer.Replace(template)
}
