package oracle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// Analyzer extracts structured payment data from receipt images using the
// vision API. The service is non-deterministic and billable; its output is
// a best-effort guess that callers must validate.
type Analyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAnalyzer creates a new receipt analyzer
func NewAnalyzer(apiKey, model string, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// wireAnalysis mirrors the model's JSON answer with every field optional.
// The model omits, nulls or mistypes fields freely; nothing here is
// assumed present.
type wireAnalysis struct {
	IsReceipt     bool       `json:"is_receipt"`
	Amount        *float64   `json:"amount"`
	Date          string     `json:"date"`
	PaymentType   string     `json:"payment_type"`
	Confidence    int        `json:"confidence"`
	Payer         *wireParty `json:"payer"`
	Payee         *wireParty `json:"payee"`
	ReceiptNumber string     `json:"receipt_number"`
}

type wireParty struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Bank     string `json:"bank"`
	PixKey   string `json:"pix_key"`
}

// Analyze sends the receipt media through the vision API and returns the
// untrusted analysis. PDF documents are rasterized first.
func (a *Analyzer) Analyze(ctx context.Context, media []byte, mimeType string) (*models.ReceiptAnalysis, error) {
	if mimeType == "application/pdf" {
		page, err := renderPDFPage(media)
		if err != nil {
			return nil, fmt.Errorf("failed to convert PDF receipt: %w", err)
		}
		media = page
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(media))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Você é um especialista em ler comprovantes de pagamento brasileiros " +
					"(pix, TED, boleto). Extraia os dados estruturados da imagem.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: analysisPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision API returned no choices")
	}

	var wire wireAnalysis
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		a.logger.Error("Failed to parse analysis result",
			zap.Error(err),
			zap.String("content", content))
		return nil, fmt.Errorf("failed to parse analysis result: %w", err)
	}

	analysis := wire.toModel()
	a.logger.Info("Receipt analyzed",
		zap.Bool("is_receipt", analysis.IsReceipt),
		zap.Int("confidence", analysis.Confidence),
		zap.Bool("has_amount", analysis.Amount != nil))
	return analysis, nil
}

func (w *wireAnalysis) toModel() *models.ReceiptAnalysis {
	analysis := &models.ReceiptAnalysis{
		IsReceipt:     w.IsReceipt,
		PaymentType:   strings.TrimSpace(w.PaymentType),
		Confidence:    clampConfidence(w.Confidence),
		ReceiptNumber: strings.TrimSpace(w.ReceiptNumber),
	}

	if w.Amount != nil {
		amount := decimal.NewFromFloat(*w.Amount).Round(2)
		analysis.Amount = &amount
	}
	if date, ok := parseReceiptDate(w.Date); ok {
		analysis.Date = &date
	}
	if w.Payer != nil {
		analysis.Payer = w.Payer.toModel()
	}
	if w.Payee != nil {
		analysis.Payee = w.Payee.toModel()
	}
	return analysis
}

func (p *wireParty) toModel() *models.PartyIdentity {
	return &models.PartyIdentity{
		Name:     strings.TrimSpace(p.Name),
		Document: strings.TrimSpace(p.Document),
		Bank:     strings.TrimSpace(p.Bank),
		PixKey:   strings.TrimSpace(p.PixKey),
	}
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

var receiptDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

func parseReceiptDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

const analysisPrompt = `Analise a imagem e responda APENAS com um objeto JSON com os campos:
{
  "is_receipt": bool,        // a imagem é um comprovante de pagamento?
  "amount": number,          // valor pago, ex: 150.00 (omita se ilegível)
  "date": "YYYY-MM-DD",      // data do pagamento (omita se ilegível)
  "payment_type": string,    // "pix", "ted", "boleto" etc.
  "confidence": number,      // 0-100, sua confiança na leitura
  "payer": { "name": string, "document": string, "bank": string },
  "payee": { "name": string, "document": string, "bank": string, "pix_key": string },
  "receipt_number": string
}
Omita qualquer campo que não conseguir ler com segurança. Nunca invente valores.`
