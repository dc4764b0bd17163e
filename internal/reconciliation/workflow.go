package reconciliation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/pkg/utils"
)

// Rejection reason constants. A rejection is a handled business outcome,
// not an error: the payer has already been told why in the same call.
const (
	RejectNotReceipt       = "NOT_RECEIPT"
	RejectWrongDestination = "WRONG_DESTINATION"
	RejectUnreadableAmount = "UNREADABLE_AMOUNT"
	RejectNoOpenInvoice    = "NO_OPEN_INVOICE"
	RejectAmountMismatch   = "AMOUNT_MISMATCH"
)

// Outcome is the result of processing one receipt submission.
type Outcome struct {
	SubmissionID string
	Paid         bool
	InvoiceID    int64
	RejectReason string
	PayerMessage string
}

// Oracle analyzes a receipt image and returns an untrusted structured guess.
type Oracle interface {
	Analyze(ctx context.Context, media []byte, mimeType string) (*models.ReceiptAnalysis, error)
}

// Messenger is the slice of the gateway client the workflow needs.
type Messenger interface {
	SendText(ctx context.Context, number, text string) error
	SendGroupText(ctx context.Context, groupID, text string) error
	SendGroupMedia(ctx context.Context, groupID, caption string, media []byte, mimeType string) error
}

// InvoiceStore is the invoice persistence surface used during reconciliation.
type InvoiceStore interface {
	ListOpenByClient(clientID int64) ([]*models.Invoice, error)
	Update(tx *sql.Tx, invoice *models.Invoice) error
}

// ConfigStore loads the collection identity configuration.
type ConfigStore interface {
	Get() (*models.CollectionConfig, error)
}

// TxRunner wraps a function in a begin/commit/rollback boundary.
type TxRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

// Workflow reconciles submitted receipts against a client's open invoices.
type Workflow struct {
	oracle    Oracle
	messenger Messenger
	invoices  InvoiceStore
	configs   ConfigStore
	tx        TxRunner
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorkflow creates a reconciliation workflow.
func NewWorkflow(
	oracle Oracle,
	messenger Messenger,
	invoices InvoiceStore,
	configs ConfigStore,
	tx TxRunner,
	logger *zap.Logger,
) *Workflow {
	return &Workflow{
		oracle:    oracle,
		messenger: messenger,
		invoices:  invoices,
		configs:   configs,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs the full receipt pipeline for one submission: analyze,
// validate destination and amount, match an open invoice, mark it paid in
// a transaction, then notify the audit group (best effort) and the payer.
// Oracle and transaction failures come back as errors; everything the
// payer can fix comes back as a rejection Outcome.
func (w *Workflow) Process(ctx context.Context, client *models.Client, sub *models.ReceiptSubmission) (*Outcome, error) {
	log := w.logger.With(
		zap.String("submission_id", sub.SubmissionID),
		zap.Int64("client_id", client.ID))

	analysis, err := w.oracle.Analyze(ctx, sub.Media, sub.MimeType)
	if err != nil {
		log.Error("Receipt analysis failed", zap.Error(err))
		return nil, fmt.Errorf("receipt analysis failed: %w", err)
	}

	if !analysis.IsReceipt {
		log.Info("Submission rejected: not a receipt",
			zap.Int("confidence", analysis.Confidence))
		return w.reject(ctx, client, sub, RejectNotReceipt,
			"O arquivo enviado não parece ser um comprovante de pagamento válido. "+
				"Por favor, envie uma foto ou PDF do comprovante."), nil
	}

	cfg, err := w.configs.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load collection config: %w", err)
	}

	if err := ValidateDestination(analysis.Payee, cfg); err != nil {
		log.Info("Submission rejected: destination mismatch", zap.Error(err))
		return w.reject(ctx, client, sub, RejectWrongDestination,
			"Os dados do destinatário no comprovante não correspondem aos nossos registros. "+
				"Verifique se o pagamento foi feito para a chave correta."), nil
	}

	if analysis.Amount == nil || !analysis.Amount.IsPositive() {
		log.Info("Submission rejected: unreadable amount")
		return w.reject(ctx, client, sub, RejectUnreadableAmount,
			"Não foi possível ler o valor do comprovante. "+
				"Por favor, envie uma imagem mais nítida."), nil
	}

	openInvoices, err := w.invoices.ListOpenByClient(client.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	if len(openInvoices) == 0 {
		log.Info("Submission rejected: no open invoice")
		return w.reject(ctx, client, sub, RejectNoOpenInvoice,
			"Não encontramos nenhuma fatura pendente para você. "+
				"Se acredita que isso é um erro, fale com a gente."), nil
	}

	// No reference date at this call site: the matcher tie-breaks by the
	// most recent due date.
	matched := FindMatch(openInvoices, *analysis.Amount, nil)
	if matched == nil {
		expected := mostRecentOpen(openInvoices)
		log.Info("Submission rejected: amount mismatch",
			zap.String("claimed_amount", analysis.Amount.StringFixed(2)),
			zap.String("expected_amount", expected.Amount.StringFixed(2)))
		return w.reject(ctx, client, sub, RejectAmountMismatch,
			fmt.Sprintf("O valor de %s não corresponde à sua fatura pendente de %s. "+
				"Por favor, confira o comprovante enviado.",
				utils.FormatBRL(*analysis.Amount), utils.FormatBRL(expected.Amount))), nil
	}

	err = w.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := matched.MarkPaid(w.now()); err != nil {
			return err
		}
		return w.invoices.Update(tx, matched)
	})
	if err != nil {
		log.Error("Failed to commit payment", zap.Int64("invoice_id", matched.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to mark invoice %d paid: %w", matched.ID, err)
	}

	log.Info("Receipt reconciled",
		zap.Int64("invoice_id", matched.ID),
		zap.String("amount", matched.Amount.StringFixed(2)))

	w.notifyAuditGroup(ctx, cfg, client, matched, sub)

	successMsg := fmt.Sprintf(
		"Pagamento validado! Recebemos seu comprovante de %s e a fatura com vencimento em %s foi baixada. Obrigado!",
		utils.FormatBRL(matched.Amount), utils.FormatDateBR(matched.DueDate))
	if err := w.messenger.SendText(ctx, client.PhoneNumber, successMsg); err != nil {
		log.Warn("Failed to send payment confirmation", zap.Error(err))
	}

	return &Outcome{
		SubmissionID: sub.SubmissionID,
		Paid:         true,
		InvoiceID:    matched.ID,
		PayerMessage: successMsg,
	}, nil
}

// reject informs the payer synchronously and returns the handled outcome.
// A failed send is logged but does not change the outcome.
func (w *Workflow) reject(ctx context.Context, client *models.Client, sub *models.ReceiptSubmission, reason, message string) *Outcome {
	if err := w.messenger.SendText(ctx, client.PhoneNumber, message); err != nil {
		w.logger.Warn("Failed to send rejection message",
			zap.String("submission_id", sub.SubmissionID),
			zap.String("reason", reason),
			zap.Error(err))
	}
	return &Outcome{
		SubmissionID: sub.SubmissionID,
		RejectReason: reason,
		PayerMessage: message,
	}
}

// notifyAuditGroup posts the validated payment to the internal audit group,
// attaching the receipt itself when the media is still in hand. Failures are
// logged only; the payment is already committed.
func (w *Workflow) notifyAuditGroup(ctx context.Context, cfg *models.CollectionConfig, client *models.Client, invoice *models.Invoice, sub *models.ReceiptSubmission) {
	if cfg == nil || cfg.AuditGroupID == "" {
		return
	}
	text := fmt.Sprintf(
		"Comprovante %s validado: %s pagou %s (fatura #%d, vencimento %s).",
		sub.SubmissionID, client.FullName, utils.FormatBRL(invoice.Amount),
		invoice.ID, utils.FormatDateBR(invoice.DueDate))

	var err error
	if len(sub.Media) > 0 {
		err = w.messenger.SendGroupMedia(ctx, cfg.AuditGroupID, text, sub.Media, sub.MimeType)
	} else {
		err = w.messenger.SendGroupText(ctx, cfg.AuditGroupID, text)
	}
	if err != nil {
		w.logger.Warn("Failed to notify audit group",
			zap.String("submission_id", sub.SubmissionID),
			zap.Error(err))
	}
}

func mostRecentOpen(invoices []*models.Invoice) *models.Invoice {
	best := invoices[0]
	for _, invoice := range invoices[1:] {
		if invoice.DueDate.After(best.DueDate) {
			best = invoice
		}
	}
	return best
}
