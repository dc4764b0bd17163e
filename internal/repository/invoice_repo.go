package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// InvoiceRepository handles invoice database operations
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

const invoiceColumns = `
	id, client_id, contract_id, amount, due_date, status,
	reminder_sent, due_notice_sent, overdue_notice_sent,
	paid_at, created_at, updated_at
`

// Create inserts a new invoice. When tx is nil the write goes straight to
// the connection pool.
func (r *InvoiceRepository) Create(tx *sql.Tx, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (
			client_id, contract_id, amount, due_date, status,
			reminder_sent, due_notice_sent, overdue_notice_sent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		invoice.ClientID,
		invoice.ContractID,
		invoice.Amount.StringFixed(2),
		invoice.DueDate.Format("2006-01-02"),
		invoice.Status,
		invoice.ReminderSent,
		invoice.DueNoticeSent,
		invoice.OverdueNoticeSent,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id
	return nil
}

// GetByID returns one invoice or sql.ErrNoRows wrapped in a descriptive error.
func (r *InvoiceRepository) GetByID(id int64) (*models.Invoice, error) {
	row := r.db.QueryRow(`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	invoice, err := scanInvoice(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invoice %d not found", id)
		}
		return nil, fmt.Errorf("failed to get invoice %d: %w", id, err)
	}
	return invoice, nil
}

// ListOpenByClient returns the client's invoices in PENDING or SENT status,
// most recent due date first.
func (r *InvoiceRepository) ListOpenByClient(clientID int64) ([]*models.Invoice, error) {
	return r.list(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE client_id = ? AND status IN (?, ?)
		ORDER BY due_date DESC
	`, clientID, models.InvoiceStatusPending, models.InvoiceStatusSent)
}

// ListOpen returns every open invoice, for the billing sweep.
func (r *InvoiceRepository) ListOpen() ([]*models.Invoice, error) {
	return r.list(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN (?, ?)
		ORDER BY due_date ASC
	`, models.InvoiceStatusPending, models.InvoiceStatusSent)
}

// ListOverdueOpen returns open invoices whose due date is strictly before
// asOf, for the collections report.
func (r *InvoiceRepository) ListOverdueOpen(asOf time.Time) ([]*models.Invoice, error) {
	return r.list(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN (?, ?) AND due_date < ?
		ORDER BY due_date ASC
	`, models.InvoiceStatusPending, models.InvoiceStatusSent, asOf.Format("2006-01-02"))
}

// Update persists status, notification flags and paid_at for an existing
// invoice. The amount is deliberately not updatable here.
func (r *InvoiceRepository) Update(tx *sql.Tx, invoice *models.Invoice) error {
	query := `
		UPDATE invoices
		SET status = ?, reminder_sent = ?, due_notice_sent = ?,
		    overdue_notice_sent = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	args := []interface{}{
		invoice.Status,
		invoice.ReminderSent,
		invoice.DueNoticeSent,
		invoice.OverdueNoticeSent,
		invoice.PaidAt,
		invoice.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to update invoice",
			zap.Int64("invoice_id", invoice.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update invoice %d: %w", invoice.ID, err)
	}
	return nil
}

// ExistsForContractMonth reports whether the contract already has an invoice
// due in the given calendar month.
func (r *InvoiceRepository) ExistsForContractMonth(contractID int64, year int, month time.Month) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(1) FROM invoices
		WHERE contract_id = ? AND strftime('%Y-%m', due_date) = ?
	`, contractID, fmt.Sprintf("%04d-%02d", year, int(month))).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check contract invoice: %w", err)
	}
	return count > 0, nil
}

func (r *InvoiceRepository) list(query string, args ...interface{}) ([]*models.Invoice, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var (
		invoice   models.Invoice
		amountStr string
	)
	err := row.Scan(
		&invoice.ID,
		&invoice.ClientID,
		&invoice.ContractID,
		&amountStr,
		&invoice.DueDate,
		&invoice.Status,
		&invoice.ReminderSent,
		&invoice.DueNoticeSent,
		&invoice.OverdueNoticeSent,
		&invoice.PaidAt,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amountStr, err)
	}
	invoice.Amount = amount
	return &invoice, nil
}
