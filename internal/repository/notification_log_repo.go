package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// NotificationLogRepository appends to the outbound-message audit trail.
type NotificationLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationLogRepository creates a new notification log repository
func NewNotificationLogRepository(db *sql.DB, logger *zap.Logger) *NotificationLogRepository {
	return &NotificationLogRepository{db: db, logger: logger}
}

// Create appends one log row. Successful sends pass the dispatch
// transaction in tx; failed sends pass nil and are written best effort.
func (r *NotificationLogRepository) Create(tx *sql.Tx, log *models.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (invoice_id, kind, message_text, recipient, success, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		log.InvoiceID,
		log.Kind,
		log.MessageText,
		log.Recipient,
		log.Success,
		log.Error,
	}

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, args...)
	} else {
		result, err = r.db.Exec(query, args...)
	}
	if err != nil {
		r.logger.Error("Failed to write notification log",
			zap.Int64("invoice_id", log.InvoiceID),
			zap.Error(err))
		return fmt.Errorf("failed to write notification log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	log.ID = id
	return nil
}

// ListByInvoice returns the full send history for one invoice, newest
// first, including failed attempts.
func (r *NotificationLogRepository) ListByInvoice(invoiceID int64) ([]*models.NotificationLog, error) {
	rows, err := r.db.Query(`
		SELECT id, invoice_id, kind, message_text, recipient, success, error, created_at
		FROM notification_logs
		WHERE invoice_id = ?
		ORDER BY created_at DESC, id DESC
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.NotificationLog
	for rows.Next() {
		var log models.NotificationLog
		if err := rows.Scan(
			&log.ID,
			&log.InvoiceID,
			&log.Kind,
			&log.MessageText,
			&log.Recipient,
			&log.Success,
			&log.Error,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
