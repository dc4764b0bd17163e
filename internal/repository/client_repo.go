package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// ClientRepository handles client database operations
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

const clientColumns = `id, full_name, phone_number, messaging_id, active, created_at, updated_at`

// Create inserts a new client record
func (r *ClientRepository) Create(client *models.Client) error {
	result, err := r.db.Exec(`
		INSERT INTO clients (full_name, phone_number, messaging_id, active)
		VALUES (?, ?, ?, ?)
	`, client.FullName, client.PhoneNumber, client.MessagingID, client.Active)
	if err != nil {
		r.logger.Error("Failed to create client", zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	return nil
}

// GetByID returns one client by primary key.
func (r *ClientRepository) GetByID(id int64) (*models.Client, error) {
	client, err := r.scanRow(r.db.QueryRow(
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("client %d not found", id)
		}
		return nil, fmt.Errorf("failed to get client %d: %w", id, err)
	}
	return client, nil
}

// GetByMessagingID resolves an inbound gateway identity (JID) to a client.
// Returns (nil, nil) when the sender is unknown.
func (r *ClientRepository) GetByMessagingID(messagingID string) (*models.Client, error) {
	client, err := r.scanRow(r.db.QueryRow(
		`SELECT `+clientColumns+` FROM clients WHERE messaging_id = ? LIMIT 1`, messagingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve messaging id: %w", err)
	}
	return client, nil
}

func (r *ClientRepository) scanRow(row *sql.Row) (*models.Client, error) {
	var client models.Client
	err := row.Scan(
		&client.ID,
		&client.FullName,
		&client.PhoneNumber,
		&client.MessagingID,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &client, nil
}
