package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// ContractRepository handles contract database operations
type ContractRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *sql.DB, logger *zap.Logger) *ContractRepository {
	return &ContractRepository{db: db, logger: logger}
}

// Create inserts a new contract record
func (r *ContractRepository) Create(contract *models.Contract) error {
	var endDate interface{}
	if contract.EndDate != nil {
		endDate = contract.EndDate.Format("2006-01-02")
	}

	result, err := r.db.Exec(`
		INSERT INTO contracts (client_id, monthly_amount, due_day, start_date, end_date, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		contract.ClientID,
		contract.MonthlyAmount.StringFixed(2),
		contract.DueDay,
		contract.StartDate.Format("2006-01-02"),
		endDate,
		contract.Active,
	)
	if err != nil {
		r.logger.Error("Failed to create contract", zap.Error(err))
		return fmt.Errorf("failed to create contract: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	contract.ID = id
	return nil
}

// ListActive returns all contracts currently flagged active.
func (r *ContractRepository) ListActive() ([]*models.Contract, error) {
	rows, err := r.db.Query(`
		SELECT id, client_id, monthly_amount, due_day, start_date, end_date, active,
		       created_at, updated_at
		FROM contracts
		WHERE active = 1
		ORDER BY id ASC
	`)
	if err != nil {
		r.logger.Error("Failed to query contracts", zap.Error(err))
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		var (
			contract  models.Contract
			amountStr string
		)
		err := rows.Scan(
			&contract.ID,
			&contract.ClientID,
			&amountStr,
			&contract.DueDay,
			&contract.StartDate,
			&contract.EndDate,
			&contract.Active,
			&contract.CreatedAt,
			&contract.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid stored monthly amount %q: %w", amountStr, err)
		}
		contract.MonthlyAmount = amount
		contracts = append(contracts, &contract)
	}
	return contracts, rows.Err()
}
