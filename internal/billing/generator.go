package billing

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// ContractLister lists the contracts eligible for generation.
type ContractLister interface {
	ListActive() ([]*models.Contract, error)
}

// GeneratorInvoiceStore is the invoice persistence surface generation needs.
type GeneratorInvoiceStore interface {
	ExistsForContractMonth(contractID int64, year int, month time.Month) (bool, error)
	Create(tx *sql.Tx, invoice *models.Invoice) error
}

// Generator creates the month's invoices from recurring contracts.
type Generator struct {
	contracts ContractLister
	invoices  GeneratorInvoiceStore
	logger    *zap.Logger
}

// NewGenerator creates a new contract invoice generator
func NewGenerator(contracts ContractLister, invoices GeneratorInvoiceStore, logger *zap.Logger) *Generator {
	return &Generator{contracts: contracts, invoices: invoices, logger: logger}
}

// GenerateMonth creates one pending invoice per active contract in effect
// for the given month. Idempotent: contracts that already have an invoice
// due that month are skipped, so a second run is a no-op. Returns the
// number of invoices created.
func (g *Generator) GenerateMonth(year int, month time.Month) (int, error) {
	contracts, err := g.contracts.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list contracts: %w", err)
	}

	created := 0
	for _, contract := range contracts {
		if !contract.InEffect(year, month) {
			continue
		}

		exists, err := g.invoices.ExistsForContractMonth(contract.ID, year, month)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		contractID := contract.ID
		invoice := &models.Invoice{
			ClientID:   contract.ClientID,
			ContractID: &contractID,
			Amount:     contract.MonthlyAmount,
			DueDate:    contract.EffectiveDueDate(year, month),
			Status:     models.InvoiceStatusPending,
		}
		if err := g.invoices.Create(nil, invoice); err != nil {
			return created, fmt.Errorf("failed to create invoice for contract %d: %w", contract.ID, err)
		}

		g.logger.Info("Invoice generated from contract",
			zap.Int64("contract_id", contract.ID),
			zap.Int64("invoice_id", invoice.ID),
			zap.String("due_date", invoice.DueDate.Format("2006-01-02")))
		created++
	}
	return created, nil
}
