package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/pkg/utils"
)

// OverdueInvoiceStore lists the overdue open invoices for the report.
type OverdueInvoiceStore interface {
	ListOverdueOpen(asOf time.Time) ([]*models.Invoice, error)
}

// ClientStore resolves invoice owners for the report rows.
type ClientStore interface {
	GetByID(id int64) (*models.Client, error)
}

// OverdueReport builds an xlsx spreadsheet of overdue open invoices for
// the operator.
type OverdueReport struct {
	invoices OverdueInvoiceStore
	clients  ClientStore
	logger   *zap.Logger
}

// NewOverdueReport creates a new overdue report builder
func NewOverdueReport(invoices OverdueInvoiceStore, clients ClientStore, logger *zap.Logger) *OverdueReport {
	return &OverdueReport{invoices: invoices, clients: clients, logger: logger}
}

const sheetName = "Faturas em atraso"

// Generate returns the report as xlsx bytes.
func (r *OverdueReport) Generate(asOf time.Time) ([]byte, error) {
	invoices, err := r.invoices.ListOverdueOpen(asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"Fatura", "Cliente", "Telefone", "Valor", "Vencimento", "Dias em atraso", "Status"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	clientNames := make(map[int64]*models.Client)
	for rowIdx, invoice := range invoices {
		client, ok := clientNames[invoice.ClientID]
		if !ok {
			client, err = r.clients.GetByID(invoice.ClientID)
			if err != nil {
				return nil, err
			}
			clientNames[invoice.ClientID] = client
		}

		daysLate := int(asOf.Sub(invoice.DueDate).Hours() / 24)
		values := []interface{}{
			invoice.ID,
			client.FullName,
			client.PhoneNumber,
			utils.FormatBRL(invoice.Amount),
			utils.FormatDateBR(invoice.DueDate),
			daysLate,
			invoice.Status,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	r.logger.Info("Overdue report generated", zap.Int("invoices", len(invoices)))
	return buf.Bytes(), nil
}
