package notification

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/whatsapp"
)

// Messenger is the slice of the gateway client dispatch needs.
type Messenger interface {
	SendText(ctx context.Context, number, text string) error
	ConnectionStatus(ctx context.Context) (string, error)
}

// InvoiceStore persists invoice flag/status changes after a send.
type InvoiceStore interface {
	GetByID(id int64) (*models.Invoice, error)
	Update(tx *sql.Tx, invoice *models.Invoice) error
}

// ClientStore resolves the invoice's client.
type ClientStore interface {
	GetByID(id int64) (*models.Client, error)
}

// ConfigStore loads collection identity for template rendering.
type ConfigStore interface {
	Get() (*models.CollectionConfig, error)
}

// LogStore appends notification log rows.
type LogStore interface {
	Create(tx *sql.Tx, log *models.NotificationLog) error
}

// TxRunner wraps the post-send write in a transaction.
type TxRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

// DelayWindow bounds the randomized anti-ban delay before a send. The
// windows are product configuration, not a contract with the gateway.
type DelayWindow struct {
	Min time.Duration
	Max time.Duration
}

// strategy is the per-variant behavior of the dispatch pipeline: what to
// check before sending, which kind to log, and how long to stall.
type strategy struct {
	precondition func(ctx context.Context, client *models.Client) error
	logKind      func(cadenceKind string) string
	delay        DelayWindow
}

// Dispatcher formats, throttles, sends and records invoice notifications.
type Dispatcher struct {
	messenger Messenger
	invoices  InvoiceStore
	clients   ClientStore
	configs   ConfigStore
	logs      LogStore
	tx        TxRunner
	logger    *zap.Logger

	// AutomaticDelay and ManualDelay default to 5-15s and 5-10s.
	AutomaticDelay DelayWindow
	ManualDelay    DelayWindow

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	randn func(n int64) int64
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(
	messenger Messenger,
	invoices InvoiceStore,
	clients ClientStore,
	configs ConfigStore,
	logs LogStore,
	tx TxRunner,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		messenger:      messenger,
		invoices:       invoices,
		clients:        clients,
		configs:        configs,
		logs:           logs,
		tx:             tx,
		logger:         logger,
		AutomaticDelay: DelayWindow{Min: 5 * time.Second, Max: 15 * time.Second},
		ManualDelay:    DelayWindow{Min: 5 * time.Second, Max: 10 * time.Second},
		sleep:          sleepCtx,
		now:            time.Now,
		randn:          rand.Int63n,
	}
}

// DispatchAutomatic sends a cadence notification from the batch sweep.
// Precondition: the client exists and is active.
func (d *Dispatcher) DispatchAutomatic(ctx context.Context, invoice *models.Invoice, kind string) error {
	return d.dispatch(ctx, invoice, kind, strategy{
		precondition: func(ctx context.Context, client *models.Client) error {
			if !client.Active {
				return fmt.Errorf("client %d is inactive", client.ID)
			}
			return nil
		},
		logKind: func(cadenceKind string) string { return cadenceKind },
		delay:   d.AutomaticDelay,
	})
}

// DispatchManual sends a single invoice's charge on operator request. It
// fails fast when the gateway session is not open, and always logs kind
// MANUAL whatever the invoice's cadence stage.
func (d *Dispatcher) DispatchManual(ctx context.Context, invoiceID int64) error {
	invoice, err := d.invoices.GetByID(invoiceID)
	if err != nil {
		return err
	}
	return d.dispatch(ctx, invoice, models.NotificationKindManual, strategy{
		precondition: func(ctx context.Context, client *models.Client) error {
			if !client.Active {
				return fmt.Errorf("client %d is inactive", client.ID)
			}
			state, err := d.messenger.ConnectionStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to check gateway connection: %w", err)
			}
			if state != whatsapp.ConnectionOpen {
				return fmt.Errorf("gateway connection is %q, expected %q; connect the instance before sending",
					state, whatsapp.ConnectionOpen)
			}
			return nil
		},
		logKind: func(string) string { return models.NotificationKindManual },
		delay:   d.ManualDelay,
	})
}

// dispatch is the shared pipeline: preconditions, template, jittered
// delay, send, then one transaction writing the log row, the cadence flag
// and status SENT. A failed send is logged outside any transaction and
// flips nothing.
func (d *Dispatcher) dispatch(ctx context.Context, invoice *models.Invoice, kind string, strat strategy) error {
	client, err := d.clients.GetByID(invoice.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client for invoice %d: %w", invoice.ID, err)
	}
	if err := strat.precondition(ctx, client); err != nil {
		return err
	}

	cfg, err := d.configs.Get()
	if err != nil {
		return fmt.Errorf("failed to load collection config: %w", err)
	}
	data := TemplateData{
		ClientName: client.FullName,
		Amount:     invoice.Amount,
		DueDate:    invoice.DueDate,
	}
	if cfg != nil {
		data.HolderName = cfg.HolderName
		data.PixKey = cfg.PixKey
	}
	message := Render(TemplateFor(kind), data)
	logKind := strat.logKind(kind)

	if err := d.jitter(ctx, strat.delay); err != nil {
		return err
	}

	if sendErr := d.messenger.SendText(ctx, client.PhoneNumber, message); sendErr != nil {
		d.logger.Warn("Notification send failed",
			zap.Int64("invoice_id", invoice.ID),
			zap.String("kind", logKind),
			zap.Error(sendErr))

		// Best effort, outside any transaction: the failed attempt is
		// still part of the audit trail.
		if logErr := d.logs.Create(nil, &models.NotificationLog{
			InvoiceID:   invoice.ID,
			Kind:        logKind,
			MessageText: message,
			Recipient:   client.PhoneNumber,
			Success:     false,
			Error:       sendErr.Error(),
		}); logErr != nil {
			d.logger.Error("Failed to record failed send", zap.Error(logErr))
		}
		return fmt.Errorf("failed to send %s notification for invoice %d: %w", logKind, invoice.ID, sendErr)
	}

	err = d.tx.WithTransaction(func(tx *sql.Tx) error {
		if err := d.logs.Create(tx, &models.NotificationLog{
			InvoiceID:   invoice.ID,
			Kind:        logKind,
			MessageText: message,
			Recipient:   client.PhoneNumber,
			Success:     true,
		}); err != nil {
			return err
		}
		setCadenceFlag(invoice, kind)
		invoice.MarkSent(d.now())
		return d.invoices.Update(tx, invoice)
	})
	if err != nil {
		return fmt.Errorf("failed to record sent notification for invoice %d: %w", invoice.ID, err)
	}

	d.logger.Info("Notification dispatched",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("kind", logKind),
		zap.String("recipient", client.PhoneNumber))
	return nil
}

func (d *Dispatcher) jitter(ctx context.Context, window DelayWindow) error {
	if window.Max <= window.Min {
		return d.sleep(ctx, window.Min)
	}
	delay := window.Min + time.Duration(d.randn(int64(window.Max-window.Min)))
	return d.sleep(ctx, delay)
}

func setCadenceFlag(invoice *models.Invoice, kind string) {
	switch kind {
	case models.NotificationKindReminder:
		invoice.ReminderSent = true
	case models.NotificationKindDueToday:
		invoice.DueNoticeSent = true
	case models.NotificationKindOverdue:
		invoice.OverdueNoticeSent = true
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
