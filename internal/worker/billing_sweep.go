package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/billing"
	"github.com/ruanvls/zapcobranca/internal/models"
)

// SweepInvoiceStore lists the open invoices considered by the sweep.
type SweepInvoiceStore interface {
	ListOpen() ([]*models.Invoice, error)
}

// SweepConfigStore loads the cadence offsets.
type SweepConfigStore interface {
	Get() (*models.CollectionConfig, error)
}

// SweepDispatcher sends one cadence notification.
type SweepDispatcher interface {
	DispatchAutomatic(ctx context.Context, invoice *models.Invoice, kind string) error
}

// InvoiceGenerator creates the month's invoices from recurring contracts.
type InvoiceGenerator interface {
	GenerateMonth(year int, month time.Month) (int, error)
}

// BillingSweepWorker periodically generates contract invoices for the
// current month and walks open invoices through the notification cadence.
// Dispatch is sequential on purpose: the per-send jitter is what throttles
// the outbound gateway.
type BillingSweepWorker struct {
	interval   time.Duration
	invoices   SweepInvoiceStore
	configs    SweepConfigStore
	dispatcher SweepDispatcher
	generator  InvoiceGenerator
	logger     *zap.Logger

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool

	// sweepMu serializes passes. The ticker loop and the admin trigger
	// share one worker, and an overlapping pass would re-plan invoices
	// whose cadence flags have not been flipped yet.
	sweepMu sync.Mutex

	now func() time.Time
}

// NewBillingSweepWorker creates the sweep worker.
func NewBillingSweepWorker(
	interval time.Duration,
	invoices SweepInvoiceStore,
	configs SweepConfigStore,
	dispatcher SweepDispatcher,
	generator InvoiceGenerator,
	logger *zap.Logger,
) *BillingSweepWorker {
	return &BillingSweepWorker{
		interval:   interval,
		invoices:   invoices,
		configs:    configs,
		dispatcher: dispatcher,
		generator:  generator,
		logger:     logger,
		now:        time.Now,
	}
}

// Name implements Worker.
func (w *BillingSweepWorker) Name() string { return "billing-sweep" }

// Start implements Worker.
func (w *BillingSweepWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("billing sweep already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	go w.loop()
	return nil
}

// Stop implements Worker.
func (w *BillingSweepWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.isRunning = false
	done := w.done
	w.mu.Unlock()
	<-done
}

func (w *BillingSweepWorker) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// First pass immediately on start.
	w.RunOnce(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(w.ctx)
		}
	}
}

// RunOnce executes one sweep pass. Exported so the admin API can trigger
// an immediate pass. If a pass is already in flight the call is skipped,
// not queued.
func (w *BillingSweepWorker) RunOnce(ctx context.Context) {
	if !w.sweepMu.TryLock() {
		w.logger.Info("Sweep pass already in flight, skipping")
		return
	}
	defer w.sweepMu.Unlock()

	today := w.now()

	if created, err := w.generator.GenerateMonth(today.Year(), today.Month()); err != nil {
		w.logger.Error("Contract invoice generation failed", zap.Error(err))
	} else if created > 0 {
		w.logger.Info("Contract invoices generated", zap.Int("count", created))
	}

	cfg, err := w.configs.Get()
	if err != nil {
		w.logger.Error("Failed to load collection config", zap.Error(err))
		return
	}
	if cfg == nil {
		w.logger.Warn("Collection config not set, skipping cadence sweep")
		return
	}

	invoices, err := w.invoices.ListOpen()
	if err != nil {
		w.logger.Error("Failed to list open invoices", zap.Error(err))
		return
	}

	actions := billing.Plan(invoices, today, cfg.ReminderLeadDays, cfg.OverdueGraceDays)
	if len(actions) == 0 {
		return
	}
	w.logger.Info("Cadence sweep planned", zap.Int("actions", len(actions)))

	for _, action := range actions {
		if ctx.Err() != nil {
			return
		}
		if err := w.dispatcher.DispatchAutomatic(ctx, action.Invoice, action.Kind); err != nil {
			w.logger.Warn("Cadence dispatch failed",
				zap.Int64("invoice_id", action.Invoice.ID),
				zap.String("kind", action.Kind),
				zap.Error(err))
		}
	}
}
