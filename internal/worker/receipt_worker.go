package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/reconciliation"
)

// ErrQueueFull is returned when the receipt queue cannot take another
// submission; the webhook handler logs it and drops the event.
var ErrQueueFull = fmt.Errorf("receipt queue is full")

// ReceiptJob is one queued receipt submission.
type ReceiptJob struct {
	Client     *models.Client
	Submission *models.ReceiptSubmission
}

// ReceiptProcessor runs the reconciliation pipeline for one submission.
type ReceiptProcessor interface {
	Process(ctx context.Context, client *models.Client, sub *models.ReceiptSubmission) (*reconciliation.Outcome, error)
}

// ReceiptWorker consumes a bounded queue of receipt submissions handed off
// by the webhook handler. The queue makes the handoff explicit: failures
// are visible in logs and a full queue pushes back instead of spawning
// unbounded goroutines.
type ReceiptWorker struct {
	queue     chan ReceiptJob
	processor ReceiptProcessor
	logger    *zap.Logger

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
}

// NewReceiptWorker creates a receipt worker with the given queue capacity.
func NewReceiptWorker(queueSize int, processor ReceiptProcessor, logger *zap.Logger) *ReceiptWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &ReceiptWorker{
		queue:     make(chan ReceiptJob, queueSize),
		processor: processor,
		logger:    logger,
	}
}

// Name implements Worker.
func (w *ReceiptWorker) Name() string { return "receipt-reconciliation" }

// Start implements Worker.
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("receipt worker already running")
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	go w.loop()
	return nil
}

// Stop implements Worker.
func (w *ReceiptWorker) Stop() {
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

// Enqueue hands a submission to the worker without blocking the webhook
// response. Returns ErrQueueFull when the queue is saturated.
func (w *ReceiptWorker) Enqueue(job ReceiptJob) error {
	select {
	case w.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *ReceiptWorker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case job := <-w.queue:
			w.process(job)
		}
	}
}

func (w *ReceiptWorker) process(job ReceiptJob) {
	outcome, err := w.processor.Process(w.ctx, job.Client, job.Submission)
	if err != nil {
		// Infrastructure failure: nothing to surface to the webhook
		// caller, the log line is the error channel.
		w.logger.Error("Receipt processing failed",
			zap.String("submission_id", job.Submission.SubmissionID),
			zap.Int64("client_id", job.Client.ID),
			zap.Error(err))
		return
	}

	if outcome.Paid {
		w.logger.Info("Receipt accepted",
			zap.String("submission_id", outcome.SubmissionID),
			zap.Int64("invoice_id", outcome.InvoiceID))
	} else {
		w.logger.Info("Receipt rejected",
			zap.String("submission_id", outcome.SubmissionID),
			zap.String("reason", outcome.RejectReason))
	}
}
