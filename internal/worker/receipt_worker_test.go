package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/reconciliation"
)

type countingProcessor struct {
	mu        sync.Mutex
	processed []string
	notify    chan struct{}
}

func (p *countingProcessor) Process(_ context.Context, _ *models.Client, sub *models.ReceiptSubmission) (*reconciliation.Outcome, error) {
	p.mu.Lock()
	p.processed = append(p.processed, sub.SubmissionID)
	p.mu.Unlock()
	if p.notify != nil {
		p.notify <- struct{}{}
	}
	return &reconciliation.Outcome{SubmissionID: sub.SubmissionID, Paid: true}, nil
}

func (p *countingProcessor) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func job(id string) ReceiptJob {
	return ReceiptJob{
		Client:     &models.Client{ID: 1, PhoneNumber: "5511912345678", Active: true},
		Submission: &models.ReceiptSubmission{SubmissionID: id, ClientID: 1, MimeType: "image/jpeg"},
	}
}

func TestReceiptWorkerProcessesQueuedJobs(t *testing.T) {
	processor := &countingProcessor{notify: make(chan struct{}, 2)}
	w := NewReceiptWorker(4, processor, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, w.Enqueue(job("sub-1")))
	require.NoError(t, w.Enqueue(job("sub-2")))

	for i := 0; i < 2; i++ {
		select {
		case <-processor.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for job to be processed")
		}
	}
	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, processor.seen())
}

func TestReceiptWorkerQueueFull(t *testing.T) {
	// Worker never started, so nothing drains the queue.
	w := NewReceiptWorker(2, &countingProcessor{}, zap.NewNop())

	require.NoError(t, w.Enqueue(job("sub-1")))
	require.NoError(t, w.Enqueue(job("sub-2")))
	assert.ErrorIs(t, w.Enqueue(job("sub-3")), ErrQueueFull)
}

func TestReceiptWorkerStartTwiceFails(t *testing.T) {
	w := NewReceiptWorker(1, &countingProcessor{}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.Error(t, w.Start(context.Background()))
}

func TestReceiptWorkerStopIsIdempotent(t *testing.T) {
	w := NewReceiptWorker(1, &countingProcessor{}, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
