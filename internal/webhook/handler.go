package webhook

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
	"github.com/ruanvls/zapcobranca/internal/whatsapp"
	"github.com/ruanvls/zapcobranca/internal/worker"
)

// ClientResolver maps a gateway sender identity to a known client.
type ClientResolver interface {
	GetByMessagingID(messagingID string) (*models.Client, error)
}

// MediaDownloader fetches and decrypts an inbound message's media.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, key whatsapp.MediaKey) ([]byte, string, error)
}

// Enqueuer hands a submission to the receipt worker.
type Enqueuer interface {
	Enqueue(job worker.ReceiptJob) error
}

// Handler receives gateway events, filters direct image/document messages
// from known clients and queues them for reconciliation. It always answers
// 200 quickly; processing outcomes surface through logs and WhatsApp
// replies, never through the webhook response.
type Handler struct {
	clients    ClientResolver
	downloader MediaDownloader
	queue      Enqueuer
	logger     *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(clients ClientResolver, downloader MediaDownloader, queue Enqueuer, logger *zap.Logger) *Handler {
	return &Handler{
		clients:    clients,
		downloader: downloader,
		queue:      queue,
		logger:     logger,
	}
}

// Handle processes one inbound gateway event.
func (h *Handler) Handle(c *gin.Context) {
	var event whatsapp.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Warn("Malformed webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	// Everything below this point is accepted; the gateway retries on
	// non-2xx and we never want replays of events we chose to skip.
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})

	if event.Event != "messages.upsert" {
		return
	}
	if event.Data.Key.FromMe {
		return
	}
	// Group chats are ignored: receipts only come in direct conversations.
	if strings.HasSuffix(event.Data.Key.RemoteJID, "@g.us") {
		return
	}

	media := event.Data.Message.ImageMessage
	if media == nil {
		media = event.Data.Message.DocumentMessage
	}
	if media == nil {
		return
	}
	if !acceptedMimeType(media.MimeType) {
		h.logger.Debug("Ignoring unsupported media type",
			zap.String("mime_type", media.MimeType))
		return
	}

	client, err := h.clients.GetByMessagingID(event.Data.Key.RemoteJID)
	if err != nil {
		h.logger.Error("Failed to resolve sender", zap.Error(err))
		return
	}
	if client == nil {
		h.logger.Info("Media from unknown sender ignored",
			zap.String("remote_jid", event.Data.Key.RemoteJID))
		return
	}

	submissionID := uuid.NewString()
	log := h.logger.With(
		zap.String("submission_id", submissionID),
		zap.Int64("client_id", client.ID))

	data, mimeType, err := h.downloader.DownloadMedia(c.Request.Context(), event.Data.Key)
	if err != nil {
		log.Error("Failed to download receipt media", zap.Error(err))
		return
	}
	if mimeType == "" {
		mimeType = media.MimeType
	}

	err = h.queue.Enqueue(worker.ReceiptJob{
		Client: client,
		Submission: &models.ReceiptSubmission{
			SubmissionID: submissionID,
			ClientID:     client.ID,
			Media:        data,
			MimeType:     mimeType,
			ReceivedAt:   time.Now(),
		},
	})
	if err != nil {
		log.Error("Failed to queue receipt submission", zap.Error(err))
		return
	}

	log.Info("Receipt submission queued", zap.String("mime_type", mimeType))
}

func acceptedMimeType(mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	return mimeType == "application/pdf"
}
