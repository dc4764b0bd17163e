package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ConnectionOpen is the gateway state required before manual sends.
const ConnectionOpen = "open"

// Config holds gateway client configuration
type Config struct {
	BaseURL  string
	APIKey   string
	Instance string
	Timeout  time.Duration
}

// Client talks to an Evolution-style WhatsApp gateway over HTTP. Calls are
// throttled per operation category and transient failures are retried with
// exponential backoff.
type Client struct {
	cfg      Config
	http     *http.Client
	throttle *throttle
	retry    *RetryStrategy
	logger   *zap.Logger
}

// NewClient creates a new gateway client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		throttle: newThrottle(),
		retry:    NewRetryStrategy(),
		logger:   logger,
	}
}

// SendText sends a direct text message to a phone number.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	if err := c.throttle.wait(ctx, opSend); err != nil {
		return err
	}
	path := fmt.Sprintf("/message/sendText/%s", c.cfg.Instance)
	err := c.post(ctx, path, sendTextRequest{Number: number, Text: text}, nil)
	if err != nil {
		return fmt.Errorf("failed to send text to %s: %w", number, err)
	}
	c.logger.Info("Message sent", zap.String("number", number))
	return nil
}

// SendGroupText posts a text message to a group.
func (c *Client) SendGroupText(ctx context.Context, groupID, text string) error {
	if err := c.throttle.wait(ctx, opGroupPost); err != nil {
		return err
	}
	path := fmt.Sprintf("/message/sendText/%s", c.cfg.Instance)
	err := c.post(ctx, path, sendTextRequest{Number: groupID, Text: text}, nil)
	if err != nil {
		return fmt.Errorf("failed to send group message to %s: %w", groupID, err)
	}
	c.logger.Info("Group message sent", zap.String("group_id", groupID))
	return nil
}

// SendGroupMedia posts media with a caption to a group.
func (c *Client) SendGroupMedia(ctx context.Context, groupID, caption string, media []byte, mimeType string) error {
	if err := c.throttle.wait(ctx, opGroupPost); err != nil {
		return err
	}
	mediaType := "document"
	if strings.HasPrefix(mimeType, "image/") {
		mediaType = "image"
	}
	path := fmt.Sprintf("/message/sendMedia/%s", c.cfg.Instance)
	err := c.post(ctx, path, sendMediaRequest{
		Number:    groupID,
		MediaType: mediaType,
		MimeType:  mimeType,
		Caption:   caption,
		Media:     base64.StdEncoding.EncodeToString(media),
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to send group media to %s: %w", groupID, err)
	}
	return nil
}

// ConnectionStatus returns the gateway session state ("open" when usable).
func (c *Client) ConnectionStatus(ctx context.Context) (string, error) {
	if err := c.throttle.wait(ctx, opSend); err != nil {
		return "", err
	}
	var resp connectionStateResponse
	path := fmt.Sprintf("/instance/connectionState/%s", c.cfg.Instance)
	if err := c.get(ctx, path, &resp); err != nil {
		return "", fmt.Errorf("failed to get connection state: %w", err)
	}
	return resp.Instance.State, nil
}

// GenerateQRCode returns the base64 pairing QR code for the instance.
func (c *Client) GenerateQRCode(ctx context.Context) (string, error) {
	if err := c.throttle.wait(ctx, opQRCode); err != nil {
		return "", err
	}
	var resp qrCodeResponse
	path := fmt.Sprintf("/instance/connect/%s", c.cfg.Instance)
	if err := c.get(ctx, path, &resp); err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return resp.Base64, nil
}

// CreateInstance registers the configured instance with the gateway.
func (c *Client) CreateInstance(ctx context.Context) error {
	if err := c.throttle.wait(ctx, opSend); err != nil {
		return err
	}
	body := map[string]interface{}{
		"instanceName": c.cfg.Instance,
		"qrcode":       true,
	}
	if err := c.post(ctx, "/instance/create", body, nil); err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	return nil
}

// Disconnect logs the instance out of the gateway session.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.throttle.wait(ctx, opSend); err != nil {
		return err
	}
	path := fmt.Sprintf("/instance/logout/%s", c.cfg.Instance)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil
}

// ListGroups returns the groups visible to the connected instance.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	if err := c.throttle.wait(ctx, opGroupList); err != nil {
		return nil, err
	}
	var groups []Group
	path := fmt.Sprintf("/group/fetchAllGroups/%s?getParticipants=false", c.cfg.Instance)
	if err := c.get(ctx, path, &groups); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// DownloadMedia asks the gateway to download and decrypt the media of an
// inbound message, returning the raw bytes and mime type.
func (c *Client) DownloadMedia(ctx context.Context, key MediaKey) ([]byte, string, error) {
	if err := c.throttle.wait(ctx, opSend); err != nil {
		return nil, "", err
	}
	var resp mediaDownloadResponse
	path := fmt.Sprintf("/chat/getBase64FromMediaMessage/%s", c.cfg.Instance)
	if err := c.post(ctx, path, map[string]interface{}{"message": map[string]interface{}{"key": key}}, &resp); err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Base64)
	if err != nil {
		return nil, "", fmt.Errorf("gateway returned invalid base64 media: %w", err)
	}
	return data, resp.MimeType, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// do executes one HTTP call with retry on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.retry.CalculateBackoff(attempt - 1)
			c.logger.Info("Retrying gateway call",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
		}

		status, respBody, err := c.doOnce(ctx, method, path, payload)
		if err != nil {
			lastErr = err
			if c.retry.IsTemporaryError(err) {
				continue
			}
			return err
		}

		if status >= 200 && status < 300 {
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("failed to decode gateway response: %w", err)
				}
			}
			return nil
		}

		lastErr = fmt.Errorf("gateway returned status %d: %s", status, truncate(respBody, 200))
		if !c.retry.IsRetryableStatusCode(status) {
			return lastErr
		}
	}
	return fmt.Errorf("gateway call %s failed after %d attempts: %w", path, c.retry.MaxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
