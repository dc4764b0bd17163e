package whatsapp

// sendTextRequest is the gateway payload for a direct text message.
type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// sendMediaRequest posts media (base64) with an optional caption.
type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Caption   string `json:"caption,omitempty"`
	Media     string `json:"media"` // base64
}

// connectionStateResponse is returned by the connection state endpoint.
type connectionStateResponse struct {
	Instance struct {
		InstanceName string `json:"instanceName"`
		State        string `json:"state"` // "open", "connecting", "close"
	} `json:"instance"`
}

// qrCodeResponse carries the pairing QR code as base64 PNG.
type qrCodeResponse struct {
	Base64 string `json:"base64"`
	Code   string `json:"code"`
}

// Group is one WhatsApp group visible to the connected instance.
type Group struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Size    int    `json:"size"`
}

// MediaKey identifies a message whose media should be downloaded and
// decrypted by the gateway. It is passed through verbatim from the webhook
// event.
type MediaKey struct {
	MessageID string `json:"id"`
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
}

// mediaDownloadResponse returns the decrypted media as base64.
type mediaDownloadResponse struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimetype"`
}

// Event is the inbound webhook envelope posted by the gateway.
type Event struct {
	Event    string    `json:"event"`
	Instance string    `json:"instance"`
	Data     EventData `json:"data"`
}

// EventData is the message portion of an inbound event.
type EventData struct {
	Key         MediaKey     `json:"key"`
	PushName    string       `json:"pushName"`
	Message     EventMessage `json:"message"`
	MessageType string       `json:"messageType"`
	Timestamp   int64        `json:"messageTimestamp"`
}

// EventMessage holds whichever message variant arrived; unset variants are
// nil.
type EventMessage struct {
	Conversation    string        `json:"conversation,omitempty"`
	ImageMessage    *MediaMessage `json:"imageMessage,omitempty"`
	DocumentMessage *MediaMessage `json:"documentMessage,omitempty"`
}

// MediaMessage describes an attached image or document.
type MediaMessage struct {
	MimeType string `json:"mimetype"`
	Caption  string `json:"caption,omitempty"`
	FileName string `json:"fileName,omitempty"`
}
