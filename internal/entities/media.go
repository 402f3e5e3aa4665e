package entities

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EncodingBase64 marks a Media payload that still carries its transport encoding.
const EncodingBase64 = "base64"

var ErrEmptyPayload = errors.New("empty media payload")

// InboundMediaEvent is one incoming message as seen by the pipeline.
type InboundMediaEvent struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text,omitempty"`
	HasMedia       bool      `json:"has_media"`
	MimeType       string    `json:"mime_type,omitempty"`
	FileID         string    `json:"file_id,omitempty"` // transport-native attachment reference
	FileSize       int64     `json:"file_size,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// IsImage reports whether the declared attachment type is in the image category.
func (e InboundMediaEvent) IsImage() bool {
	return IsImageMime(e.MimeType)
}

func IsImageMime(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// Media is a downloaded attachment.
type Media struct {
	MimeType string
	Data     []byte
	Encoding string // "" for raw bytes or EncodingBase64
}

// Decode strips the transport encoding and returns the raw payload.
func (m Media) Decode() ([]byte, error) {
	var raw []byte
	switch m.Encoding {
	case "":
		raw = m.Data
	case EncodingBase64:
		buf := make([]byte, base64.StdEncoding.DecodedLen(len(m.Data)))
		n, err := base64.StdEncoding.Decode(buf, m.Data)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		raw = buf[:n]
	default:
		return nil, fmt.Errorf("unsupported payload encoding: %s", m.Encoding)
	}

	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	return raw, nil
}

// MediaHandle points the transport at a local file to upload.
type MediaHandle struct {
	Path     string
	MimeType string
}

type SendOptions struct {
	AsSticker bool
}
