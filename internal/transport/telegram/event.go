package telegram

import (
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/trunov/stickerbot/internal/entities"
)

// toEvent maps a Telegram message to the pipeline's event. Photos are always
// JPEG; static stickers are WebP.
func toEvent(msg *tgbotapi.Message) entities.InboundMediaEvent {
	ev := entities.InboundMediaEvent{
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		MessageID:      strconv.Itoa(msg.MessageID),
		Text:           msg.Text,
		ReceivedAt:     time.Unix(int64(msg.Date), 0),
	}
	if ev.Text == "" {
		ev.Text = msg.Caption
	}
	if msg.From != nil {
		ev.SenderID = strconv.FormatInt(msg.From.ID, 10)
	}

	setMedia := func(mime, fileID string, size int) {
		ev.HasMedia = true
		ev.MimeType = mime
		ev.FileID = fileID
		ev.FileSize = int64(size)
	}

	switch {
	case len(msg.Photo) > 0:
		// Sizes are ordered from smallest to largest.
		largest := msg.Photo[len(msg.Photo)-1]
		setMedia("image/jpeg", largest.FileID, largest.FileSize)
	case msg.Document != nil:
		setMedia(msg.Document.MimeType, msg.Document.FileID, msg.Document.FileSize)
	case msg.Sticker != nil:
		mime := "image/webp"
		if msg.Sticker.IsAnimated {
			mime = "application/x-tgsticker"
		}
		setMedia(mime, msg.Sticker.FileID, msg.Sticker.FileSize)
	case msg.Video != nil:
		setMedia(msg.Video.MimeType, msg.Video.FileID, msg.Video.FileSize)
	case msg.Audio != nil:
		setMedia(msg.Audio.MimeType, msg.Audio.FileID, msg.Audio.FileSize)
	case msg.Voice != nil:
		setMedia(msg.Voice.MimeType, msg.Voice.FileID, msg.Voice.FileSize)
	}

	return ev
}
