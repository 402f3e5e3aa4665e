// Package telegram adapts the Telegram Bot API to the sticker pipeline.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/entities"
)

var ErrTooLarge = errors.New("attachment exceeds download limit")

// Bot implements the pipeline transport for one bot account.
type Bot struct {
	api          *tgbotapi.BotAPI
	client       *http.Client
	fileEndpoint string
	pollTimeout  int
	maxDownload  int64
	allowFrom    map[int64]struct{}
	log          *zap.Logger
}

func New(cfg config.TelegramConfig, log *zap.Logger) (*Bot, error) {
	return NewWithClient(cfg, &http.Client{Timeout: 60 * time.Second}, log)
}

// NewWithClient connects using client for both API calls and file downloads.
func NewWithClient(cfg config.TelegramConfig, client *http.Client, log *zap.Logger) (*Bot, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	fileEndpoint := cfg.FileEndpoint
	if fileEndpoint == "" {
		fileEndpoint = tgbotapi.FileEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	allow := make(map[int64]struct{}, len(cfg.AllowFrom))
	for _, id := range cfg.AllowFrom {
		allow[id] = struct{}{}
	}

	b := &Bot{
		api:          api,
		client:       client,
		fileEndpoint: fileEndpoint,
		pollTimeout:  cfg.PollTimeout,
		maxDownload:  cfg.MaxDownloadMB << 20,
		allowFrom:    allow,
		log:          log.With(zap.String("component", "telegram")),
	}

	b.log.Info("bot ready",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)
	return b, nil
}

// Listen polls for updates and passes each message to onEvent until ctx is
// done. onEvent must not block for long.
func (b *Bot) Listen(ctx context.Context, onEvent func(context.Context, entities.InboundMediaEvent)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("polling started")

	for {
		select {
		case <-ctx.Done():
			b.log.Info("polling stopped")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil {
				continue
			}
			if msg.From != nil && !b.isAllowed(msg.From.ID) {
				b.log.Warn("message from user outside allow list", zap.Int64("user_id", msg.From.ID))
				continue
			}

			ev := toEvent(msg)
			b.log.Info("message received",
				zap.String("conversation_id", ev.ConversationID),
				zap.Bool("has_media", ev.HasMedia),
				zap.String("mime_type", ev.MimeType),
				zap.Int("text_len", len(ev.Text)),
			)
			onEvent(ctx, ev)
		}
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	_, ok := b.allowFrom[userID]
	return ok
}

// Download fetches the attachment referenced by ev.FileID.
func (b *Bot) Download(ctx context.Context, ev entities.InboundMediaEvent) (entities.Media, error) {
	if ev.FileID == "" {
		return entities.Media{}, errors.New("event has no file reference")
	}
	if b.maxDownload > 0 && ev.FileSize > b.maxDownload {
		return entities.Media{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, ev.FileSize)
	}

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: ev.FileID})
	if err != nil {
		return entities.Media{}, fmt.Errorf("get file %s: %w", ev.FileID, err)
	}

	url := fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entities.Media{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return entities.Media{}, fmt.Errorf("download %s: %w", file.FilePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.Media{}, fmt.Errorf("download %s: status %d", file.FilePath, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if b.maxDownload > 0 {
		body = io.LimitReader(resp.Body, b.maxDownload+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return entities.Media{}, fmt.Errorf("read %s: %w", file.FilePath, err)
	}
	if b.maxDownload > 0 && int64(len(data)) > b.maxDownload {
		return entities.Media{}, fmt.Errorf("%w: %s", ErrTooLarge, file.FilePath)
	}

	return entities.Media{MimeType: ev.MimeType, Data: data}, nil
}

// SendReply uploads the file at media.Path to the chat.
func (b *Bot) SendReply(ctx context.Context, conversationID string, media entities.MediaHandle, opts entities.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", conversationID, err)
	}

	file := tgbotapi.FilePath(media.Path)

	var c tgbotapi.Chattable
	if opts.AsSticker {
		c = tgbotapi.NewSticker(chatID, file)
	} else {
		c = tgbotapi.NewPhoto(chatID, file)
	}

	if _, err := b.api.Send(c); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
