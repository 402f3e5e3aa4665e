package use_case

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/artifact"
	"github.com/trunov/stickerbot/internal/cleanup"
	"github.com/trunov/stickerbot/internal/entities"
	"github.com/trunov/stickerbot/internal/failure"
)

type Transport interface {
	Download(ctx context.Context, ev entities.InboundMediaEvent) (entities.Media, error)
	SendReply(ctx context.Context, conversationID string, media entities.MediaHandle, opts entities.SendOptions) error
}

type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, opts entities.TranscodeOptions) error
}

type Cleaner interface {
	Schedule(pair entities.ArtifactPair) *cleanup.Handle
}

type IDGenerator interface {
	New() string
}

// Deduper claims a key for ttl; false means somebody already claimed it.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

type Options struct {
	Sticker           entities.TranscodeOptions
	PreserveSourceExt bool
	DedupTTL          time.Duration
}

type useCase struct {
	transport  Transport
	transcoder Transcoder
	cleaner    Cleaner
	scratch    *artifact.Scratch
	ids        IDGenerator
	dedup      Deduper
	reporter   Reporter
	opts       Options
	log        *zap.Logger
}

type Deps struct {
	Transport  Transport
	Transcoder Transcoder
	Cleaner    Cleaner
	Scratch    *artifact.Scratch
	IDs        IDGenerator
	Dedup      Deduper // optional
	Reporter   Reporter
	Logger     *zap.Logger
}

func New(deps Deps, opts Options) *useCase {
	if opts.Sticker.Width == 0 {
		opts.Sticker = entities.DefaultStickerOptions()
	}
	return &useCase{
		transport:  deps.Transport,
		transcoder: deps.Transcoder,
		cleaner:    deps.Cleaner,
		scratch:    deps.Scratch,
		ids:        deps.IDs,
		dedup:      deps.Dedup,
		reporter:   deps.Reporter,
		opts:       opts,
		log:        deps.Logger.With(zap.String("component", "pipeline")),
	}
}

// Handle is the event boundary: nothing escapes it, panics included.
func (c *useCase) Handle(ctx context.Context, ev entities.InboundMediaEvent) {
	log := c.log.With(
		zap.String("conversation_id", ev.ConversationID),
		zap.String("message_id", ev.MessageID),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in sticker pipeline: %v", r)
			log.Error("pipeline panicked", zap.Error(err), zap.ByteString("stack", debug.Stack()))
			c.reporter.Report(ctx, err, map[string]string{"conversation_id": ev.ConversationID})
		}
	}()

	res := c.HandleMedia(ctx, ev)
	if res.Err == nil {
		return
	}

	kind, _ := failure.KindOf(res.Err)
	fields := []zap.Field{zap.String("failure_kind", string(kind)), zap.Error(res.Err)}
	if res.Pair != nil {
		fields = append(fields, zap.String("artifact_id", res.Pair.ID))
	}
	log.Warn("failed to process image or send sticker", fields...)
	c.reporter.Report(ctx, res.Err, map[string]string{
		"conversation_id": ev.ConversationID,
		"mime_type":       ev.MimeType,
	})
}

// HandleMedia runs the conversion for one event and reports how far it got.
func (c *useCase) HandleMedia(ctx context.Context, ev entities.InboundMediaEvent) (res Result) {
	res.State = StateIdle
	log := c.log.With(zap.String("conversation_id", ev.ConversationID))

	if !ev.HasMedia {
		log.Debug("message received", zap.Int("text_len", len(ev.Text)))
		return res
	}
	if !ev.IsImage() {
		log.Debug("ignoring non-image media", zap.String("mime_type", ev.MimeType))
		res.State = StateIgnored
		return res
	}

	if c.dedup != nil && ev.MessageID != "" {
		claimed, err := c.dedup.Claim(ctx, ev.ConversationID+":"+ev.MessageID, c.opts.DedupTTL)
		if err != nil {
			log.Warn("dedup claim failed, processing anyway", zap.Error(err))
		} else if !claimed {
			log.Info("duplicate delivery ignored", zap.String("message_id", ev.MessageID))
			res.State = StateIgnored
			return res
		}
	}

	res.State = StateDownloading
	media, err := c.transport.Download(ctx, ev)
	if err != nil {
		return res.fail(failure.KindDownload, err)
	}
	if media.MimeType != "" && !entities.IsImageMime(media.MimeType) {
		log.Debug("downloaded media is not an image", zap.String("mime_type", media.MimeType))
		res.State = StateIgnored
		return res
	}

	raw, err := media.Decode()
	if err != nil {
		return res.fail(failure.KindDecode, err)
	}

	if err := c.scratch.Ensure(); err != nil {
		return res.fail(failure.KindPersist, err)
	}

	pair := c.scratch.Pair(c.ids.New(), c.sourceExt(raw))
	if err := os.WriteFile(pair.Source, raw, 0o644); err != nil {
		_ = os.Remove(pair.Source)
		return res.fail(failure.KindPersist, err)
	}
	res.State = StateSourceWritten
	res.Pair = &pair
	log.Info("image saved", zap.String("path", pair.Source), zap.Int("bytes", len(raw)))

	// From here on the pair always gets cleaned up, whatever happens next.
	defer func() {
		res.Cleanup = c.cleaner.Schedule(pair)
		if res.Err == nil {
			res.State = StateCleanupScheduled
		}
	}()

	res.State = StateTranscoding
	if err := c.transcoder.Transcode(ctx, pair.Source, pair.Sticker, c.opts.Sticker); err != nil {
		return res.fail(failure.KindTranscode, err)
	}
	res.State = StateDerivativeReady
	log.Info("sticker generated", zap.String("path", pair.Sticker))

	handle := entities.MediaHandle{Path: pair.Sticker, MimeType: "image/webp"}
	if err := c.transport.SendReply(ctx, ev.ConversationID, handle, entities.SendOptions{AsSticker: true}); err != nil {
		return res.fail(failure.KindSend, err)
	}
	res.State = StateSent
	log.Info("sticker sent", zap.String("artifact_id", pair.ID))

	return res
}

// sourceExt keeps the historical .jpg name unless told to trust the payload.
func (c *useCase) sourceExt(raw []byte) string {
	if !c.opts.PreserveSourceExt {
		return artifact.DefaultSourceExt
	}
	if ext := mimetype.Detect(raw).Extension(); ext != "" {
		return ext
	}
	return artifact.DefaultSourceExt
}
