package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/artifact"
	"github.com/trunov/stickerbot/internal/cache"
	"github.com/trunov/stickerbot/internal/cleanup"
	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/entities"
	"github.com/trunov/stickerbot/internal/queue"
	"github.com/trunov/stickerbot/internal/redisholder"
	"github.com/trunov/stickerbot/internal/reporter"
	"github.com/trunov/stickerbot/internal/transport/handler"
	"github.com/trunov/stickerbot/internal/transport/router"
	"github.com/trunov/stickerbot/internal/transport/telegram"
	use_case "github.com/trunov/stickerbot/internal/use-case"
	webp_converter "github.com/trunov/stickerbot/internal/webp-converter"
)

const shutdownTimeout = 10 * time.Second

type Listener interface {
	Listen(ctx context.Context, onEvent func(context.Context, entities.InboundMediaEvent)) error
}

type App struct {
	HttpServer *http.Server

	listener   Listener
	dispatcher *queue.Dispatcher
	scheduler  *cleanup.Scheduler
	redis      *redisholder.Holder
	log        *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	rep := reporter.Sentry{}
	conv := webp_converter.Converter{}

	dir, err := artifact.ResolveDir(cfg.Scratch.Dir)
	if err != nil {
		return nil, err
	}
	scratch := artifact.NewScratch(dir)
	if err := scratch.Ensure(); err != nil {
		return nil, err
	}

	bot, err := telegram.New(cfg.Telegram, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		listener:  bot,
		scheduler: cleanup.NewScheduler(cfg.Scratch.CleanupDelay(), log, rep),
		log:       log,
	}

	var dedup use_case.Deduper
	if cfg.Redis.Enabled() {
		holder, err := redisholder.Build(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		a.redis = holder
		dedup = cache.NewCache("stickerbot:seen", holder)
	}

	uc := use_case.New(use_case.Deps{
		Transport:  bot,
		Transcoder: conv,
		Cleaner:    a.scheduler,
		Scratch:    scratch,
		IDs:        artifact.NewGenerator(),
		Dedup:      dedup,
		Reporter:   rep,
		Logger:     log,
	}, use_case.Options{
		Sticker:           entities.DefaultStickerOptions(),
		PreserveSourceExt: cfg.Scratch.PreserveSourceExt,
		DedupTTL:          cfg.Dedup.TTL * time.Second,
	})

	a.dispatcher = queue.NewDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, uc, rep, log)

	if cfg.Server.Port > 0 {
		h := handler.New(conv, cfg, log)
		a.HttpServer = &http.Server{
			Handler:      router.NewRouter(h),
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			ReadTimeout:  cfg.Server.ReadTimeout * time.Second,
			WriteTimeout: cfg.Server.WriteTimeout * time.Second,
		}
	}

	log.Info("scratch directory ready", zap.String("dir", dir), zap.Duration("cleanup_delay", a.scheduler.Delay()))
	return a, nil
}

// Run serves until ctx is done, then drains queued events and pending
// cleanups.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Queued events still finish after shutdown starts.
	a.dispatcher.Start(context.WithoutCancel(ctx))

	serverErr := make(chan error, 1)
	if a.HttpServer != nil {
		go func() {
			a.log.Info("starting http server", zap.String("addr", a.HttpServer.Addr))
			if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
				cancel()
			}
		}()
	}

	listenErr := a.listener.Listen(ctx, a.dispatcher.Submit)

	a.shutdown()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	return listenErr
}

func (a *App) shutdown() {
	if a.HttpServer != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.HttpServer.Shutdown(sctx); err != nil {
			a.log.Warn("http shutdown", zap.Error(err))
		}
		cancel()
	}

	a.dispatcher.Close()
	a.scheduler.Flush()

	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.log.Info("stopped")
}
