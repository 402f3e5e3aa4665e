package reporter

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/failure"
)

func Init(cfg *config.SentryConfig, version string) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
}

// Flush waits for buffered events before the program terminates.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Sentry sends pipeline failures to the configured DSN. With an empty DSN
// the SDK drops events, so it is safe to use unconditionally.
type Sentry struct{}

func (Sentry) Report(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if kind, ok := failure.KindOf(err); ok {
			scope.SetTag("failure_kind", string(kind))
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Nop discards reports.
type Nop struct{}

func (Nop) Report(context.Context, error, map[string]string) {}
