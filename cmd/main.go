package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trunov/stickerbot/internal/app"
	"github.com/trunov/stickerbot/internal/config"
	"github.com/trunov/stickerbot/internal/logger"
	"github.com/trunov/stickerbot/internal/reporter"
)

const defaultConfigFile = "config.json"

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:           "stickerbot",
		Short:         "Reply to every image with the same picture as a 512x512 sticker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "config", "c", defaultConfigFile, "path to the JSON config file")

	return cmd
}

func run(ctx context.Context, file string) error {
	cfg := config.NewConfig()
	if err := cfg.Read(file); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := reporter.Init(&cfg.Sentry, version); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	// Flush buffered events before the program terminates.
	defer reporter.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}

	return a.Run(ctx)
}
