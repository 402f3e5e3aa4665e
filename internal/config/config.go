package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

const EnvTelegramToken = "STICKERBOT_TELEGRAM_TOKEN"

// Create new config instance with defaults
func NewConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout:   30,
			MaxDownloadMB: 20,
		},
		Scratch: ScratchConfig{
			Dir:            "images",
			CleanupDelayMS: 5000,
		},
		Dispatch: DispatchConfig{
			Workers:   4,
			QueueSize: 100,
		},
		Dedup: DedupConfig{TTL: 3600},
		Server: ServerConfig{
			ReadTimeout:  15,
			WriteTimeout: 60,
		},
		Upload: UploadConfig{
			MaxRequestBodyMB:     20,
			MaxMultipartMemoryMB: 8,
		},
		Redis: RedisConfig{
			HealthCheckInterval: 30,
			DialTimeout:         5,
			ReadTimeout:         3,
			WriteTimeout:        3,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load configuration file in json format over the defaults
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	c.applyEnv()
	return nil
}

func (c *Config) applyEnv() {
	if token := strings.TrimSpace(os.Getenv(EnvTelegramToken)); token != "" {
		c.Telegram.Token = token
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
