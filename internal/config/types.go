package config

import (
	"fmt"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Scratch  ScratchConfig  `json:"scratch"`
	Dispatch DispatchConfig `json:"dispatch"`
	Dedup    DedupConfig    `json:"dedup"`
	Server   ServerConfig   `json:"server"`
	Upload   UploadConfig   `json:"upload"`
	Redis    RedisConfig    `json:"redis"`
	Log      LogConfig      `json:"log"`
	Sentry   SentryConfig   `json:"sentry"`
}

type TelegramConfig struct {
	Token         string  `json:"token" validate:"required"`
	AllowFrom     []int64 `json:"allow_from"`    // empty = everyone
	PollTimeout   int     `json:"poll_timeout"`  // seconds
	MaxDownloadMB int64   `json:"max_download"`  // per attachment
	APIEndpoint   string  `json:"api_endpoint"`  // "%s" token, "%s" method
	FileEndpoint  string  `json:"file_endpoint"` // "%s" token, "%s" file path
}

type ScratchConfig struct {
	Dir               string `json:"dir" validate:"required"`
	CleanupDelayMS    int64  `json:"cleanup_delay_ms" validate:"gte=0"`
	PreserveSourceExt bool   `json:"preserve_source_ext"`
}

func (s ScratchConfig) CleanupDelay() time.Duration {
	return time.Duration(s.CleanupDelayMS) * time.Millisecond
}

type DispatchConfig struct {
	Workers   int `json:"workers" validate:"gte=1,lte=256"`
	QueueSize int `json:"queue_size" validate:"gte=1"`
}

type DedupConfig struct {
	TTL time.Duration `json:"ttl"` // seconds
}

type ServerConfig struct {
	Port         int           `json:"port" validate:"gte=0,lte=65535"` // 0 disables the HTTP API
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type UploadConfig struct {
	MaxRequestBodyMB     int64 `json:"max_request_body" validate:"gte=1"`
	MaxMultipartMemoryMB int64 `json:"max_multipart_memory" validate:"gte=1"`
}

type RedisConfig struct {
	Mode                string        `json:"mode" validate:"omitempty,oneof=auto single cluster"`
	Password            string        `json:"password"`
	DatabaseID          int           `json:"database_id"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	PoolSize            int           `json:"pool_size"`
	Nodes               []RedisNode   `json:"nodes" validate:"dive"`
}

// Enabled reports whether any redis node is configured.
func (r RedisConfig) Enabled() bool { return len(r.Nodes) > 0 }

type RedisNode struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"gte=1,lte=65535"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

type LogConfig struct {
	Level  string `json:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" validate:"omitempty,oneof=json console"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}
