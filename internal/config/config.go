// Package config holds the typed settings loaded by pkg/envconf at boot.
package config

import (
	"log/slog"
	"time"
)

type Config struct {
	DatabaseURL   string     `env:"DATABASE_URL"`
	DirectURL     string     `env:"DIRECT_URL" envDefault:""`
	RedisURL      string     `env:"REDIS_URL"`
	TreasuryEmail string     `env:"TREASURY_EMAIL"`
	Port          string     `env:"PORT" envDefault:"3000"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AppEnv        string     `env:"APP_ENV" envDefault:"PROD"`

	LockTimeout     time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`
	ProcessingTTL   time.Duration `env:"PROCESSING_TTL" envDefault:"10s"`
	TerminalTTL     time.Duration `env:"TERMINAL_TTL" envDefault:"24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxAmount       string        `env:"MAX_AMOUNT" envDefault:"1000000000"`
}
