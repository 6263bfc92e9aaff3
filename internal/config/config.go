package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	DBDriver             string
	DBDSN                string
	LogLevel             string
	JWTSecret            string
	SessionTTL           time.Duration
	BcryptCost           int
	ReloadWorkerCount    int
	ReloadQueueSize      int
	ChannelBuffer        int
	SessionSweepInterval time.Duration
	PGNotifyChannel      string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBDriver:             strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBDSN:                envOr("DB_DSN", "file:arena.db"),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		JWTSecret:            envOr("JWT_SECRET", ""),
		SessionTTL:           envDurationOr("SESSION_TTL", 24*time.Hour),
		BcryptCost:           envIntOr("BCRYPT_COST", 10),
		ReloadWorkerCount:    envIntOr("RELOAD_WORKER_COUNT", 4),
		ReloadQueueSize:      envIntOr("RELOAD_QUEUE_SIZE", 256),
		ChannelBuffer:        envIntOr("CHANNEL_BUFFER", 16),
		SessionSweepInterval: envDurationOr("SESSION_SWEEP_INTERVAL", time.Minute),
		PGNotifyChannel:      envOr("PG_NOTIFY_CHANNEL", "lobby_changes"),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN cannot be empty")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.SessionTTL < time.Minute {
		return fmt.Errorf("SESSION_TTL must be at least 1m, got %v", c.SessionTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.ReloadWorkerCount < 1 {
		return fmt.Errorf("RELOAD_WORKER_COUNT must be at least 1, got %d", c.ReloadWorkerCount)
	}
	if c.ReloadQueueSize < 1 {
		return fmt.Errorf("RELOAD_QUEUE_SIZE must be at least 1, got %d", c.ReloadQueueSize)
	}
	if c.ChannelBuffer < 1 {
		return fmt.Errorf("CHANNEL_BUFFER must be at least 1, got %d", c.ChannelBuffer)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.DBDriver == "postgres" && c.PGNotifyChannel == "" {
		return fmt.Errorf("PG_NOTIFY_CHANNEL cannot be empty with the postgres driver")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
