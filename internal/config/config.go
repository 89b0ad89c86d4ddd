// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Catalog backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds every runtime setting. Load reads it from the environment (and any .env
// file); the command line may override fields afterwards.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string // "text" or "json"

	IdleTimeout    time.Duration // players idle longer than this are evicted
	ReaperInterval time.Duration // how often the reaper sweeps

	CatalogBackend string
	RedisAddr      string
	RedisDB        int
	RedisPoolSize  int // 0 keeps go-redis's default of 10 per CPU
	RedisGamesKey  string
	DatabaseURL    string

	// OriginPatterns is the websocket Origin allow-list. The default is empty, which
	// accepts same-origin requests only; set WS_ORIGIN_PATTERNS=* to accept any origin.
	OriginPatterns []string
	SendBuffer     int // outbound queue length per connection
}

// Load reads the configuration from the environment, falling back to defaults.
func Load() Config {
	return Config{
		Addr:           getEnv("PLAZA_ADDR", ":3001"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
		IdleTimeout:    getEnvDuration("IDLE_TIMEOUT", 5*time.Minute),
		ReaperInterval: getEnvDuration("REAPER_INTERVAL", time.Minute),
		CatalogBackend: getEnv("CATALOG_BACKEND", BackendMemory),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPoolSize:  getEnvInt("REDIS_POOL_SIZE", 0),
		RedisGamesKey:  getEnv("REDIS_GAMES_KEY", "plaza:games"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		OriginPatterns: getEnvList("WS_ORIGIN_PATTERNS", nil),
		SendBuffer:     getEnvInt("WS_SEND_BUFFER", 32),
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", c.IdleTimeout)
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got %v", c.ReaperInterval)
	}
	if c.RedisPoolSize < 0 {
		return fmt.Errorf("redis pool size must not be negative, got %d", c.RedisPoolSize)
	}
	switch c.CatalogBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("catalog backend %q requires DATABASE_URL", c.CatalogBackend)
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.CatalogBackend)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("90s", "5m") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
